package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

// GetFeeds retrieves all feeds, pinned first, then by title
func (s *Store) GetFeeds(ctx context.Context) ([]domain.Feed, error) {
	var rows []dbFeed
	err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM feeds ORDER BY pinned DESC, title")
	if err != nil {
		return nil, fmt.Errorf("get feeds: %w", err)
	}

	feeds := make([]domain.Feed, len(rows))
	for i := range rows {
		feeds[i] = rows[i].toDomain()
	}
	return feeds, nil
}

// GetFeed retrieves a feed by ID
func (s *Store) GetFeed(ctx context.Context, id int64) (*domain.Feed, error) {
	var row dbFeed
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM feeds WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feed %d not found", id)
		}
		return nil, fmt.Errorf("get feed: %w", err)
	}
	feed := row.toDomain()
	return &feed, nil
}

// GetFeedsByFolder retrieves feeds filed under a folder, folder id 0 selects
// unfiled feeds
func (s *Store) GetFeedsByFolder(ctx context.Context, folderID int64) ([]domain.Feed, error) {
	var rows []dbFeed
	err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM feeds WHERE folder_id = ? ORDER BY title", folderID)
	if err != nil {
		return nil, fmt.Errorf("get feeds by folder: %w", err)
	}

	feeds := make([]domain.Feed, len(rows))
	for i := range rows {
		feeds[i] = rows[i].toDomain()
	}
	return feeds, nil
}

// UpsertFeeds inserts or updates feeds by id
func (s *Store) UpsertFeeds(ctx context.Context, feeds []domain.Feed) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		return upsertFeedsTx(ctx, tx, feeds)
	})
}

// ReconcileFeeds upserts the fresh authoritative feed set and deletes every
// locally stored feed absent from it. Deleting a feed removes its items in
// the same transaction, so no item is left referencing a missing feed.
func (s *Store) ReconcileFeeds(ctx context.Context, fresh []domain.Feed) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := upsertFeedsTx(ctx, tx, fresh); err != nil {
			return err
		}

		var localIDs []int64
		if err := tx.SelectContext(ctx, &localIDs, "SELECT id FROM feeds ORDER BY id"); err != nil {
			return fmt.Errorf("select feed ids: %w", err)
		}

		freshIDs := make([]int64, len(fresh))
		for i, f := range fresh {
			freshIDs[i] = f.ID
		}
		sort.Slice(freshIDs, func(i, j int) bool { return freshIDs[i] < freshIDs[j] })

		for _, id := range staleIDs(localIDs, freshIDs) {
			// cascade: items first, then the feed itself
			if _, err := tx.ExecContext(ctx, "DELETE FROM pending_unread WHERE item_id IN (SELECT id FROM items WHERE feed_id = ?)", id); err != nil {
				return fmt.Errorf("clear pending unread for feed %d: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM pending_starred WHERE item_id IN (SELECT id FROM items WHERE feed_id = ?)", id); err != nil {
				return fmt.Errorf("clear pending starred for feed %d: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE feed_id = ?", id); err != nil {
				return fmt.Errorf("delete items of feed %d: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM feeds WHERE id = ?", id); err != nil {
				return fmt.Errorf("delete feed %d: %w", id, err)
			}
		}
		return nil
	})
}

// RecomputeCounters sets every feed's unread and starred counters to the
// literal counts over its items. Idempotent; the authoritative pass after
// any bulk item mutation.
func (s *Store) RecomputeCounters(ctx context.Context) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		queries := []string{
			`UPDATE feeds SET unread_count =
				(SELECT COUNT(*) FROM items WHERE items.feed_id = feeds.id AND items.unread = 1)`,
			`UPDATE feeds SET starred_count =
				(SELECT COUNT(*) FROM items WHERE items.feed_id = feeds.id AND items.starred = 1)`,
		}
		for _, q := range queries {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("recompute counters: %w", err)
			}
		}
		return nil
	})
}

func upsertFeedsTx(ctx context.Context, tx *sqlx.Tx, feeds []domain.Feed) error {
	query := `
		INSERT INTO feeds (
			id, folder_id, title, url, link, favicon_link, ordering, pinned,
			update_error_count, last_update_error, unread_count, starred_count
		) VALUES (
			:id, :folder_id, :title, :url, :link, :favicon_link, :ordering, :pinned,
			:update_error_count, :last_update_error, :unread_count, :starred_count
		)
		ON CONFLICT(id) DO UPDATE SET
			folder_id = excluded.folder_id,
			title = excluded.title,
			url = excluded.url,
			link = excluded.link,
			favicon_link = excluded.favicon_link,
			ordering = excluded.ordering,
			pinned = excluded.pinned,
			update_error_count = excluded.update_error_count,
			last_update_error = excluded.last_update_error
	`
	for i := range feeds {
		if _, err := tx.NamedExecContext(ctx, query, toDBFeed(&feeds[i])); err != nil {
			return fmt.Errorf("upsert feed %d: %w", feeds[i].ID, err)
		}
	}
	return nil
}
