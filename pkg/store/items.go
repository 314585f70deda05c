package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

// itemSortFields whitelists the ORDER BY columns accepted by GetItems
var itemSortFields = map[string]bool{
	"id":            true,
	"pub_date":      true,
	"last_modified": true,
}

// GetItem retrieves an item by ID
func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var row dbItem
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM items WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %d not found", id)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	item := row.toDomain()
	return &item, nil
}

// GetItems retrieves items for a scope ordered by the given field
func (s *Store) GetItems(ctx context.Context, scope domain.Scope, sortField string, ascending bool) ([]domain.Item, error) {
	if sortField == "" {
		sortField = "pub_date"
	}
	if !itemSortFields[sortField] {
		return nil, fmt.Errorf("unsupported sort field %q", sortField)
	}

	dir := "DESC"
	if ascending {
		dir = "ASC"
	}

	var where string
	var args []interface{}
	switch scope.Type {
	case domain.ScopeFeed:
		where = "WHERE feed_id = ?"
		args = append(args, scope.ID)
	case domain.ScopeFolder:
		where = "WHERE feed_id IN (SELECT id FROM feeds WHERE folder_id = ?)"
		args = append(args, scope.ID)
	case domain.ScopeStarred:
		where = "WHERE starred = 1"
	case domain.ScopeAll:
		where = "WHERE unread = 1"
	default:
		return nil, fmt.Errorf("unsupported scope type %d", scope.Type)
	}

	query := fmt.Sprintf("SELECT * FROM items %s ORDER BY %s %s", where, sortField, dir) //nolint:gosec // sortField whitelisted above
	var rows []dbItem
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	items := make([]domain.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].toDomain()
	}
	return items, nil
}

// CountItems returns the total number of items
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM items"); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// LowestItemID returns the smallest stored item id, 0 when no items exist.
// Load-more uses it as the fallback offset when the persisted view cursor
// belongs to a different scope.
func (s *Store) LowestItemID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := s.conn.GetContext(ctx, &id, "SELECT MIN(id) FROM items"); err != nil {
		return 0, fmt.Errorf("lowest item id: %w", err)
	}
	return id.Int64, nil
}

// UpsertItems inserts or updates items by id in a single transaction
func (s *Store) UpsertItems(ctx context.Context, items []domain.Item) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		return upsertItemsTx(ctx, tx, items)
	})
}

// EvictExcess bounds the cache by deleting the oldest read and unstarred
// items beyond maxItems. Unread or starred items are never evicted, they
// carry user-relevant state. Returns the number of deleted rows; a second
// run with the same bound is a no-op.
func (s *Store) EvictExcess(ctx context.Context, maxItems int) (int64, error) {
	var deleted int64
	err := s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		var expendable int64
		if err := tx.GetContext(ctx, &expendable,
			"SELECT COUNT(*) FROM items WHERE unread = 0 AND starred = 0"); err != nil {
			return fmt.Errorf("count expendable items: %w", err)
		}

		excess := expendable - int64(maxItems)
		if excess <= 0 {
			return nil
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM items WHERE id IN (
				SELECT id FROM items
				WHERE unread = 0 AND starred = 0
				ORDER BY last_modified ASC, id ASC
				LIMIT ?
			)`, excess)
		if err != nil {
			return fmt.Errorf("evict items: %w", err)
		}

		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	return deleted, err
}

func upsertItemsTx(ctx context.Context, tx *sqlx.Tx, items []domain.Item) error {
	query := `
		INSERT INTO items (
			id, feed_id, guid_hash, title, body, author, url,
			enclosure_link, enclosure_mime, pub_date, last_modified, unread, starred
		) VALUES (
			:id, :feed_id, :guid_hash, :title, :body, :author, :url,
			:enclosure_link, :enclosure_mime, :pub_date, :last_modified, :unread, :starred
		)
		ON CONFLICT(id) DO UPDATE SET
			feed_id = excluded.feed_id,
			guid_hash = excluded.guid_hash,
			title = excluded.title,
			body = excluded.body,
			author = excluded.author,
			url = excluded.url,
			enclosure_link = excluded.enclosure_link,
			enclosure_mime = excluded.enclosure_mime,
			pub_date = excluded.pub_date,
			last_modified = excluded.last_modified,
			unread = excluded.unread,
			starred = excluded.starred
	`
	for i := range items {
		if _, err := tx.NamedExecContext(ctx, query, toDBItem(&items[i])); err != nil {
			return fmt.Errorf("upsert item %d: %w", items[i].ID, err)
		}
	}
	return nil
}
