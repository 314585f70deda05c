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

// GetFolders retrieves all folders sorted by title
func (s *Store) GetFolders(ctx context.Context) ([]domain.Folder, error) {
	var rows []dbFolder
	err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM folders ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("get folders: %w", err)
	}

	folders := make([]domain.Folder, len(rows))
	for i, r := range rows {
		folders[i] = domain.Folder{ID: r.ID, Title: r.Title}
	}
	return folders, nil
}

// GetFolder retrieves a folder by ID
func (s *Store) GetFolder(ctx context.Context, id int64) (*domain.Folder, error) {
	var row dbFolder
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM folders WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("folder %d not found", id)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &domain.Folder{ID: row.ID, Title: row.Title}, nil
}

// UpsertFolders inserts or updates folders by id
func (s *Store) UpsertFolders(ctx context.Context, folders []domain.Folder) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		return upsertFoldersTx(ctx, tx, folders)
	})
}

// ReconcileFolders upserts the fresh authoritative folder set and deletes
// every locally stored folder absent from it. Feeds referencing a deleted
// folder are left alone; the server resends feeds with consistent folder
// ids on the next sync.
func (s *Store) ReconcileFolders(ctx context.Context, fresh []domain.Folder) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := upsertFoldersTx(ctx, tx, fresh); err != nil {
			return err
		}

		var localIDs []int64
		if err := tx.SelectContext(ctx, &localIDs, "SELECT id FROM folders ORDER BY id"); err != nil {
			return fmt.Errorf("select folder ids: %w", err)
		}

		freshIDs := make([]int64, len(fresh))
		for i, f := range fresh {
			freshIDs[i] = f.ID
		}
		sort.Slice(freshIDs, func(i, j int) bool { return freshIDs[i] < freshIDs[j] })

		for _, id := range staleIDs(localIDs, freshIDs) {
			if _, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id); err != nil {
				return fmt.Errorf("delete folder %d: %w", id, err)
			}
		}
		return nil
	})
}

func upsertFoldersTx(ctx context.Context, tx *sqlx.Tx, folders []domain.Folder) error {
	query := `
		INSERT INTO folders (id, title) VALUES (:id, :title)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title
	`
	for _, f := range folders {
		if _, err := tx.NamedExecContext(ctx, query, dbFolder{ID: f.ID, Title: f.Title}); err != nil {
			return fmt.Errorf("upsert folder %d: %w", f.ID, err)
		}
	}
	return nil
}
