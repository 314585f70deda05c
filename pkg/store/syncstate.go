package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

// SyncCursor returns the timestamp of the last successful full sync,
// 0 before the first one ever completed
func (s *Store) SyncCursor(ctx context.Context) (int64, error) {
	var ts int64
	if err := s.conn.GetContext(ctx, &ts, "SELECT last_sync FROM sync_state WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("get sync cursor: %w", err)
	}
	return ts, nil
}

// SetSyncCursor advances the sync cursor
func (s *Store) SetSyncCursor(ctx context.Context, ts int64) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE sync_state SET last_sync = ? WHERE id = 1", ts); err != nil {
			return fmt.Errorf("set sync cursor: %w", err)
		}
		return nil
	})
}

// TempView returns the persisted view cursor: the scope last browsed with
// load-more and the lowest item id fetched for it
func (s *Store) TempView(ctx context.Context) (scope domain.Scope, lowestItemID int64, err error) {
	var row struct {
		ScopeType    int   `db:"scope_type"`
		ScopeID      int64 `db:"scope_id"`
		LowestItemID int64 `db:"lowest_item_id"`
	}
	if err = s.conn.GetContext(ctx, &row,
		"SELECT scope_type, scope_id, lowest_item_id FROM temp_view WHERE id = 1"); err != nil {
		return domain.Scope{}, 0, fmt.Errorf("get temp view: %w", err)
	}
	return domain.Scope{Type: domain.ScopeType(row.ScopeType), ID: row.ScopeID}, row.LowestItemID, nil
}

// SetTempView persists the view cursor after a load-more fetch
func (s *Store) SetTempView(ctx context.Context, scope domain.Scope, lowestItemID int64) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE temp_view SET scope_type = ?, scope_id = ?, lowest_item_id = ? WHERE id = 1",
			int(scope.Type), scope.ID, lowestItemID); err != nil {
			return fmt.Errorf("set temp view: %w", err)
		}
		return nil
	})
}

// GetUser returns the stored account profile, nil when never synced
func (s *Store) GetUser(ctx context.Context) (*domain.User, error) {
	var rows []struct {
		UserID      string `db:"user_id"`
		DisplayName string `db:"display_name"`
		LastLogin   int64  `db:"last_login"`
	}
	if err := s.conn.SelectContext(ctx, &rows,
		"SELECT user_id, display_name, last_login FROM user WHERE id = 1"); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &domain.User{UserID: rows[0].UserID, DisplayName: rows[0].DisplayName, LastLogin: rows[0].LastLogin}, nil
}

// SetUser stores the account profile fetched during full sync
func (s *Store) SetUser(ctx context.Context, u domain.User) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO user (id, user_id, display_name, last_login)
			VALUES (1, :user_id, :display_name, :last_login)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				display_name = excluded.display_name,
				last_login = excluded.last_login
		`
		arg := map[string]interface{}{
			"user_id":      u.UserID,
			"display_name": u.DisplayName,
			"last_login":   u.LastLogin,
		}
		if _, err := tx.NamedExecContext(ctx, query, arg); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		return nil
	})
}
