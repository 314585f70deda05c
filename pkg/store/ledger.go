package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

// ToggleUnread sets an item's unread flag and records the local edit in the
// change ledger. Membership in the pending set is a symmetric difference:
// toggling twice before a push cancels out and no network call happens. The
// owning feed's unread counter is adjusted in the same transaction. Setting
// the flag to its current value is a no-op.
func (s *Store) ToggleUnread(ctx context.Context, itemID int64, newValue bool) error {
	return s.withRetry(ctx, func() error {
		return s.toggleFlag(ctx, itemID, newValue, "unread", "pending_unread", "unread_count")
	})
}

// ToggleStarred is the starred counterpart of ToggleUnread
func (s *Store) ToggleStarred(ctx context.Context, itemID int64, newValue bool) error {
	return s.withRetry(ctx, func() error {
		return s.toggleFlag(ctx, itemID, newValue, "starred", "pending_starred", "starred_count")
	})
}

func (s *Store) toggleFlag(ctx context.Context, itemID int64, newValue bool, flagCol, pendingTable, counterCol string) error {
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		var row struct {
			FeedID  int64 `db:"feed_id"`
			Current bool  `db:"current"`
		}
		query := fmt.Sprintf("SELECT feed_id, %s AS current FROM items WHERE id = ?", flagCol) //nolint:gosec // column names are fixed by callers
		if err := tx.GetContext(ctx, &row, query, itemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("item %d not found", itemID)
			}
			return fmt.Errorf("get item %d: %w", itemID, err)
		}

		if row.Current == newValue {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE items SET %s = ? WHERE id = ?", flagCol), newValue, itemID); err != nil {
			return fmt.Errorf("update item flag: %w", err)
		}

		// symmetric difference on the pending set
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", pendingTable), itemID)
		if err != nil {
			return fmt.Errorf("remove pending entry: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if removed == 0 {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO %s (item_id) VALUES (?)", pendingTable), itemID); err != nil {
				return fmt.Errorf("add pending entry: %w", err)
			}
		}

		delta := -1
		if newValue {
			delta = 1
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE feeds SET %s = %s + ? WHERE id = ?", counterCol, counterCol), delta, row.FeedID); err != nil {
			return fmt.Errorf("adjust feed counter: %w", err)
		}
		return nil
	})
}

// PendingUnreadItems returns ledger items whose current unread flag matches
// wantUnread. The remote protocol distinguishes mark-read from mark-unread,
// so the pending set is pushed as two separate actions.
func (s *Store) PendingUnreadItems(ctx context.Context, wantUnread bool) ([]domain.Item, error) {
	return s.pendingItems(ctx, "pending_unread", "unread", wantUnread)
}

// PendingStarredItems returns ledger items whose current starred flag
// matches wantStarred
func (s *Store) PendingStarredItems(ctx context.Context, wantStarred bool) ([]domain.Item, error) {
	return s.pendingItems(ctx, "pending_starred", "starred", wantStarred)
}

func (s *Store) pendingItems(ctx context.Context, pendingTable, flagCol string, want bool) ([]domain.Item, error) {
	query := fmt.Sprintf(`
		SELECT i.* FROM items i
		JOIN %s p ON p.item_id = i.id
		WHERE i.%s = ?
		ORDER BY i.id`, pendingTable, flagCol) //nolint:gosec // table and column names are fixed by callers

	var rows []dbItem
	if err := s.conn.SelectContext(ctx, &rows, query, want); err != nil {
		return nil, fmt.Errorf("get pending items: %w", err)
	}

	items := make([]domain.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].toDomain()
	}
	return items, nil
}

// ClearPendingUnread removes acknowledged entries from the unread ledger.
// Called only after the server confirmed the corresponding push.
func (s *Store) ClearPendingUnread(ctx context.Context, itemIDs []int64) error {
	return s.clearPending(ctx, "pending_unread", itemIDs)
}

// ClearPendingStarred removes acknowledged entries from the starred ledger
func (s *Store) ClearPendingStarred(ctx context.Context, itemIDs []int64) error {
	return s.clearPending(ctx, "pending_starred", itemIDs)
}

func (s *Store) clearPending(ctx context.Context, pendingTable string, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", pendingTable) //nolint:gosec // table name is fixed by callers
		for _, id := range itemIDs {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("clear pending entry %d: %w", id, err)
			}
		}
		return nil
	})
}

// PendingCounts returns the sizes of the two pending sets
func (s *Store) PendingCounts(ctx context.Context) (unread, starred int, err error) {
	if err = s.conn.GetContext(ctx, &unread, "SELECT COUNT(*) FROM pending_unread"); err != nil {
		return 0, 0, fmt.Errorf("count pending unread: %w", err)
	}
	if err = s.conn.GetContext(ctx, &starred, "SELECT COUNT(*) FROM pending_starred"); err != nil {
		return 0, 0, fmt.Errorf("count pending starred: %w", err)
	}
	return unread, starred, nil
}
