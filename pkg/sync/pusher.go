package sync

import (
	"context"
	"fmt"

	"github.com/newsmirror/newsmirror/pkg/domain"
	"github.com/newsmirror/newsmirror/pkg/remote"
)

// drainLedger pushes the pending sets to the server as four separate
// actions: mark-read, mark-unread, star, unstar. Each action clears its
// ledger entries only after the server confirmed it, so a failed push
// leaves them in place for the next attempt. The scheduler is disarmed
// once both sets are empty.
func (s *Syncer) drainLedger(ctx context.Context) error {
	if err := s.pushUnread(ctx, false, s.client.MarkRead); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if err := s.pushUnread(ctx, true, s.client.MarkUnread); err != nil {
		return fmt.Errorf("mark unread: %w", err)
	}
	if err := s.pushStarred(ctx, true, s.client.MarkStarred); err != nil {
		return fmt.Errorf("mark starred: %w", err)
	}
	if err := s.pushStarred(ctx, false, s.client.MarkUnstarred); err != nil {
		return fmt.Errorf("mark unstarred: %w", err)
	}

	// toggles may land mid-drain, disarm only on a truly empty ledger
	unread, starred, err := s.store.PendingCounts(ctx)
	if err != nil {
		return fmt.Errorf("pending counts: %w", err)
	}
	if unread == 0 && starred == 0 {
		s.scheduler.Disarm()
	}
	return nil
}

func (s *Syncer) pushUnread(ctx context.Context, wantUnread bool, push func(context.Context, []int64) error) error {
	items, err := s.store.PendingUnreadItems(ctx, wantUnread)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	ids := itemIDs(items)
	if err := push(ctx, ids); err != nil {
		return err
	}
	return s.store.ClearPendingUnread(ctx, ids)
}

func (s *Syncer) pushStarred(ctx context.Context, wantStarred bool, push func(context.Context, []remote.StarRef) error) error {
	items, err := s.store.PendingStarredItems(ctx, wantStarred)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	refs := make([]remote.StarRef, len(items))
	for i, it := range items {
		refs[i] = remote.StarRef{FeedID: it.FeedID, GUIDHash: it.GUIDHash}
	}
	if err := push(ctx, refs); err != nil {
		return err
	}
	return s.store.ClearPendingStarred(ctx, itemIDs(items))
}

func itemIDs(items []domain.Item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
