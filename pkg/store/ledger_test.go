package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

func seedLedger(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertFeeds(ctx, []domain.Feed{{ID: 7, Title: "Example"}}))
	require.NoError(t, s.UpsertItems(ctx, []domain.Item{
		{ID: 1, FeedID: 7, GUIDHash: "h1", Unread: true},
		{ID: 2, FeedID: 7, GUIDHash: "h2"},
	}))
	require.NoError(t, s.RecomputeCounters(ctx))
}

func TestStore_ToggleUnread(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)
	ctx := context.Background()

	require.NoError(t, s.ToggleUnread(ctx, 1, false))

	item, err := s.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.False(t, item.Unread)

	unread, _, err := s.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// incremental counter adjustment in the same transaction
	feed, err := s.GetFeed(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, feed.UnreadCount)
}

func TestStore_ToggleUnread_Cancellation(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)
	ctx := context.Background()

	require.NoError(t, s.ToggleUnread(ctx, 1, false))
	require.NoError(t, s.ToggleUnread(ctx, 1, true))

	// symmetric difference: the second toggle removes the ledger entry
	unread, _, err := s.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)

	item, err := s.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.True(t, item.Unread, "flag restored to pre-toggle value")

	feed, err := s.GetFeed(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.UnreadCount, "counter restored too")
}

func TestStore_Toggle_SameValueIsNoOp(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)
	ctx := context.Background()

	require.NoError(t, s.ToggleUnread(ctx, 1, true)) // already unread

	unread, _, err := s.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestStore_Toggle_UnknownItem(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)

	err := s.ToggleUnread(context.Background(), 999, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_ToggleStarred(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)
	ctx := context.Background()

	require.NoError(t, s.ToggleStarred(ctx, 2, true))

	item, err := s.GetItem(ctx, 2)
	require.NoError(t, err)
	assert.True(t, item.Starred)

	_, starred, err := s.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, starred)

	feed, err := s.GetFeed(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.StarredCount)
}

func TestStore_PendingItems_SplitByCurrentFlag(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)
	ctx := context.Background()

	require.NoError(t, s.ToggleUnread(ctx, 1, false)) // now read, needs mark-read push
	require.NoError(t, s.ToggleUnread(ctx, 2, true))  // now unread, needs mark-unread push

	toRead, err := s.PendingUnreadItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, toRead, 1)
	assert.Equal(t, int64(1), toRead[0].ID)

	toUnread, err := s.PendingUnreadItems(ctx, true)
	require.NoError(t, err)
	require.Len(t, toUnread, 1)
	assert.Equal(t, int64(2), toUnread[0].ID)
}

func TestStore_ClearPending(t *testing.T) {
	s := setupTestDB(t)
	seedLedger(t, s)
	ctx := context.Background()

	require.NoError(t, s.ToggleUnread(ctx, 1, false))
	require.NoError(t, s.ToggleStarred(ctx, 2, true))

	require.NoError(t, s.ClearPendingUnread(ctx, []int64{1}))
	require.NoError(t, s.ClearPendingStarred(ctx, []int64{2}))
	require.NoError(t, s.ClearPendingUnread(ctx, nil)) // empty set is fine

	unread, starred, err := s.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
	assert.Zero(t, starred)

	// clearing does not revert the flags themselves
	item, err := s.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.False(t, item.Unread)
}
