package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

func TestStore_UpsertAndGetFolders(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFolders(ctx, []domain.Folder{
		{ID: 2, Title: "Zebra"},
		{ID: 1, Title: "Apple"},
	}))

	folders, err := s.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "Apple", folders[0].Title, "ordered by title")
	assert.Equal(t, "Zebra", folders[1].Title)

	// second upsert updates in place
	require.NoError(t, s.UpsertFolders(ctx, []domain.Folder{{ID: 1, Title: "Apricot"}}))
	folder, err := s.GetFolder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Apricot", folder.Title)
}

func TestStore_GetFolder_NotFound(t *testing.T) {
	s := setupTestDB(t)

	_, err := s.GetFolder(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_ReconcileFolders(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFolders(ctx, []domain.Folder{
		{ID: 1, Title: "Keep"},
		{ID: 2, Title: "Drop"},
		{ID: 3, Title: "Rename"},
	}))

	require.NoError(t, s.ReconcileFolders(ctx, []domain.Folder{
		{ID: 1, Title: "Keep"},
		{ID: 3, Title: "Renamed"},
	}))

	folders, err := s.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, int64(1), folders[0].ID)
	assert.Equal(t, "Renamed", folders[1].Title)
}

func TestStore_ReconcileFolders_NoFeedCascade(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFolders(ctx, []domain.Folder{{ID: 2, Title: "Drop"}}))
	require.NoError(t, s.UpsertFeeds(ctx, []domain.Feed{{ID: 7, FolderID: 2, Title: "Orphan"}}))

	require.NoError(t, s.ReconcileFolders(ctx, nil))

	// folder reference is weak: the feed survives its folder's deletion
	feed, err := s.GetFeed(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), feed.FolderID)
}
