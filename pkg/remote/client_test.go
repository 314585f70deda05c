package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsmirror/newsmirror/pkg/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Username: "alice", Password: "secret"})
}

func TestClient_User(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index.php/apps/news/api/v1-2/user", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"alice","displayName":"Alice","lastLoginTimestamp":1700000000}`))
	})

	u, err := c.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserID)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.Equal(t, int64(1700000000), u.LastLogin)
}

func TestClient_Folders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index.php/apps/news/api/v1-2/folders", r.URL.Path)
		_, _ = w.Write([]byte(`{"folders":[{"id":3,"name":"Tech"},{"id":5,"name":"News"}]}`))
	})

	folders, err := c.Folders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, domain.Folder{ID: 3, Title: "Tech"}, folders[0])
	assert.Equal(t, domain.Folder{ID: 5, Title: "News"}, folders[1])
}

func TestClient_Feeds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"feeds":[{"id":7,"folderId":3,"title":"Example","url":"https://example.com/rss",
			"link":"https://example.com","pinned":true,"unreadCount":12}]}`))
	})

	feeds, err := c.Feeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, int64(7), feeds[0].ID)
	assert.Equal(t, int64(3), feeds[0].FolderID)
	assert.True(t, feeds[0].Pinned)
	assert.Equal(t, 12, feeds[0].UnreadCount)
}

func TestClient_Items(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index.php/apps/news/api/v1-2/items", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("batchSize"))
		assert.Equal(t, "250", q.Get("offset"))
		assert.Equal(t, "3", q.Get("type"))
		assert.Equal(t, "0", q.Get("id"))
		assert.Equal(t, "false", q.Get("getRead"))
		assert.Equal(t, "false", q.Get("oldestFirst"))
		_, _ = w.Write([]byte(`{"items":[{"id":249,"feedId":7,"guidHash":"abc","title":"hello","unread":true}]}`))
	})

	items, err := c.Items(context.Background(), ItemsQuery{
		BatchSize: 100,
		Offset:    250,
		Scope:     domain.Scope{Type: domain.ScopeAll},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(249), items[0].ID)
	assert.True(t, items[0].Unread)
}

func TestClient_UpdatedItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index.php/apps/news/api/v1-2/items/updated", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1700000000", q.Get("lastModified"))
		assert.Equal(t, "3", q.Get("type"))
		_, _ = w.Write([]byte(`{"items":[{"id":300,"feedId":7,"unread":false,"starred":true}]}`))
	})

	items, err := c.UpdatedItems(context.Background(), 1700000000, domain.Scope{Type: domain.ScopeAll})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Starred)
	assert.False(t, items[0].Unread)
}

func TestClient_MarkRead(t *testing.T) {
	var got itemIDsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/index.php/apps/news/api/v1-2/items/read/multiple", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := c.MarkRead(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got.Items)
}

func TestClient_MarkStarred(t *testing.T) {
	var got starRefsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/index.php/apps/news/api/v1-2/items/star/multiple", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := c.MarkStarred(context.Background(), []StarRef{{FeedID: 7, GUIDHash: "abc"}})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, StarRef{FeedID: 7, GUIDHash: "abc"}, got.Items[0])
}

func TestClient_EmptyPushSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, c.MarkRead(context.Background(), nil))
	require.NoError(t, c.MarkStarred(context.Background(), nil))
	assert.False(t, called, "empty pushes should not hit the network")
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad credentials"))
	})

	_, err := c.User(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad credentials", apiErr.Message)
}
