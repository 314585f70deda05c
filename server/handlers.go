package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newsmirror/newsmirror/pkg/domain"
	engine "github.com/newsmirror/newsmirror/pkg/sync"
)

// statusHandler returns engine and ledger state
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	running, kind := s.syncer.Status()
	cursor, err := s.store.SyncCursor(ctx)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	pendingUnread, pendingStarred, err := s.store.PendingCounts(ctx)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	cachedItems, err := s.store.CountItems(ctx)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	user, err := s.store.GetUser(ctx)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	status := map[string]interface{}{
		"status":          "ok",
		"version":         s.version,
		"time":            time.Now().UTC(),
		"sync_running":    running,
		"last_sync":       cursor,
		"cached_items":    cachedItems,
		"pending_unread":  pendingUnread,
		"pending_starred": pendingStarred,
		"push_pending":    s.syncer.PushPending(),
	}
	if running {
		status["sync_kind"] = kind.String()
	}
	if user != nil {
		status["user"] = user
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// syncHandler triggers a sync cycle, kind=full|changes|more. Load-more takes
// scope, id and offset query parameters. A cycle already in flight is a
// conflict, the caller retries later.
func (s *Server) syncHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := engine.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	scope, err := parseScope(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	var offset int64
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err = strconv.ParseInt(v, 10, 64); err != nil {
			RenderError(w, r, fmt.Errorf("invalid offset %q", v), http.StatusBadRequest)
			return
		}
	}

	if err := s.syncer.RequestSync(kind, scope, offset); err != nil {
		if errors.Is(err, engine.ErrSyncRunning) {
			RenderError(w, r, err, http.StatusConflict)
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusAccepted, map[string]string{"result": "accepted", "kind": kind.String()})
}

func (s *Server) foldersHandler(w http.ResponseWriter, r *http.Request) {
	folders, err := s.store.GetFolders(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, folders)
}

// feedsHandler lists feeds, optionally restricted to one folder
func (s *Server) feedsHandler(w http.ResponseWriter, r *http.Request) {
	var feeds []domain.Feed
	var err error

	if v := r.URL.Query().Get("folder"); v != "" {
		folderID, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			RenderError(w, r, fmt.Errorf("invalid folder id %q", v), http.StatusBadRequest)
			return
		}
		feeds, err = s.store.GetFeedsByFolder(r.Context(), folderID)
	} else {
		feeds, err = s.store.GetFeeds(r.Context())
	}
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, feeds)
}

// itemsHandler lists items for a scope, newest first by default
func (s *Server) itemsHandler(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	sortField := r.URL.Query().Get("sort")
	ascending := r.URL.Query().Get("order") == "asc"

	items, err := s.store.GetItems(r.Context(), scope, sortField, ascending)
	if err != nil {
		if strings.Contains(err.Error(), "unsupported") {
			RenderError(w, r, err, http.StatusBadRequest)
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, items)
}

// markHandler adapts a flag toggle to an HTTP handler
func (s *Server) markHandler(toggle func(ctx context.Context, itemID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			RenderError(w, r, fmt.Errorf("invalid item id %q", r.PathValue("id")), http.StatusBadRequest)
			return
		}

		if err := toggle(r.Context(), id); err != nil {
			if strings.Contains(err.Error(), "not found") {
				RenderError(w, r, err, http.StatusNotFound)
				return
			}
			RenderError(w, r, err, http.StatusInternalServerError)
			return
		}
		RenderJSON(w, r, http.StatusOK, map[string]string{"result": "ok"})
	}
}

func parseScope(r *http.Request) (domain.Scope, error) {
	scopeType, err := domain.ParseScopeType(r.URL.Query().Get("scope"))
	if err != nil {
		return domain.Scope{}, err
	}

	var scopeID int64
	if v := r.URL.Query().Get("id"); v != "" {
		if scopeID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return domain.Scope{}, fmt.Errorf("invalid scope id %q", v)
		}
	}
	return domain.Scope{Type: scopeType, ID: scopeID}, nil
}
