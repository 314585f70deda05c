// Package server exposes the local mirror over HTTP: read access to the
// cached entities, flag toggles, and sync triggering.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/newsmirror/newsmirror/pkg/domain"
	engine "github.com/newsmirror/newsmirror/pkg/sync"
)

// Server represents HTTP server instance
type Server struct {
	config  ConfigProvider
	store   Store
	syncer  Syncer
	version string
	debug   bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Store is the read side of the local mirror used by the handlers
type Store interface {
	GetFolders(ctx context.Context) ([]domain.Folder, error)
	GetFeeds(ctx context.Context) ([]domain.Feed, error)
	GetFeedsByFolder(ctx context.Context, folderID int64) ([]domain.Feed, error)
	GetItems(ctx context.Context, scope domain.Scope, sortField string, ascending bool) ([]domain.Item, error)
	CountItems(ctx context.Context) (int64, error)
	GetUser(ctx context.Context) (*domain.User, error)
	SyncCursor(ctx context.Context) (int64, error)
	PendingCounts(ctx context.Context) (unread, starred int, err error)
}

// Syncer triggers sync cycles and records local flag toggles
type Syncer interface {
	RequestSync(kind engine.Kind, scope domain.Scope, offset int64) error
	Status() (running bool, kind engine.Kind)
	PushPending() bool
	ToggleUnread(ctx context.Context, itemID int64, newValue bool) error
	ToggleStarred(ctx context.Context, itemID int64, newValue bool) error
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance
func New(cfg ConfigProvider, store Store, syncer Syncer, version string, debug bool) *Server {
	s := &Server{
		config:  cfg,
		store:   store,
		syncer:  syncer,
		version: version,
		debug:   debug,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newsmirror", "newsmirror", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("POST /sync", s.syncHandler)
		r.HandleFunc("GET /folders", s.foldersHandler)
		r.HandleFunc("GET /feeds", s.feedsHandler)
		r.HandleFunc("GET /items", s.itemsHandler)
		r.HandleFunc("PUT /items/{id}/read", s.markHandler(func(ctx context.Context, id int64) error {
			return s.syncer.ToggleUnread(ctx, id, false)
		}))
		r.HandleFunc("PUT /items/{id}/unread", s.markHandler(func(ctx context.Context, id int64) error {
			return s.syncer.ToggleUnread(ctx, id, true)
		}))
		r.HandleFunc("PUT /items/{id}/star", s.markHandler(func(ctx context.Context, id int64) error {
			return s.syncer.ToggleStarred(ctx, id, true)
		}))
		r.HandleFunc("PUT /items/{id}/unstar", s.markHandler(func(ctx context.Context, id int64) error {
			return s.syncer.ToggleStarred(ctx, id, false)
		}))
	})
}

// Router exposes the configured handler, used by tests
func (s *Server) Router() http.Handler { return s.router }

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
