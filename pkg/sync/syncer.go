// Package sync orchestrates reconciliation between the local mirror and the
// remote aggregation service: full syncs with concurrent sub-fetches, ledger
// drains for locally toggled flags, and load-more pagination for older items.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/newsmirror/newsmirror/pkg/domain"
	"github.com/newsmirror/newsmirror/pkg/remote"
)

// ErrSyncRunning is returned when a sync request arrives while another one
// is in flight. Requests are rejected, not queued.
var ErrSyncRunning = errors.New("sync already running")

// Kind identifies a sync cycle flavor
type Kind int

// sync kinds
const (
	KindFull Kind = iota
	KindChanges
	KindLoadMore
)

func (k Kind) String() string {
	switch k {
	case KindFull:
		return "full"
	case KindChanges:
		return "changes"
	case KindLoadMore:
		return "more"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a string name to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "full", "":
		return KindFull, nil
	case "changes":
		return KindChanges, nil
	case "more":
		return KindLoadMore, nil
	}
	return 0, fmt.Errorf("unknown sync kind %q", s)
}

// EventType distinguishes sync lifecycle notifications
type EventType int

// event types
const (
	EventStarted EventType = iota
	EventFinished
)

// Event is emitted on the Events channel when a sync starts or finishes.
// Err is set only for failed EventFinished events.
type Event struct {
	Type EventType
	Kind Kind
	Err  error
}

// Store defines the persistence operations the syncer needs
type Store interface {
	SetUser(ctx context.Context, u domain.User) error
	UpsertItems(ctx context.Context, items []domain.Item) error
	ReconcileFolders(ctx context.Context, fresh []domain.Folder) error
	ReconcileFeeds(ctx context.Context, fresh []domain.Feed) error
	EvictExcess(ctx context.Context, maxItems int) (int64, error)
	RecomputeCounters(ctx context.Context) error
	SyncCursor(ctx context.Context) (int64, error)
	SetSyncCursor(ctx context.Context, ts int64) error
	LowestItemID(ctx context.Context) (int64, error)
	TempView(ctx context.Context) (scope domain.Scope, lowestItemID int64, err error)
	SetTempView(ctx context.Context, scope domain.Scope, lowestItemID int64) error
	ToggleUnread(ctx context.Context, itemID int64, newValue bool) error
	ToggleStarred(ctx context.Context, itemID int64, newValue bool) error
	PendingUnreadItems(ctx context.Context, wantUnread bool) ([]domain.Item, error)
	PendingStarredItems(ctx context.Context, wantStarred bool) ([]domain.Item, error)
	ClearPendingUnread(ctx context.Context, itemIDs []int64) error
	ClearPendingStarred(ctx context.Context, itemIDs []int64) error
	PendingCounts(ctx context.Context) (unread, starred int, err error)
}

// Client defines the remote service operations the syncer needs
type Client interface {
	User(ctx context.Context) (*domain.User, error)
	Folders(ctx context.Context) ([]domain.Folder, error)
	Feeds(ctx context.Context) ([]domain.Feed, error)
	Items(ctx context.Context, q remote.ItemsQuery) ([]domain.Item, error)
	UpdatedItems(ctx context.Context, lastModified int64, scope domain.Scope) ([]domain.Item, error)
	MarkRead(ctx context.Context, itemIDs []int64) error
	MarkUnread(ctx context.Context, itemIDs []int64) error
	MarkStarred(ctx context.Context, refs []remote.StarRef) error
	MarkUnstarred(ctx context.Context, refs []remote.StarRef) error
}

// Params defines syncer tuning knobs
type Params struct {
	BatchSize int           // items per paginated fetch, default 100
	MaxItems  int           // cache bound for eviction, default 10000
	PushDelay time.Duration // deferred push delay, default 5m
}

// Syncer is the sync state machine. One cycle runs at a time; concurrent
// requests fail with ErrSyncRunning. Flag toggles go through the syncer so
// the deferred push scheduler tracks the ledger, they never block on the
// network themselves.
type Syncer struct {
	store     Store
	client    Client
	scheduler *Scheduler
	sanitizer *bluemonday.Policy
	baseCtx   context.Context
	batchSize int
	maxItems  int

	mu      sync.Mutex
	running bool
	kind    Kind

	events chan Event
}

// NewSyncer creates a syncer with its deferred push scheduler. Background
// cycles started by RequestSync or the scheduler run under ctx, so
// cancelling it stops in-flight syncs on shutdown.
func NewSyncer(ctx context.Context, store Store, client Client, params Params) *Syncer {
	if params.BatchSize <= 0 {
		params.BatchSize = 100
	}
	if params.MaxItems <= 0 {
		params.MaxItems = 10000
	}
	if params.PushDelay <= 0 {
		params.PushDelay = 5 * time.Minute
	}

	s := &Syncer{
		store:     store,
		client:    client,
		sanitizer: bluemonday.UGCPolicy(),
		baseCtx:   ctx,
		batchSize: params.BatchSize,
		maxItems:  params.MaxItems,
		events:    make(chan Event, 16),
	}
	s.scheduler = NewScheduler(params.PushDelay, func() {
		if err := s.RequestSync(KindChanges, domain.Scope{}, 0); err != nil {
			lgr.Printf("[WARN] scheduled push skipped: %v", err)
		}
	})
	return s
}

// Events returns the notification channel. Events are dropped, not blocked
// on, when no one reads them.
func (s *Syncer) Events() <-chan Event { return s.events }

// Status reports whether a sync is in flight and of which kind
func (s *Syncer) Status() (running bool, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.kind
}

// PushPending reports whether a deferred ledger push is scheduled
func (s *Syncer) PushPending() bool { return s.scheduler.Armed() }

// RequestSync starts a sync in the background. The state check is
// synchronous, so a rejection surfaces immediately; the outcome of an
// accepted request arrives as a Finished event.
func (s *Syncer) RequestSync(kind Kind, scope domain.Scope, offset int64) error {
	if err := s.begin(kind); err != nil {
		return err
	}
	go func() {
		_ = s.execute(s.baseCtx, kind, scope, offset)
	}()
	return nil
}

// Sync runs a sync cycle and waits for it
func (s *Syncer) Sync(ctx context.Context, kind Kind, scope domain.Scope, offset int64) error {
	if err := s.begin(kind); err != nil {
		return err
	}
	return s.execute(ctx, kind, scope, offset)
}

// ToggleUnread flips an item's unread flag locally and adjusts the push
// scheduler from the resulting ledger size
func (s *Syncer) ToggleUnread(ctx context.Context, itemID int64, newValue bool) error {
	if err := s.store.ToggleUnread(ctx, itemID, newValue); err != nil {
		return err
	}
	return s.updateScheduler(ctx)
}

// ToggleStarred flips an item's starred flag locally, see ToggleUnread
func (s *Syncer) ToggleStarred(ctx context.Context, itemID int64, newValue bool) error {
	if err := s.store.ToggleStarred(ctx, itemID, newValue); err != nil {
		return err
	}
	return s.updateScheduler(ctx)
}

// Close stops the scheduler timer
func (s *Syncer) Close() { s.scheduler.Disarm() }

func (s *Syncer) begin(kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("%w: %s in flight", ErrSyncRunning, s.kind)
	}
	s.running = true
	s.kind = kind
	return nil
}

func (s *Syncer) execute(ctx context.Context, kind Kind, scope domain.Scope, offset int64) error {
	s.emit(Event{Type: EventStarted, Kind: kind})
	lgr.Printf("[INFO] sync started, kind %s", kind)

	var err error
	switch kind {
	case KindFull:
		err = s.fullSync(ctx)
	case KindChanges:
		err = s.drainLedger(ctx)
	case KindLoadMore:
		err = s.loadMore(ctx, scope, offset)
	default:
		err = fmt.Errorf("unknown sync kind %d", int(kind))
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil {
		lgr.Printf("[WARN] sync %s failed: %v", kind, err)
	} else {
		lgr.Printf("[INFO] sync %s completed", kind)
	}
	s.emit(Event{Type: EventFinished, Kind: kind, Err: err})
	return err
}

// fullSync drains the ledger, runs the four concurrent sub-fetches, and on
// complete success reconciles, evicts, recounts and advances the cursor.
// A failed drain aborts the cycle: fetching deltas with unpushed local
// toggles would overwrite the user's intent.
func (s *Syncer) fullSync(ctx context.Context) error {
	if err := s.drainLedger(ctx); err != nil {
		return fmt.Errorf("push local changes: %w", err)
	}

	cursor, err := s.store.SyncCursor(ctx)
	if err != nil {
		return err
	}
	started := time.Now()

	var freshFolders []domain.Folder
	var freshFeeds []domain.Feed

	// plain group, not WithContext: a failed sub-fetch must not cancel its
	// siblings, the barrier waits for all four either way
	var g errgroup.Group
	g.Go(s.subFetch("user", func() error {
		u, e := s.client.User(ctx)
		if e != nil {
			return e
		}
		return s.store.SetUser(ctx, *u)
	}))
	g.Go(s.subFetch("folders", func() error {
		folders, e := s.client.Folders(ctx)
		if e != nil {
			return e
		}
		freshFolders = folders
		return nil
	}))
	g.Go(s.subFetch("feeds", func() error {
		feeds, e := s.client.Feeds(ctx)
		if e != nil {
			return e
		}
		freshFeeds = feeds
		return nil
	}))
	g.Go(s.subFetch("items", func() error { return s.fetchItems(ctx, cursor) }))

	// any sub-fetch failure skips post-processing and keeps the cursor, so
	// the next full sync re-fetches the same window
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sync fetch: %w", err)
	}

	if err := s.store.ReconcileFolders(ctx, freshFolders); err != nil {
		return fmt.Errorf("reconcile folders: %w", err)
	}
	if err := s.store.ReconcileFeeds(ctx, freshFeeds); err != nil {
		return fmt.Errorf("reconcile feeds: %w", err)
	}
	deleted, err := s.store.EvictExcess(ctx, s.maxItems)
	if err != nil {
		return fmt.Errorf("evict items: %w", err)
	}
	if deleted > 0 {
		lgr.Printf("[INFO] evicted %d cached items", deleted)
	}
	if err := s.store.RecomputeCounters(ctx); err != nil {
		return fmt.Errorf("recompute counters: %w", err)
	}
	if err := s.store.SetSyncCursor(ctx, started.Unix()); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}

func (s *Syncer) subFetch(name string, fn func() error) func() error {
	return func() error {
		if err := fn(); err != nil {
			lgr.Printf("[WARN] %s fetch failed: %v", name, err)
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

// fetchItems pulls items from the server. The very first sync pages unread
// items newest-first, the next offset is the lowest id seen so far, and a
// short batch ends the loop; starred items come in one extra unbounded
// fetch. Later syncs use a single delta call against the cursor.
func (s *Syncer) fetchItems(ctx context.Context, cursor int64) error {
	if cursor > 0 {
		items, err := s.client.UpdatedItems(ctx, cursor, domain.Scope{Type: domain.ScopeAll})
		if err != nil {
			return err
		}
		return s.storeItems(ctx, items)
	}

	offset := int64(0)
	for {
		batch, err := s.client.Items(ctx, remote.ItemsQuery{
			BatchSize: s.batchSize,
			Offset:    offset,
			Scope:     domain.Scope{Type: domain.ScopeAll},
		})
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := s.storeItems(ctx, batch); err != nil {
				return err
			}
			offset = lowestID(batch)
		}
		if len(batch) < s.batchSize {
			break
		}
	}

	// batch size -1 means "everything", the starred set is small
	starred, err := s.client.Items(ctx, remote.ItemsQuery{
		BatchSize: -1,
		Scope:     domain.Scope{Type: domain.ScopeStarred},
		GetRead:   true,
	})
	if err != nil {
		return err
	}
	return s.storeItems(ctx, starred)
}

// loadMore fetches one page of older items for a scope, read ones included,
// and records the new lowest id in the view cursor. The ledger is drained
// first: the fetched page may contain locally toggled items, and upserting
// them before the push would overwrite the user's intent with server state.
// Offset 0 resumes from the stored cursor when the scope matches, otherwise
// from the lowest cached item id.
func (s *Syncer) loadMore(ctx context.Context, scope domain.Scope, offset int64) error {
	if err := s.drainLedger(ctx); err != nil {
		return fmt.Errorf("push local changes: %w", err)
	}

	if offset == 0 {
		viewScope, lowest, err := s.store.TempView(ctx)
		if err != nil {
			return err
		}
		if viewScope == scope {
			offset = lowest
		} else if offset, err = s.store.LowestItemID(ctx); err != nil {
			return err
		}
	}

	batch, err := s.client.Items(ctx, remote.ItemsQuery{
		BatchSize: s.batchSize,
		Offset:    offset,
		Scope:     scope,
		GetRead:   true,
	})
	if err != nil {
		return fmt.Errorf("fetch more items: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}
	if err := s.storeItems(ctx, batch); err != nil {
		return err
	}
	return s.store.SetTempView(ctx, scope, lowestID(batch))
}

// storeItems sanitizes article bodies and upserts the batch
func (s *Syncer) storeItems(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].Body = s.sanitizer.Sanitize(items[i].Body)
	}
	if err := s.store.UpsertItems(ctx, items); err != nil {
		return fmt.Errorf("store items: %w", err)
	}
	return nil
}

func (s *Syncer) updateScheduler(ctx context.Context) error {
	unread, starred, err := s.store.PendingCounts(ctx)
	if err != nil {
		return fmt.Errorf("pending counts: %w", err)
	}
	if unread+starred > 0 {
		s.scheduler.Arm()
	} else {
		s.scheduler.Disarm()
	}
	return nil
}

func (s *Syncer) emit(e Event) {
	select {
	case s.events <- e:
	default: // nobody listening, drop
	}
}

func lowestID(items []domain.Item) int64 {
	low := items[0].ID
	for _, it := range items[1:] {
		if it.ID < low {
			low = it.ID
		}
	}
	return low
}
