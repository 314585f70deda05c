package sync

import (
	"sync"
	"time"
)

// Scheduler defers a ledger push by a fixed delay. At most one timer is
// outstanding: arming while armed is a no-op, so rapid toggles collapse
// into a single push.
type Scheduler struct {
	delay time.Duration
	fire  func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewScheduler creates a scheduler calling fire after delay once armed
func NewScheduler(delay time.Duration, fire func()) *Scheduler {
	return &Scheduler{delay: delay, fire: fire}
}

// Arm starts the timer unless one is already pending
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
		s.fire()
	})
}

// Disarm cancels the pending timer if any
func (s *Scheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Armed reports whether a push is pending
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
