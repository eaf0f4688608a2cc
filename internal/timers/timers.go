// Package timers provides screen-scoped timers that are cancelled together
// when the screen is left.
package timers

import (
	"sync"
	"time"
)

// Scope owns the pending timers of one screen. The zero value is not usable;
// use NewScope.
type Scope struct {
	mu     sync.Mutex
	closed bool
	timers map[*Timer]struct{}
}

// Timer is a handle to a pending callback.
type Timer struct {
	scope *Scope
	t     *time.Timer

	mu    sync.Mutex
	fired bool
	done  bool
}

func NewScope() *Scope {
	return &Scope{timers: make(map[*Timer]struct{})}
}

// After runs fn once after d unless the timer or its scope is cancelled
// first. After on a closed scope returns a timer that never fires.
func (s *Scope) After(d time.Duration, fn func()) *Timer {
	tm := &Timer{scope: s}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		tm.done = true
		return tm
	}
	s.timers[tm] = struct{}{}
	tm.t = time.AfterFunc(d, func() {
		if !tm.claim() {
			return
		}
		s.forget(tm)
		fn()
	})
	return tm
}

// claim marks the timer as fired. It fails if the timer was cancelled.
func (t *Timer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.fired = true
	return true
}

// Cancel stops the timer. It reports whether the callback was prevented.
func (t *Timer) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
	}
	if t.scope != nil {
		t.scope.forget(t)
	}
	return true
}

// Fired reports whether the callback has started.
func (t *Timer) Fired() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

func (s *Scope) forget(t *Timer) {
	s.mu.Lock()
	delete(s.timers, t)
	s.mu.Unlock()
}

// Pending counts timers that have neither fired nor been cancelled.
func (s *Scope) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels every pending timer and rejects new ones.
func (s *Scope) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed = true
	pending := make([]*Timer, 0, len(s.timers))
	for t := range s.timers {
		pending = append(pending, t)
	}
	s.mu.Unlock()

	for _, t := range pending {
		t.Cancel()
	}
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
