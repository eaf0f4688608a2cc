package ledger

import (
	"time"
)

// Clock is the wall-clock source used by the ledger.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Ledger tracks experiment-global elapsed time with rest breaks excised.
// A nil or unstarted Ledger reports zero for every reading.
type Ledger struct {
	clock      Clock
	start      time.Time
	started    bool
	paused     bool
	pauseStart time.Time
	excluded   time.Duration
}

func New(clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Ledger{clock: clock}
}

// Start captures the wall-clock reference and clears pause accounting.
func (l *Ledger) Start() {
	if l == nil {
		return
	}
	l.start = l.clock.Now()
	l.started = true
	l.paused = false
	l.excluded = 0
}

func (l *Ledger) Started() bool {
	return l != nil && l.started
}

// StartTime is the wall-clock time captured by Start.
func (l *Ledger) StartTime() time.Time {
	if l == nil {
		return time.Time{}
	}
	return l.start
}

func (l *Ledger) Now() time.Time {
	if l == nil || l.clock == nil {
		return time.Now()
	}
	return l.clock.Now()
}

// GlobalElapsed is now - start - paused time, including a pause still in progress.
func (l *Ledger) GlobalElapsed() time.Duration {
	if !l.Started() {
		return 0
	}
	now := l.clock.Now()
	excluded := l.excluded
	if l.paused {
		excluded += now.Sub(l.pauseStart)
	}
	elapsed := now.Sub(l.start) - excluded
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// BeginPause is a no-op when already paused.
func (l *Ledger) BeginPause() {
	if l == nil || l.paused {
		return
	}
	l.pauseStart = l.clock.Now()
	l.paused = true
}

// EndPause is a no-op when not paused.
func (l *Ledger) EndPause() time.Duration {
	if l == nil || !l.paused {
		return 0
	}
	d := l.clock.Now().Sub(l.pauseStart)
	l.excluded += d
	l.paused = false
	return d
}

func (l *Ledger) Paused() bool {
	return l != nil && l.paused
}

// Scene measures time since a screen was entered.
type Scene struct {
	ledger *Ledger
	start  time.Time
}

// NewScene starts a scene-local clock. It is safe on a nil Ledger.
func (l *Ledger) NewScene() *Scene {
	return &Scene{ledger: l, start: l.Now()}
}

func (s *Scene) Elapsed() time.Duration {
	if s == nil {
		return 0
	}
	return s.ledger.Now().Sub(s.start)
}

// Stamp returns (local, global) elapsed seconds.
func (s *Scene) Stamp() (float64, float64) {
	if s == nil {
		return 0, 0
	}
	return s.Elapsed().Seconds(), s.ledger.GlobalElapsed().Seconds()
}
