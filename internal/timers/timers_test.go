package timers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	s := NewScope()
	var calls atomic.Int32
	done := make(chan struct{})
	tm := s.After(5*time.Millisecond, func() {
		calls.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if tm.Cancel() {
		t.Error("Cancel after firing reported success")
	}
	if !tm.Fired() || calls.Load() != 1 {
		t.Errorf("fired=%v calls=%d", tm.Fired(), calls.Load())
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d", s.Pending())
	}
}

func TestCancelPreventsCallback(t *testing.T) {
	s := NewScope()
	var calls atomic.Int32
	tm := s.After(20*time.Millisecond, func() { calls.Add(1) })
	if !tm.Cancel() {
		t.Fatal("Cancel of pending timer failed")
	}
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("cancelled timer fired")
	}
}

func TestCloseCancelsEverything(t *testing.T) {
	s := NewScope()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		s.After(20*time.Millisecond, func() { calls.Add(1) })
	}
	if s.Pending() != 3 {
		t.Fatalf("pending = %d", s.Pending())
	}
	s.Close()
	late := s.After(time.Millisecond, func() { calls.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("%d callbacks ran after Close", calls.Load())
	}
	if late.Fired() || !s.Closed() {
		t.Error("timer created on closed scope fired")
	}
}

func TestNilTimerAndScope(t *testing.T) {
	var tm *Timer
	if tm.Cancel() || tm.Fired() {
		t.Error("nil timer reported state")
	}
	var s *Scope
	s.Close()
}
