package ledger_test

import (
	"testing"
	"time"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/ledger"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/ledger/ledgertest"
)

func TestGlobalElapsedExcludesPause(t *testing.T) {
	clock := ledgertest.NewClock()
	l := ledger.New(clock)
	l.Start()

	clock.Advance(10 * time.Second)
	l.BeginPause()
	clock.Advance(30 * time.Second)
	if got := l.EndPause(); got != 30*time.Second {
		t.Fatalf("EndPause returned %v, want 30s", got)
	}
	clock.Advance(10 * time.Second)

	if got := l.GlobalElapsed(); got != 20*time.Second {
		t.Fatalf("GlobalElapsed = %v, want 20s", got)
	}
}

func TestGlobalElapsedWhilePaused(t *testing.T) {
	clock := ledgertest.NewClock()
	l := ledger.New(clock)
	l.Start()

	clock.Advance(5 * time.Second)
	l.BeginPause()
	clock.Advance(7 * time.Second)

	if got := l.GlobalElapsed(); got != 5*time.Second {
		t.Fatalf("GlobalElapsed during pause = %v, want 5s", got)
	}
}

func TestPauseTogglesAreGuarded(t *testing.T) {
	clock := ledgertest.NewClock()
	l := ledger.New(clock)
	l.Start()

	if d := l.EndPause(); d != 0 {
		t.Fatalf("EndPause while running = %v, want 0", d)
	}

	clock.Advance(2 * time.Second)
	l.BeginPause()
	clock.Advance(3 * time.Second)
	l.BeginPause() // second call must not move the pause start
	clock.Advance(4 * time.Second)
	l.EndPause()

	// 9s on the clock, 7s of it paused
	if got := l.GlobalElapsed(); got != 2*time.Second {
		t.Fatalf("GlobalElapsed = %v, want 2s", got)
	}
	if l.Paused() {
		t.Fatal("ledger still paused after EndPause")
	}
}

func TestNilAndUnstartedLedgerReportZero(t *testing.T) {
	var nilLedger *ledger.Ledger
	if got := nilLedger.GlobalElapsed(); got != 0 {
		t.Fatalf("nil ledger GlobalElapsed = %v", got)
	}
	nilLedger.BeginPause()
	nilLedger.EndPause()

	l := ledger.New(ledgertest.NewClock())
	if got := l.GlobalElapsed(); got != 0 {
		t.Fatalf("unstarted ledger GlobalElapsed = %v", got)
	}
}

func TestSceneStamp(t *testing.T) {
	clock := ledgertest.NewClock()
	l := ledger.New(clock)
	l.Start()
	clock.Advance(12 * time.Second)

	scene := l.NewScene()
	clock.Advance(1500 * time.Millisecond)

	local, global := scene.Stamp()
	if local != 1.5 {
		t.Errorf("local = %v, want 1.5", local)
	}
	if global != 13.5 {
		t.Errorf("global = %v, want 13.5", global)
	}
}
