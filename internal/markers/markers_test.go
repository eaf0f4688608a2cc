package markers_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers/markerstest"
)

type failingSink struct{}

func (failingSink) Publish(context.Context, markers.Sample) error { return errors.New("unreachable") }
func (failingSink) Close() error                                  { return errors.New("close failed") }

func TestOutletFansOutToEverySink(t *testing.T) {
	a, b := &markerstest.Recorder{}, &markerstest.Recorder{}
	out := markers.NewOutlet(zaptest.NewLogger(t), a, b)

	out.Marker("ARTICLE_READ_START_T01A")
	out.Rating(markers.Rating{Phase: 1, ItemID: "S01", Rating: 4, ReactionTime: 1.2})
	out.Behavior("ArticleScroll", map[string]any{"scrollDepth": 0.4})

	for name, r := range map[string]*markerstest.Recorder{"a": a, "b": b} {
		samples := r.Samples()
		if len(samples) != 3 {
			t.Fatalf("%s: got %d samples, want 3", name, len(samples))
		}
		if samples[0].Marker != "ARTICLE_READ_START_T01A" || samples[0].Timestamp == 0 {
			t.Errorf("%s: bad marker sample %+v", name, samples[0])
		}
		if samples[1].Rating == nil || samples[1].Rating.Rating != 4 {
			t.Errorf("%s: bad rating sample %+v", name, samples[1])
		}
		if samples[2].Event != "ArticleScroll" {
			t.Errorf("%s: bad behaviour sample %+v", name, samples[2])
		}
	}
}

func TestOutletSwallowsSinkErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &markerstest.Recorder{}
	out := markers.NewOutlet(zap.New(core), failingSink{}, rec)

	out.Marker("X")
	out.Close()

	if got := logs.FilterMessage("Failed to publish marker sample").Len(); got != 2 {
		t.Errorf("publish warnings = %d, want 2", got)
	}
	if got := logs.FilterMessage("Failed to close marker sink").Len(); got != 1 {
		t.Errorf("close warnings = %d, want 1", got)
	}
	if m := rec.Markers(); len(m) != 2 || m[1] != markers.MarkerExperimentEnd {
		t.Errorf("markers = %v", m)
	}
	if !rec.Closed() {
		t.Error("recorder not closed")
	}
}

func TestNilOutletIsNoop(t *testing.T) {
	var out *markers.Outlet
	out.Marker("X")
	out.Rating(markers.Rating{})
	out.Behavior("Y", nil)
	out.Close()
}

func TestHubDropsWhenConsumerIsSlow(t *testing.T) {
	hub := markers.NewHub(zaptest.NewLogger(t), 1)
	c := hub.Subscribe()

	for i := 0; i < 3; i++ {
		if err := hub.Publish(context.Background(), markers.Sample{Marker: "M"}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if got := len(c.Outbound); got != 1 {
		t.Fatalf("buffered = %d, want 1", got)
	}

	hub.Unsubscribe(c)
	hub.Unsubscribe(c)
	if hub.Clients() != 0 {
		t.Fatal("client still registered")
	}
}

func TestHubCloseDisconnectsConsumers(t *testing.T) {
	hub := markers.NewHub(zaptest.NewLogger(t), 4)
	c := hub.Subscribe()
	if err := hub.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-c.Outbound; ok {
		t.Fatal("outbound channel still open")
	}
	if err := hub.Publish(context.Background(), markers.Sample{}); !errors.Is(err, markers.ErrClosed) {
		t.Fatalf("Publish after close = %v, want ErrClosed", err)
	}
	if hub.Subscribe() != nil {
		t.Fatal("Subscribe after close returned a client")
	}
	hub.Unsubscribe(c)
}

func TestRedisSinkPublishes(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis sink tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink, err := markers.NewRedisSink(ctx, zaptest.NewLogger(t), addr, "markers_test", 8)
	if err != nil {
		t.Fatalf("NewRedisSink: %v", err)
	}
	if err := sink.Publish(ctx, markers.Sample{Stream: markers.StreamMarkers, Marker: "X"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Publish(ctx, markers.Sample{}); !errors.Is(err, markers.ErrClosed) {
		t.Fatalf("Publish after close = %v, want ErrClosed", err)
	}
}
