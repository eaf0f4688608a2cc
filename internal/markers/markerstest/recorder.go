// Package markerstest provides an in-memory marker sink for tests.
package markerstest

import (
	"context"
	"strings"
	"sync"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
)

// Recorder keeps every published sample.
type Recorder struct {
	mu      sync.Mutex
	samples []markers.Sample
	closed  bool
}

func (r *Recorder) Publish(_ context.Context, s markers.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Samples() []markers.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]markers.Sample(nil), r.samples...)
}

// Markers returns the text of every string marker in order.
func (r *Recorder) Markers() []string {
	var out []string
	for _, s := range r.Samples() {
		if s.Stream == markers.StreamMarkers {
			out = append(out, s.Marker)
		}
	}
	return out
}

// HasMarkerPrefix reports whether any marker starts with prefix.
func (r *Recorder) HasMarkerPrefix(prefix string) bool {
	for _, m := range r.Markers() {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

// Stream returns the samples of one stream in order.
func (r *Recorder) Stream(stream markers.Stream) []markers.Sample {
	var out []markers.Sample
	for _, s := range r.Samples() {
		if s.Stream == stream {
			out = append(out, s)
		}
	}
	return out
}
