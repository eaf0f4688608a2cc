// Package markers streams event markers, rating records and behavioural
// events to the external physiological-recording side. Delivery is
// best-effort: failures are logged and never reach the caller.
package markers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Stream names the outlet a sample belongs to.
type Stream string

const (
	StreamMarkers  Stream = "markers"
	StreamRatings  Stream = "ratings"
	StreamBehavior Stream = "behavior"
)

// Markers sent by the outlet itself.
const (
	MarkerStreamsInitialized = "STREAMS_INITIALIZED"
	MarkerExperimentEnd      = "EXPERIMENT_END"
)

// ErrDropped is returned by sinks whose buffer is full.
var ErrDropped = errors.New("markers: sample dropped, buffer full")

// ErrClosed is returned by sinks after Close.
var ErrClosed = errors.New("markers: sink closed")

// Rating is a structured rating record.
type Rating struct {
	Phase            int      `json:"phase"`
	ItemID           string   `json:"itemId"`
	Rating           int      `json:"rating"`
	ReactionTime     float64  `json:"reactionTime"`
	ScrollDepth      *float64 `json:"scrollDepth,omitempty"`
	AttentionCheck   string   `json:"attentionCheck,omitempty"`
	AttentionCheckRT *float64 `json:"attentionCheckRT,omitempty"`
}

// Sample is the unit delivered to a sink. Timestamp is unix seconds.
type Sample struct {
	Stream    Stream         `json:"stream"`
	Timestamp float64        `json:"timestamp"`
	Marker    string         `json:"marker,omitempty"`
	Rating    *Rating        `json:"rating,omitempty"`
	Event     string         `json:"event,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Sink is a transport for samples. Publish must not block for long.
type Sink interface {
	Publish(ctx context.Context, s Sample) error
	Close() error
}

// Noop discards everything.
type Noop struct{}

func (Noop) Publish(context.Context, Sample) error { return nil }
func (Noop) Close() error                          { return nil }

// Outlet is the fire-and-forget facade used by the experiment. It fans each
// sample out to every sink and swallows their errors after logging them.
// A nil Outlet is a no-op.
type Outlet struct {
	log   *zap.Logger
	sinks []Sink
	now   func() time.Time
}

func NewOutlet(log *zap.Logger, sinks ...Sink) *Outlet {
	if log == nil {
		log = zap.NewNop()
	}
	if len(sinks) == 0 {
		sinks = []Sink{Noop{}}
	}
	return &Outlet{log: log.Named("markers"), sinks: sinks, now: time.Now}
}

// Open announces the streams to the recorder.
func (o *Outlet) Open() {
	o.Marker(MarkerStreamsInitialized)
}

func (o *Outlet) Marker(text string) {
	o.publish(Sample{Stream: StreamMarkers, Marker: text})
}

func (o *Outlet) Rating(r Rating) {
	o.publish(Sample{Stream: StreamRatings, Rating: &r})
}

func (o *Outlet) Behavior(event string, payload map[string]any) {
	o.publish(Sample{Stream: StreamBehavior, Event: event, Payload: payload})
}

// Close sends the end marker and closes every sink.
func (o *Outlet) Close() {
	if o == nil {
		return
	}
	o.Marker(MarkerExperimentEnd)
	for _, s := range o.sinks {
		if err := s.Close(); err != nil {
			o.log.Warn("Failed to close marker sink", zap.Error(err))
		}
	}
}

func (o *Outlet) publish(s Sample) {
	if o == nil {
		return
	}
	s.Timestamp = float64(o.now().UnixNano()) / 1e9
	for _, sink := range o.sinks {
		if err := sink.Publish(context.Background(), s); err != nil {
			o.log.Warn("Failed to publish marker sample",
				zap.String("stream", string(s.Stream)),
				zap.String("marker", s.Marker),
				zap.String("event", s.Event),
				zap.Error(err),
			)
		}
	}
}
