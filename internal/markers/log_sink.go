package markers

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes every sample to the debug log.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("lsl")}
}

func (s *LogSink) Publish(_ context.Context, sample Sample) error {
	fields := []zap.Field{
		zap.String("stream", string(sample.Stream)),
		zap.Float64("ts", sample.Timestamp),
	}
	switch sample.Stream {
	case StreamMarkers:
		fields = append(fields, zap.String("marker", sample.Marker))
	case StreamRatings:
		fields = append(fields, zap.Any("rating", sample.Rating))
	case StreamBehavior:
		fields = append(fields, zap.String("event", sample.Event), zap.Any("payload", sample.Payload))
	}
	s.log.Debug("Sample sent", fields...)
	return nil
}

func (s *LogSink) Close() error { return nil }
