package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checkpointer saves the in-progress session somewhere durable.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// Scheduler periodically checkpoints the running session so a crash loses
// at most one interval of data.
type Scheduler struct {
	log      *zap.Logger
	interval time.Duration
	target   Checkpointer
}

func NewScheduler(log *zap.Logger, interval time.Duration, target Checkpointer) *Scheduler {
	return &Scheduler{
		log:      log.Named("scheduler"),
		interval: interval,
		target:   target,
	}
}

// Run ticks until ctx is done. A non-positive interval disables it.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("Checkpoint scheduler disabled")
		<-ctx.Done()
		return nil
	}

	s.log.Info("Starting checkpoint scheduler...", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runCheckpoint(ctx)
		}
	}
}

// Start runs the scheduler in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}

func (s *Scheduler) runCheckpoint(ctx context.Context) {
	s.log.Debug("Running checkpoint")
	if err := s.target.Checkpoint(ctx); err != nil {
		s.log.Error("Failed to checkpoint session", zap.Error(err))
	}
}
