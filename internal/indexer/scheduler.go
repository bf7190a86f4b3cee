package indexer

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler triggers periodic full indexing runs. Results are logged, never
// surfaced: the scheduler keeps going on failure and the next tick tries
// again.
type Scheduler struct {
	indexer  *Indexer
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler that fires every interval. Intervals of
// zero or less fall back to once a day.
func NewScheduler(indexer *Indexer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		indexer:  indexer,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Run blocks until ctx is cancelled, launching one indexing run per tick.
// Runs are not allowed to overlap; a run that outlasts the interval simply
// delays the next one.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()

	summary, err := s.indexer.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled indexing run failed", "error", err)
		return
	}

	s.logger.Info("scheduled indexing run finished",
		"indexed", summary.Indexed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", time.Since(start),
	)
}
