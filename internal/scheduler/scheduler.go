package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"streaming_watcher/internal/domain"
	"streaming_watcher/internal/service"
)

// Notifier defines the interface for notification runs.
type Notifier interface {
	Run(ctx context.Context) (*domain.NotifyStats, error)
}

// Scheduler triggers notification runs on a fixed interval. The gate
// check inside the run decides whether a tick actually does anything,
// so a short interval is safe.
type Scheduler struct {
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(notifier Notifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runNotify(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runNotify(ctx)
		}
	}
}

func (s *Scheduler) runNotify(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if _, err := s.notifier.Run(runCtx); err != nil {
		if errors.Is(err, service.ErrNotEligible) {
			s.logger.Debug("run skipped", "reason", err)
			return
		}
		s.logger.Error("notify run failed", "error", err)
	}
}
