package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/service"
)

type Sweeper interface {
	Sweep(ctx context.Context) *service.SweepReport
}

// Scheduler runs the maintenance sweep on a fixed interval.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
}

func New(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{sweeper: sweeper, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. The first sweep happens one interval
// after start.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("maintenance scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			report := s.sweeper.Sweep(ctx)
			if !report.Success {
				s.logger.Warn("scheduled sweep finished with errors", zap.Strings("failures", report.Failures))
			}
		}
	}
}
