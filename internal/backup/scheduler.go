package backup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler takes snapshots on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	keep   int
	logger *slog.Logger
}

// NewScheduler registers the snapshot job; it does not start it.
func NewScheduler(svc *Service, schedule string, keep int, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{cron: cron.New(), svc: svc, keep: keep, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("backup schedule %q: %w", schedule, err)
	}
	logger.Info("scheduled snapshots", slog.String("schedule", schedule), slog.Int("keep", keep))
	return s, nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if _, err := s.svc.Snapshot(ctx); err != nil {
		s.logger.Warn("scheduled snapshot failed", slog.Any("err", err))
		return
	}
	if err := s.svc.Prune(s.keep); err != nil {
		s.logger.Warn("snapshot prune failed", slog.Any("err", err))
	}
}

// Start starts the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("backup scheduler started")
}

// Stop stops the scheduler and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("backup scheduler stopped")
}
