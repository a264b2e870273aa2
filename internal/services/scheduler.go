package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is a periodic job. It receives a context bounded by the job
// interval so a slow run cannot pile up behind the next one.
type JobFunc func(ctx context.Context) error

// Scheduler runs the service's periodic jobs on a cron scheduler.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		logger: logger,
	}
}

// Every registers fn to run at the given interval. Intervals are rounded
// to whole seconds, with a one second minimum.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) error {
	seconds := int(interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	timeout := time.Duration(seconds) * time.Second
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.logger.Info("job scheduled", zap.String("job", name), zap.Duration("interval", timeout))
	return nil
}

// Start launches the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("scheduler stopped")
}

// DashboardRefresher reloads the due-today queries.
type DashboardRefresher interface {
	Refresh(ctx context.Context) error
}

// JournalPruner drops journal entries older than a cutoff.
type JournalPruner interface {
	Cleanup(olderThan time.Time) (int, error)
}

// PruneJournal returns a job removing entries older than retention.
func PruneJournal(journal JournalPruner, retention time.Duration, logger *zap.Logger) JobFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) error {
		removed, err := journal.Cleanup(time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("pruned broadcast failure journal", zap.Int("removed", removed))
		}
		return nil
	}
}

// RefreshDashboard returns a job reloading the due-today queries.
func RefreshDashboard(dashboard DashboardRefresher) JobFunc {
	return dashboard.Refresh
}
