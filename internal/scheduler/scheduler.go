// Package scheduler runs the notification job periodically.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Runner is satisfied by *job.Job.
type Runner interface {
	Run(ctx context.Context) error
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler that runs runner every interval, each run bounded
// by timeout. A failed run is logged and retried on the next tick.
func New(runner Runner, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With(zap.String("component", "scheduler")),
	}
}

// Start schedules the job and starts the underlying scheduler. The first run
// happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.interval = time.Hour
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.runOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		s.logger.Info("Scheduler stopped")
	}
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	if err := s.runner.Run(ctx); err != nil {
		s.logger.Warn("Scheduled run failed",
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled run completed", zap.Duration("elapsed", time.Since(started)))
}
