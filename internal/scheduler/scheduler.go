// Package scheduler re-runs forecast generation on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled forecast run. The firing time is passed so the job can
// derive the run date from it.
type Job func(ctx context.Context, firedAt time.Time)

// Scheduler fires a job on a cron expression, never overlapping runs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	expr      string
	job       Job
	logger    *slog.Logger
	entry     *gocron.Job
}

// New creates a scheduler for a standard five-field cron expression evaluated in UTC.
func New(expr string, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		expr:      expr,
		job:       job,
		logger:    logger,
	}
}

// Start registers the job and starts the underlying scheduler. Runs receive ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	entry, err := s.scheduler.Cron(s.expr).Do(func() {
		firedAt := time.Now().UTC()
		s.logger.Info("scheduler: running forecast job", "schedule", s.expr)
		s.job(ctx, firedAt)
		s.logger.Info("scheduler: completed forecast job",
			"duration", time.Since(firedAt).Round(time.Millisecond).String(),
		)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.expr, err)
	}
	s.entry = entry

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "schedule", s.expr, "next_run", s.NextRun())
	return nil
}

// NextRun returns the next firing time, or the zero time before Start.
func (s *Scheduler) NextRun() time.Time {
	if s.entry == nil {
		return time.Time{}
	}
	return s.entry.NextRun()
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
