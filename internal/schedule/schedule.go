// Package schedule runs jobs at wall-clock times, using cron expressions evaluated in a configured time zone.
package schedule

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"log/slog"
	"time"
)

// A Job is a scheduled task. The context is cancelled when the scheduler shuts down.
type Job func(ctx context.Context)

// Scheduler runs Jobs according to their cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New returns a Scheduler evaluating schedules in location. If location is nil, time.Local is used.
func New(location *time.Location, logger *slog.Logger) *Scheduler {
	if location == nil {
		location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := cronLogger{logger: logger}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location), cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		location: location,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Add schedules a job. spec is a standard 5-field cron expression, e.g. "32 9 * * *" for every day at 09:32.
func (s *Scheduler) Add(spec string, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		logger := s.logger.With("job", name, "run", uuid.NewString())
		logger.Info("running job")
		start := time.Now()
		job(s.ctx)
		logger.Info("job done", "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", name, err)
	}
	return nil
}

// Next returns the next time any job is due. It returns the zero time if no jobs are scheduled.
func (s *Scheduler) Next(now time.Time) time.Time {
	var next time.Time
	for _, entry := range s.cron.Entries() {
		t := entry.Schedule.Next(now.In(s.location))
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// Run starts the scheduler and blocks until ctx is cancelled. It then waits for running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "location", s.location.String(), "next", s.Next(time.Now()))
	s.cron.Start()
	<-ctx.Done()
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

var _ cron.Logger = cronLogger{}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
