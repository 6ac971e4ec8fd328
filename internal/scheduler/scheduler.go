// Package scheduler runs scans on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Default schedules, in exchange time.
const (
	DefaultSchedule        = "0 18 * * MON-FRI"
	DefaultMorningSchedule = "0 9 * * MON-FRI"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating standard five-field cron expressions
// in loc. A nil loc means UTC.
func New(loc *time.Location, logger ...*zap.Logger) *Scheduler {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	l = l.With(zap.String("component", "scheduler"))
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{l.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler, cancels running jobs and waits for them.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	s.cancel()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// AddJob registers a job with a cron schedule, for example
// "0 18 * * MON-FRI" or "@every 30m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug("running job", zap.String("job", job.Name()))

		if err := job.Run(s.ctx); err != nil {
			s.logger.Error("job failed",
				zap.String("job", job.Name()),
				zap.Error(err),
			)
		} else {
			s.logger.Debug("job completed", zap.String("job", job.Name()))
		}
	})
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("scheduling %s: %w", job.Name(), err))
	}

	s.logger.Info("job registered",
		zap.String("schedule", schedule),
		zap.String("job", job.Name()),
	)
	return nil
}

// Next returns the next activation time of the earliest job, or the zero
// time when none is registered or the scheduler is not running.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if e.Next.IsZero() {
			continue
		}
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// Runner is the part of app.Scanner a scheduled scan needs.
type Runner interface {
	Run(ctx context.Context, req app.Request) (*core.ScanResult, error)
}

// ScanJob triggers a full-universe scan.
type ScanJob struct {
	runner  Runner
	timeout time.Duration
	logger  *zap.Logger
}

// NewScanJob creates a scheduled scan bounded by timeout.
func NewScanJob(runner Runner, timeout time.Duration, logger ...*zap.Logger) *ScanJob {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &ScanJob{runner: runner, timeout: timeout, logger: l}
}

func (j *ScanJob) Name() string { return "daily-scan" }

// Run starts the scan. A scan already in flight is not an error: the
// trigger is skipped.
func (j *ScanJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	_, err := j.runner.Run(ctx, app.Request{Trigger: core.TriggerSchedule})
	if errors.Is(err, core.ErrScanInProgress) {
		j.logger.Warn("scheduled scan skipped, another scan is running")
		return nil
	}
	return err
}

// MorningRunner is the part of app.Scanner the morning check needs.
type MorningRunner interface {
	RunMorning(ctx context.Context, trigger core.Trigger) (*core.MorningList, error)
}

// MorningJob re-checks the latest scan's picks before the open.
type MorningJob struct {
	runner  MorningRunner
	timeout time.Duration
	logger  *zap.Logger
}

// NewMorningJob creates a scheduled morning check bounded by timeout.
func NewMorningJob(runner MorningRunner, timeout time.Duration, logger ...*zap.Logger) *MorningJob {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &MorningJob{runner: runner, timeout: timeout, logger: l}
}

func (j *MorningJob) Name() string { return "morning-check" }

// Run starts the check. A busy scanner or a missing evening scan skips
// the trigger.
func (j *MorningJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	_, err := j.runner.RunMorning(ctx, core.TriggerSchedule)
	switch {
	case errors.Is(err, core.ErrScanInProgress):
		j.logger.Warn("morning check skipped, a scan is running")
		return nil
	case errors.Is(err, core.ErrNoScan):
		j.logger.Warn("morning check skipped, no scan to confirm")
		return nil
	}
	return err
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
