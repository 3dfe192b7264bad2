// Package jobs runs periodic maintenance work on a cron schedule.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/logging"
)

// ErrNoSchedule is returned when a projector is built without a cron spec.
var ErrNoSchedule = errors.New("jobs: projection schedule is empty")

type projectionService interface {
	ProjectAll(ctx context.Context, horizonDays int) (application.ProjectionReport, error)
}

// ProjectorConfig configures the projection job.
type ProjectorConfig struct {
	// Schedule is a standard five-field cron spec or a descriptor such as @daily.
	Schedule    string
	HorizonDays int
	Location    *time.Location
	// Timeout bounds a single run; zero means no bound.
	Timeout time.Duration
}

// Projector projects every recurring template ahead on a schedule. A run
// that is still in progress when the next tick fires causes that tick to be
// skipped. Failed runs are logged and left for the next tick.
type Projector struct {
	cron     *cron.Cron
	schedule cron.Schedule
	service  projectionService
	horizon  int
	location *time.Location
	timeout  time.Duration
	logger   *slog.Logger
}

// NewProjector parses cfg.Schedule and registers the projection run. It
// returns ErrNoSchedule for an empty schedule and does not start firing
// until Start is called.
func NewProjector(service projectionService, cfg ProjectorConfig, logger *slog.Logger) (*Projector, error) {
	if service == nil {
		return nil, errors.New("jobs: projection service is required")
	}
	if cfg.Schedule == "" {
		return nil, ErrNoSchedule
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("jobs: horizon must be positive, got %d", cfg.HorizonDays)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("job", "projection")

	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("jobs: parse schedule %q: %w", cfg.Schedule, err)
	}

	cronLogger := slogCronLogger{logger: logger}
	p := &Projector{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		schedule: schedule,
		service:  service,
		horizon:  cfg.HorizonDays,
		location: cfg.Location,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
	p.cron.Schedule(schedule, cron.FuncJob(func() {
		_, _ = p.RunOnce(context.Background())
	}))
	return p, nil
}

// Start begins firing on the schedule in the background.
func (p *Projector) Start() {
	p.cron.Start()
	p.logger.Info("projection job started", "next_run", p.Next(time.Now()))
}

// Stop halts the schedule and waits for a running projection until ctx ends.
func (p *Projector) Stop(ctx context.Context) error {
	done := p.cron.Stop()
	select {
	case <-done.Done():
		p.logger.Info("projection job stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs: waiting for projection run: %w", ctx.Err())
	}
}

// Next returns the first scheduled run after t in the configured location.
func (p *Projector) Next(t time.Time) time.Time {
	return p.schedule.Next(t.In(p.location))
}

// RunOnce performs a single projection run.
func (p *Projector) RunOnce(ctx context.Context) (application.ProjectionReport, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	ctx = logging.ContextWithLogger(ctx, p.logger)

	start := time.Now()
	report, err := p.service.ProjectAll(ctx, p.horizon)
	if err != nil {
		p.logger.ErrorContext(ctx, "projection run failed", "error", err, "duration", time.Since(start))
		return report, err
	}
	p.logger.InfoContext(ctx, "projection run completed",
		"templates", report.Templates,
		"created", report.Created,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
	return report, nil
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
