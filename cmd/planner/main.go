package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/config"
	httptransport "github.com/example/facility-planner/internal/http"
	"github.com/example/facility-planner/internal/jobs"
	"github.com/example/facility-planner/internal/logging"
	"github.com/example/facility-planner/internal/periodicity"
	"github.com/example/facility-planner/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, "facility-planner")

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("planner stopped with error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired process components.
type app struct {
	storage   *sqlite.Storage
	handler   http.Handler
	projector *jobs.Projector
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	storage, err := sqlite.Open(cfg.SQLite(), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	now := time.Now

	locationService := application.NewLocationServiceWithLogger(storage.Locations, idGenerator, now, logger)
	activityService := application.NewActivityServiceWithLogger(storage.Activities, idGenerator, now, logger)
	staffService := application.NewStaffServiceWithLogger(storage.Staff, idGenerator, now, logger)
	taskService := application.NewTaskServiceWithLogger(
		storage.Tasks, storage.Locations, storage.Activities, storage.Staff,
		periodicity.NewEngine(cfg.Location), idGenerator, now, logger,
	)
	governanceService := application.NewGovernanceServiceWithLogger(
		storage.Governance, storage.Schedules, storage.Staff,
		application.GovernanceOptions{Location: cfg.Location, ShiftStart: cfg.DefaultShiftStart},
		idGenerator, now, logger,
	)
	convocationService := application.NewConvocationServiceWithLogger(storage.Schedules, storage.Convocations, cfg.Location, idGenerator, now, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Catalog:      httptransport.NewCatalogHandler(locationService, activityService, staffService, logger),
		Tasks:        httptransport.NewTaskHandler(taskService, cfg.ProjectionHorizonDays, logger),
		Governance:   httptransport.NewGovernanceHandler(governanceService, logger),
		Convocations: httptransport.NewConvocationHandler(convocationService, logger),
		Health:       storage,
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})

	a := &app{storage: storage, handler: handler}
	if cfg.ProjectionSchedule != "" {
		projector, err := jobs.NewProjector(taskService, jobs.ProjectorConfig{
			Schedule:    cfg.ProjectionSchedule,
			HorizonDays: cfg.ProjectionHorizonDays,
			Location:    cfg.Location,
			Timeout:     10 * time.Minute,
		}, logger)
		if err != nil {
			_ = storage.Close()
			return nil, err
		}
		a.projector = projector
	}
	return a, nil
}

func (a *app) Close(ctx context.Context, logger *slog.Logger) {
	if a.projector != nil {
		if err := a.projector.Stop(ctx); err != nil {
			logger.Error("failed to stop projection job", "error", err)
		}
	}
	if err := a.storage.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.Close(closeCtx, logger)
	}()

	if a.projector != nil {
		a.projector.Start()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
