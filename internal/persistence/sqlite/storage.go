package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/example/facility-planner/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite-backed repositories over one connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Locations    *LocationRepository
	Activities   *ActivityRepository
	Staff        *StaffRepository
	Tasks        *TaskRepository
	Governance   *GovernanceRepository
	Schedules    *ScheduleRepository
	Convocations *ConvocationRepository
}

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := migration.Open(cfg)
	if err != nil {
		return nil, err
	}
	pool := NewConnectionPool(db)
	return &Storage{
		pool:         pool,
		logger:       logger,
		Locations:    NewLocationRepository(pool),
		Activities:   NewActivityRepository(pool),
		Staff:        NewStaffRepository(pool),
		Tasks:        NewTaskRepository(pool),
		Governance:   NewGovernanceRepository(pool),
		Schedules:    NewScheduleRepository(pool),
		Convocations: NewConvocationRepository(pool),
	}, nil
}

// Migrate applies all pending embedded migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager, err := s.migrationManager()
	if err != nil {
		return err
	}
	return manager.RunMigrations(ctx)
}

// MigrationStatus reports applied and pending migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager, err := s.migrationManager()
	if err != nil {
		return migration.Status{}, err
	}
	return manager.Status(ctx)
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

func (s *Storage) migrationManager() (*migration.Manager, error) {
	files, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	executor := migration.NewSQLiteExecutor(s.pool.DB(), s.logger)
	return migration.NewManager(migration.NewScanner(), executor, files, s.logger), nil
}
