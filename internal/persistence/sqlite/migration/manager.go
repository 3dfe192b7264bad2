package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
)

// Manager orchestrates scanning, validation and execution of migrations.
type Manager struct {
	scanner  Scanner
	executor Executor
	files    fs.FS
	logger   *slog.Logger
}

// NewManager creates a Manager reading migration files from files.
func NewManager(scanner Scanner, executor Executor, files fs.FS, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, files: files, logger: logger.With("component", "migration")}
}

// RunMigrations applies every pending migration in version order.
func (m *Manager) RunMigrations(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "database schema up to date")
		return nil
	}

	for i, migration := range pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description, "checksum", migration.Checksum)
		elapsed, err := m.executor.ApplyMigration(ctx, migration)
		if err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		logger.InfoContext(ctx, "migration applied", "position", i+1, "total", len(pending), "duration", elapsed)
	}
	return nil
}

// PendingMigrations returns the available migrations not yet applied, after
// validating the sequence and the checksums of applied files.
func (m *Manager) PendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations(m.files)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, fmt.Errorf("migration sequence validation failed: %w", err)
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, a := range applied {
		appliedByVersion[versionNumber(a.Version)] = a
	}

	var pending []Migration
	for _, migration := range available {
		a, ok := appliedByVersion[versionNumber(migration.Version)]
		if !ok {
			pending = append(pending, migration)
			continue
		}
		if a.Checksum != migration.Checksum {
			return nil, NewMigrationError(migration.Version, migration.FilePath, "verify checksum",
				fmt.Errorf("%w: recorded %s, file %s", ErrChecksumMismatch, a.Checksum, migration.Checksum))
		}
	}
	return pending, nil
}

// Status reports applied and pending migrations.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, fmt.Errorf("failed to initialize version table: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return Status{}, err
	}
	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{PendingCount: len(pending), AppliedMigrations: applied, PendingMigrations: pending}
	highest := -1
	for _, a := range applied {
		if n := versionNumber(a.Version); n > highest {
			highest = n
			status.CurrentVersion = a.Version
		}
	}
	return status, nil
}

// validateSequence rejects gaps in the available versions and applied
// versions that no longer have a file.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	present := make(map[int]bool, len(available))
	minVersion, maxVersion := 0, -1
	for i, migration := range available {
		n, err := strconv.Atoi(migration.Version)
		if err != nil {
			return NewMigrationError(migration.Version, migration.FilePath, "validate sequence",
				fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, migration.Version))
		}
		present[n] = true
		if i == 0 || n < minVersion {
			minVersion = n
		}
		if n > maxVersion {
			maxVersion = n
		}
	}

	for v := minVersion; v <= maxVersion; v++ {
		if !present[v] {
			return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, v)
		}
	}

	for _, a := range applied {
		n, err := strconv.Atoi(a.Version)
		if err != nil {
			return NewDatabaseError(a.Version, "validate sequence",
				fmt.Errorf("%w: applied version '%s' is not numeric", ErrVersionTableCorrupt, a.Version))
		}
		if !present[n] {
			return fmt.Errorf("%w: applied migration %03d not found in available migrations", ErrVersionConflict, n)
		}
	}
	return nil
}
