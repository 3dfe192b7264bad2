package migration

import (
	"context"
	"io/fs"
	"time"
)

// Migration is a parsed migration file.
type Migration struct {
	Version     string // numeric version, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // hex BLAKE2b-256 of SQL
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises the migration state of a database.
type Status struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// Scanner discovers migration files.
type Scanner interface {
	// ScanMigrations returns every migration in fsys ordered by version.
	ScanMigrations(fsys fs.FS) ([]Migration, error)
	// ValidateFileName checks the {version}_{description}.sql convention.
	ValidateFileName(filename string) error
}

// Executor applies migrations and maintains the version table.
type Executor interface {
	InitializeVersionTable(ctx context.Context) error
	// ApplyMigration runs the migration and records it in one transaction.
	ApplyMigration(ctx context.Context, migration Migration) (time.Duration, error)
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}
