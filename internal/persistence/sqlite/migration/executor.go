package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SQLiteExecutor implements Executor for SQLite databases.
type SQLiteExecutor struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteExecutor creates a SQLite migration executor.
func NewSQLiteExecutor(db *sql.DB, logger *slog.Logger) *SQLiteExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteExecutor{db: db, logger: logger, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL,
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`

	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", "create schema_migrations table", err)
	}
	return nil
}

// ApplyMigration executes every statement of migration and records it in the
// version table within one transaction.
func (e *SQLiteExecutor) ApplyMigration(ctx context.Context, migration Migration) (elapsed time.Duration, err error) {
	statements := splitStatements(migration.SQL)
	if len(statements) == 0 {
		return 0, NewMigrationError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := e.now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewDatabaseError(migration.Version, "begin transaction", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.ErrorContext(ctx, "failed to roll back migration", "version", migration.Version, "error", rbErr)
		}
	}()

	for i, stmt := range statements {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = NewDatabaseError(migration.Version, fmt.Sprintf("execute statement %d", i+1), execErr)
			return 0, err
		}
	}

	elapsed = e.now().Sub(started)
	const insertSQL = `INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`
	if _, execErr := tx.ExecContext(ctx, insertSQL, migration.Version, e.now().UTC().Format(time.RFC3339), migration.Checksum, elapsed.Milliseconds()); execErr != nil {
		err = NewDatabaseError(migration.Version, "record migration", execErr)
		return 0, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = NewDatabaseError(migration.Version, "commit transaction", commitErr)
		return 0, err
	}
	return elapsed, nil
}

// GetAppliedVersions returns all applied migrations ordered by version.
func (e *SQLiteExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	const querySQL = `
		SELECT version, applied_at, execution_time_ms, checksum
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC`

	rows, err := e.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, NewDatabaseError("", "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			row          AppliedMigration
			appliedAtStr string
			elapsedMs    int64
		)
		if err := rows.Scan(&row.Version, &appliedAtStr, &elapsedMs, &row.Checksum); err != nil {
			return nil, NewDatabaseError("", "scan applied migration", err)
		}
		row.AppliedAt, err = time.Parse(time.RFC3339, appliedAtStr)
		if err != nil {
			return nil, NewDatabaseError(row.Version, "parse applied_at", fmt.Errorf("%w: %v", ErrVersionTableCorrupt, err))
		}
		row.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, row)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", "iterate applied migrations", err)
	}
	return applied, nil
}
