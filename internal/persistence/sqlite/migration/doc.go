// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files live in an fs.FS (normally an embed.FS) and follow the
// naming convention {version}_{description}.sql, for example
// "001_initial_schema.sql". Each file runs inside its own transaction and is
// recorded in the schema_migrations table together with a BLAKE2b-256
// checksum of its contents. Applied files whose checksum changed, gaps in the
// version sequence and duplicate versions are reported as errors.
//
// Example usage:
//
//	manager := NewManager(NewScanner(), NewSQLiteExecutor(db, logger), migrations, logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
