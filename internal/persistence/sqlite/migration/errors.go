package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed indicates that a migration execution failed.
	ErrMigrationFailed = errors.New("migration execution failed")
	// ErrInvalidMigrationFile indicates a malformed migration file.
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrVersionConflict indicates a gap or a missing applied version.
	ErrVersionConflict = errors.New("migration version conflict")
	// ErrInvalidVersion indicates a non-numeric migration version.
	ErrInvalidVersion = errors.New("invalid migration version")
	// ErrDuplicateVersion indicates that two files share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch indicates an applied migration file changed afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	// ErrVersionTableCorrupt indicates unreadable schema_migrations rows.
	ErrVersionTableCorrupt = errors.New("schema_migrations table is corrupted")
)

// MigrationError wraps migration failures with the version and file involved.
type MigrationError struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration error (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a MigrationError.
func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, FilePath: filePath, Operation: operation, Err: err}
}

// DatabaseError wraps database failures during migration work.
type DatabaseError struct {
	Version   string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("database error in migration %s during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a DatabaseError.
func NewDatabaseError(version, operation string, err error) *DatabaseError {
	return &DatabaseError{Version: version, Operation: operation, Err: err}
}
