package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/facility-planner/internal/persistence"
	"github.com/example/facility-planner/internal/persistence/sqlite"
	"github.com/example/facility-planner/internal/persistence/sqlite/migration"
)

// SQLiteHarness exposes migrated SQLite repositories backed by a temporary file.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	Locations    persistence.LocationRepository
	Activities   persistence.ActivityRepository
	Staff        persistence.StaffRepository
	Tasks        persistence.TaskRepository
	Governance   persistence.GovernanceRepository
	Schedules    persistence.ScheduleRepository
	Convocations persistence.ConvocationRepository

	cleanup func()
}

// Close releases the harness storage. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a fresh database under tb.TempDir.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "planner.db")
	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Locations:    storage.Locations,
		Activities:   storage.Activities,
		Staff:        storage.Staff,
		Tasks:        storage.Tasks,
		Governance:   storage.Governance,
		Schedules:    storage.Schedules,
		Convocations: storage.Convocations,
		cleanup: func() {
			_ = storage.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// Seed stores the given catalog fixtures and fails tb on the first error.
func (h *SQLiteHarness) Seed(tb testing.TB, fixtures ...any) {
	tb.Helper()
	ctx := context.Background()

	for _, f := range fixtures {
		var err error
		switch v := f.(type) {
		case LocationFixture:
			err = h.Locations.CreateLocation(ctx, v.Persistence())
		case ActivityFixture:
			err = h.Activities.CreateActivity(ctx, v.Persistence())
		case StaffFixture:
			err = h.Staff.CreateStaff(ctx, v.Persistence())
		case TemplateFixture:
			err = h.Tasks.CreateTemplate(ctx, v.Persistence())
		default:
			tb.Fatalf("unsupported fixture %T", f)
		}
		if err != nil {
			tb.Fatalf("failed to seed %T: %v", f, err)
		}
	}
}
