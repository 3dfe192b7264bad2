package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var plannerKeys = []string{
	"PLANNER_HTTP_PORT",
	"PLANNER_SQLITE_PATH",
	"PLANNER_TIMEZONE",
	"PLANNER_LOG_LEVEL",
	"PLANNER_PROJECTION_SCHEDULE",
	"PLANNER_PROJECTION_HORIZON_DAYS",
	"PLANNER_DEFAULT_SHIFT_START",
}

// clearEnv unsets every planner variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range plannerKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "planner.db" {
			t.Fatalf("unexpected default path: %q", cfg.SQLitePath)
		}
		if cfg.Location != time.UTC || cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("unexpected zone or level: %v %v", cfg.Location, cfg.LogLevel)
		}
		if cfg.ProjectionSchedule != "@daily" || cfg.ProjectionHorizonDays != 30 || cfg.DefaultShiftStart != "08:00" {
			t.Fatalf("unexpected projection defaults: %+v", cfg)
		}
		if sqlite := cfg.SQLite(); !sqlite.EnableForeignKeys || sqlite.JournalMode != "WAL" {
			t.Fatalf("unexpected storage settings: %+v", sqlite)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_HTTP_PORT", "9090")
		t.Setenv("PLANNER_SQLITE_PATH", ":memory:")
		t.Setenv("PLANNER_TIMEZONE", "America/Sao_Paulo")
		t.Setenv("PLANNER_LOG_LEVEL", "debug")
		t.Setenv("PLANNER_PROJECTION_SCHEDULE", "30 2 * * *")
		t.Setenv("PLANNER_PROJECTION_HORIZON_DAYS", "60")
		t.Setenv("PLANNER_DEFAULT_SHIFT_START", "06:30")

		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.Location.String() != "America/Sao_Paulo" || cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.ProjectionSchedule != "30 2 * * *" || cfg.ProjectionHorizonDays != 60 || cfg.DefaultShiftStart != "06:30" {
			t.Fatalf("unexpected projection settings: %+v", cfg)
		}
		if cfg.SQLite().JournalMode != "MEMORY" {
			t.Fatalf("in-memory databases must not use WAL")
		}
	})

	t.Run("an empty schedule disables projection", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_PROJECTION_SCHEDULE", "")

		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.ProjectionSchedule != "" {
			t.Fatalf("expected an empty schedule, got %q", cfg.ProjectionSchedule)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_HTTP_PORT", "http")
		t.Setenv("PLANNER_TIMEZONE", "Mars/Olympus")
		t.Setenv("PLANNER_PROJECTION_SCHEDULE", "every night")
		t.Setenv("PLANNER_PROJECTION_HORIZON_DAYS", "0")
		t.Setenv("PLANNER_DEFAULT_SHIFT_START", "8am")

		_, err := LoadFile("")
		if err == nil {
			t.Fatalf("expected an error for invalid values")
		}
		for _, key := range []string{"PLANNER_HTTP_PORT", "PLANNER_TIMEZONE", "PLANNER_PROJECTION_SCHEDULE", "PLANNER_PROJECTION_HORIZON_DAYS", "PLANNER_DEFAULT_SHIFT_START"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("reads a .env file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), ".env")
		content := "PLANNER_HTTP_PORT=7070\nPLANNER_LOG_LEVEL=warn\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("PLANNER_LOG_LEVEL", "error")

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected port from file, got %d", cfg.HTTPPort)
		}
		if cfg.LogLevel != slog.LevelError {
			t.Fatalf("expected the environment to win, got %v", cfg.LogLevel)
		}
	})
}
