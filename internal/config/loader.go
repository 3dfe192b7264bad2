package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/example/facility-planner/internal/governance"
	"github.com/example/facility-planner/internal/logging"
	"github.com/example/facility-planner/internal/persistence/sqlite/migration"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the planner service.
type Config struct {
	HTTPPort   int
	SQLitePath string
	// Location anchors calendar dates, shift starts and "today".
	Location *time.Location
	LogLevel slog.Level
	// ProjectionSchedule is a cron spec; empty disables the projection job.
	ProjectionSchedule    string
	ProjectionHorizonDays int
	DefaultShiftStart     string
}

// SQLite returns the storage settings for the configured path.
func (c Config) SQLite() migration.SQLiteConfig {
	cfg := migration.DefaultSQLiteConfig(c.SQLitePath)
	if c.SQLitePath == migration.MemoryPath {
		cfg.JournalMode = "MEMORY"
	}
	return cfg
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTPPort)
}

// Load reads DefaultEnvFile when it exists and then parses the process environment.
func Load() (Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile reads the given .env file when it exists and then parses the
// process environment. Variables already set in the environment win over the
// file. Every invalid value is reported in one error.
func LoadFile(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg := Config{
		HTTPPort:              8080,
		SQLitePath:            "planner.db",
		Location:              time.UTC,
		LogLevel:              slog.LevelInfo,
		ProjectionSchedule:    "@daily",
		ProjectionHorizonDays: 30,
		DefaultShiftStart:     governance.DefaultShiftStart,
	}

	invalid := make([]string, 0, 2)

	if portValue := env("PLANNER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := env("PLANNER_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if zone := env("PLANNER_TIMEZONE"); zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			invalid = append(invalid, "PLANNER_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if levelValue := env("PLANNER_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "PLANNER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if spec, ok := os.LookupEnv("PLANNER_PROJECTION_SCHEDULE"); ok {
		spec = strings.TrimSpace(spec)
		if spec != "" {
			if _, err := cron.ParseStandard(spec); err != nil {
				invalid = append(invalid, "PLANNER_PROJECTION_SCHEDULE")
			}
		}
		cfg.ProjectionSchedule = spec
	}

	if horizonValue := env("PLANNER_PROJECTION_HORIZON_DAYS"); horizonValue != "" {
		horizon, err := strconv.Atoi(horizonValue)
		if err != nil || horizon < 1 || horizon > 366 {
			invalid = append(invalid, "PLANNER_PROJECTION_HORIZON_DAYS")
		} else {
			cfg.ProjectionHorizonDays = horizon
		}
	}

	if start := env("PLANNER_DEFAULT_SHIFT_START"); start != "" {
		if _, err := governance.ParseClock(start); err != nil {
			invalid = append(invalid, "PLANNER_DEFAULT_SHIFT_START")
		} else {
			cfg.DefaultShiftStart = start
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
