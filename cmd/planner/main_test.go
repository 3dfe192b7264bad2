package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/facility-planner/internal/config"
)

func testConfig(t *testing.T, schedule string) config.Config {
	t.Helper()
	return config.Config{
		HTTPPort:              0,
		SQLitePath:            filepath.Join(t.TempDir(), "planner.db"),
		Location:              time.UTC,
		LogLevel:              slog.LevelInfo,
		ProjectionSchedule:    schedule,
		ProjectionHorizonDays: 30,
		DefaultShiftStart:     "08:00",
	}
}

func TestNewApp_ServesHealth(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	a, err := newApp(context.Background(), testConfig(t, "@daily"), logger)
	if err != nil {
		t.Fatalf("newApp returned error: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background(), logger) })

	if a.projector == nil {
		t.Fatalf("expected the projection job to be configured")
	}

	server := httptest.NewServer(a.handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "ok" {
		t.Fatalf("unexpected health body %+v (err=%v)", body, err)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestNewApp_WithoutSchedule(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	a, err := newApp(context.Background(), testConfig(t, ""), logger)
	if err != nil {
		t.Fatalf("newApp returned error: %v", err)
	}
	defer a.Close(context.Background(), logger)

	if a.projector != nil {
		t.Fatalf("expected no projection job for an empty schedule")
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing locations, got %d: %s", rec.Code, rec.Body.String())
	}
}
