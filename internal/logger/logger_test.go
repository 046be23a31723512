package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInit(t *testing.T) {
	l := Init("test-service", slog.LevelInfo)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRunID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if id := RunID(ctx); id != "" {
		t.Errorf("expected empty run id, got %q", id)
	}

	ctx = WithRunID(ctx, "EURUSD-42")
	if id := RunID(ctx); id != "EURUSD-42" {
		t.Errorf("expected 'EURUSD-42', got %q", id)
	}
}

func TestNewRunID(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)
	id := NewRunID("EURUSD", ts)

	if !strings.HasPrefix(id, "EURUSD-") {
		t.Errorf("expected run id to start with 'EURUSD-', got %s", id)
	}
	if !strings.Contains(id, "123456789") {
		t.Errorf("expected run id to contain nanoseconds, got %s", id)
	}
}

func TestWithRun(t *testing.T) {
	ctx := context.Background()

	if attrs := WithRun(ctx); attrs != nil {
		t.Errorf("expected nil attrs without run id, got %v", attrs)
	}

	ctx = WithRunID(ctx, "abc-123")
	if attrs := WithRun(ctx); len(attrs) == 0 {
		t.Fatal("expected non-empty attrs with run id set")
	}
}
