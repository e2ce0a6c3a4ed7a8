package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestVerbosityRaisesLevel(t *testing.T) {
	if got := Level(slog.LevelWarn, 0); got != slog.LevelWarn {
		t.Fatalf("expected warn, got %v", got)
	}
	if got := Level(slog.LevelWarn, 1); got != slog.LevelInfo {
		t.Fatalf("expected info, got %v", got)
	}
	if got := Level(slog.LevelWarn, 3); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
	if got := Level(slog.LevelDebug, 1); got != slog.LevelDebug {
		t.Fatalf("verbosity must never lower detail, got %v", got)
	}
}

func TestNewTextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "text", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "registry", "community")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "registry=community") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("fetched", "themes", 2)
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "fetched" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud", "text", 0); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(&bytes.Buffer{}, "warn", "xml", 0); err == nil {
		t.Fatalf("expected format error")
	}
}
