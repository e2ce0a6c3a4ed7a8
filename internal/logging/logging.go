// Package logging builds the diagnostic logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL: unknown level %q", name)
	}
}

// Level lowers base by one step per -v: one flag shows info, two or more
// show debug.
func Level(base slog.Level, verbosity int) slog.Level {
	switch {
	case verbosity >= 2:
		return min(base, slog.LevelDebug)
	case verbosity == 1:
		return min(base, slog.LevelInfo)
	default:
		return base
	}
}

// New returns a text or JSON logger writing to w.
func New(w io.Writer, level, format string, verbosity int) (*slog.Logger, error) {
	base, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: Level(base, verbosity)}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("LOG_FORMAT: unknown format %q", format)
	}
}
