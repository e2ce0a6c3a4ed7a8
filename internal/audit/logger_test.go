package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wmtheme/internal/apperr"
)

func TestLogNoopForNilLoggerAndEmptyPath(t *testing.T) {
	var nilLogger *Logger
	if err := nilLogger.Log(Event{Operation: "apply"}); err != nil {
		t.Fatalf("nil logger should be noop: %v", err)
	}
	if err := New("").Result("apply", "community/soothe", nil, nil); err != nil {
		t.Fatalf("empty-path logger should be noop: %v", err)
	}
	if _, found, err := nilLogger.Last(); found || err != nil {
		t.Fatalf("nil logger has no events: %v %v", found, err)
	}
}

func TestResultWritesJSONLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit", "events.log")
	logger := New(logPath)

	if err := logger.Result("install", "community/soothe", nil, map[string]string{"directory": "/t/soothe"}); err != nil {
		t.Fatalf("log success: %v", err)
	}
	if err := logger.Result("apply", "community/soothe", apperr.New("THM_INCOMPATIBLE", "needs a newer host"), nil); err != nil {
		t.Fatalf("log failure: %v", err)
	}

	blob, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(blob)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first event: %v", err)
	}
	if _, err := time.Parse(time.RFC3339Nano, first.Timestamp); err != nil {
		t.Fatalf("timestamp should be RFC3339Nano: %v", err)
	}
	if first.Operation != "install" || first.Theme != "community/soothe" || first.Status != StatusOK {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.Fields["directory"] != "/t/soothe" {
		t.Fatalf("unexpected fields: %+v", first.Fields)
	}

	last, found, err := logger.Last()
	if err != nil || !found {
		t.Fatalf("last: %v %v", found, err)
	}
	if last.Status != StatusFailed || last.Code != "THM_INCOMPATIBLE" {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestLastSkipsMalformedLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "events.log")
	doc := `{"operation":"new","status":"ok"}` + "\nnot json\n"
	if err := os.WriteFile(logPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	last, found, err := New(logPath).Last()
	if err != nil || !found || last.Operation != "new" {
		t.Fatalf("unexpected last %+v %v %v", last, found, err)
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("VCS_CLONE: clone failed"), "VCS_CLONE"},
		{fmt.Errorf("INS_CLONE: %w", errors.New("boom")), "INS_CLONE"},
		{apperr.New("THM_NOT_FOUND", "no theme"), "THM_NOT_FOUND"},
		{errors.New("open /x: no such file"), ""},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestLogMkdirAllFailure(t *testing.T) {
	tmp := t.TempDir()
	blockedPath := filepath.Join(tmp, "blocked")
	if err := os.WriteFile(blockedPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("create blocking file: %v", err)
	}

	logger := New(filepath.Join(blockedPath, "events.log"))
	if err := logger.Log(Event{Operation: "install"}); err == nil {
		t.Fatalf("expected mkdir failure")
	}
}
