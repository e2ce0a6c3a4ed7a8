// Package audit appends one JSON line per mutating theme operation.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wmtheme/internal/apperr"
)

type Logger struct {
	path string
	mu   sync.Mutex
}

type Event struct {
	Timestamp string            `json:"timestamp"`
	Operation string            `json:"operation"`
	Theme     string            `json:"theme,omitempty"`
	Status    string            `json:"status"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

func New(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Result records the outcome of operation on ref. A nil err is a success.
func (l *Logger) Result(operation, ref string, err error, fields map[string]string) error {
	ev := Event{Operation: operation, Theme: ref, Status: StatusOK, Fields: fields}
	if err != nil {
		ev.Status = StatusFailed
		ev.Code = ErrorCode(err)
		ev.Message = err.Error()
	}
	return l.Log(ev)
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(blob, '\n'))
	return err
}

// Last returns the newest event in the log, if any. Malformed lines are
// skipped.
func (l *Logger) Last() (Event, bool, error) {
	if l == nil || l.path == "" {
		return Event{}, false, nil
	}
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, err
	}
	defer f.Close()
	var (
		last  Event
		found bool
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var ev Event
		if json.Unmarshal(scanner.Bytes(), &ev) == nil && ev.Operation != "" {
			last, found = ev, true
		}
	}
	return last, found, scanner.Err()
}

// ErrorCode extracts the CODE of a friendly error or of a "CODE: ..."
// error string.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if f, ok := apperr.AsFriendly(err); ok && f.Code != "" {
		return f.Code
	}
	head, _, ok := strings.Cut(err.Error(), ":")
	if !ok || head == "" || strings.ToUpper(head) != head || strings.ContainsAny(head, " \t") {
		return ""
	}
	return head
}
