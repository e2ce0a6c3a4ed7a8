// Package host talks to the running window manager: it reads the
// installed version and asks the manager to reload its theme.
package host

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// UTFError reports host command output that is not valid UTF-8.
type UTFError struct {
	Command string
}

func (e *UTFError) Error() string {
	return fmt.Sprintf("HOST_UTF: output of %s is not valid UTF-8", e.Command)
}

type execFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultExec(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Host runs the window manager's helper commands.
type Host struct {
	StateCommand  string
	VersionPrefix string
	ReloadCommand []string

	run execFunc
}

func New(stateCommand, versionPrefix string, reloadCommand []string) *Host {
	return &Host{
		StateCommand:  stateCommand,
		VersionPrefix: versionPrefix,
		ReloadCommand: append([]string(nil), reloadCommand...),
		run:           defaultExec,
	}
}

func (h *Host) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if h.run == nil {
		return defaultExec(ctx, name, args...)
	}
	return h.run(ctx, name, args...)
}

// Version runs "<state command> -V" and returns the reported version with
// the configured prefix and trailing newline removed.
func (h *Host) Version(ctx context.Context) (string, error) {
	if h.StateCommand == "" {
		return "", fmt.Errorf("HOST_VERSION: no state command configured")
	}
	out, err := h.exec(ctx, h.StateCommand, "-V")
	if err != nil {
		return "", fmt.Errorf("HOST_VERSION: %w", err)
	}
	if !utf8.Valid(out) {
		return "", &UTFError{Command: h.StateCommand}
	}
	text := strings.TrimRight(string(out), "\r\n")
	text = strings.TrimPrefix(text, h.VersionPrefix)
	return strings.TrimSpace(text), nil
}

// Compatible reports whether the installed host version satisfies expr.
// An empty expression is compatible with every host.
func (h *Host) Compatible(ctx context.Context, expr string) (bool, string, error) {
	if strings.TrimSpace(expr) == "" {
		return true, "", nil
	}
	version, err := h.Version(ctx)
	if err != nil {
		return false, "", err
	}
	ok, err := Matches(expr, version)
	return ok, version, err
}

// Reload asks the running host to reload its theme. A missing reload
// command is not an error.
func (h *Host) Reload(ctx context.Context) error {
	if len(h.ReloadCommand) == 0 {
		return nil
	}
	if _, err := h.exec(ctx, h.ReloadCommand[0], h.ReloadCommand[1:]...); err != nil {
		return fmt.Errorf("HOST_RELOAD: %w", err)
	}
	return nil
}
