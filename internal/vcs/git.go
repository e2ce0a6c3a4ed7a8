// Package vcs drives the git command line for theme checkouts.
package vcs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultBranch is the branch fetched when upgrading a theme.
const DefaultBranch = "main"

type gitExecFunc func(ctx context.Context, dir string, args ...string) ([]byte, error)

func defaultGitExec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, string(out))
	}
	return out, nil
}

// Git runs git subcommands. The zero value uses the git binary on PATH.
type Git struct {
	execGit gitExecFunc
}

func New() *Git {
	return &Git{execGit: defaultGitExec}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if g == nil || g.execGit == nil {
		return defaultGitExec(ctx, dir, args...)
	}
	return g.execGit(ctx, dir, args...)
}

var revisionPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._/-]*$`)

// ValidRevision reports whether rev is safe to hand to git as a revision.
func ValidRevision(rev string) bool {
	return revisionPattern.MatchString(rev) && !strings.Contains(rev, "..")
}

// Clone clones url into dest. dest must not exist yet.
func (g *Git) Clone(ctx context.Context, url, dest string) error {
	if url == "" {
		return fmt.Errorf("VCS_CLONE: missing repository url")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("VCS_CLONE: %w", err)
	}
	if _, err := g.run(ctx, "", "clone", "--", url, dest); err != nil {
		return fmt.Errorf("VCS_CLONE: clone failed: %w", err)
	}
	return nil
}

// Init creates an empty repository in dir.
func (g *Git) Init(ctx context.Context, dir string) error {
	if _, err := g.run(ctx, dir, "init"); err != nil {
		return fmt.Errorf("VCS_INIT: %w", err)
	}
	return nil
}

// Fetch fetches branch from origin into FETCH_HEAD.
func (g *Git) Fetch(ctx context.Context, dir, branch string) error {
	if branch == "" {
		branch = DefaultBranch
	}
	if _, err := g.run(ctx, dir, "fetch", "origin", branch); err != nil {
		return fmt.Errorf("VCS_FETCH: fetch failed: %w", err)
	}
	return nil
}

// Checkout detaches HEAD at rev.
func (g *Git) Checkout(ctx context.Context, dir, rev string) error {
	if rev != "FETCH_HEAD" && !ValidRevision(rev) {
		return fmt.Errorf("VCS_CHECKOUT: invalid revision %q", rev)
	}
	if _, err := g.run(ctx, dir, "checkout", "--detach", rev); err != nil {
		return fmt.Errorf("VCS_CHECKOUT: checkout %s failed: %w", rev, err)
	}
	return nil
}

// Head returns the commit hash checked out in dir.
func (g *Git) Head(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("VCS_HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Update fetches the default branch and checks out rev, or the fetched
// tip when rev is empty.
func (g *Git) Update(ctx context.Context, dir, rev string) error {
	if err := g.Fetch(ctx, dir, DefaultBranch); err != nil {
		return err
	}
	if rev == "" {
		rev = "FETCH_HEAD"
	}
	return g.Checkout(ctx, dir, rev)
}

// IsRepo checks whether dir contains a .git entry.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
