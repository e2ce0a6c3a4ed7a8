// Package installer manages theme directories under the themes directory:
// cloning, removing, creating, upgrading and switching the current link.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wmtheme/internal/apperr"
	"wmtheme/internal/audit"
	"wmtheme/internal/fsutil"
	"wmtheme/internal/probe"
	"wmtheme/internal/security"
	"wmtheme/internal/theme"
	"wmtheme/internal/vcs"
)

// SourcesDir holds full repository clones of themes that live in a
// subdirectory of their repository.
const SourcesDir = ".sources"

// Git is the version-control surface the installer needs.
type Git interface {
	Clone(ctx context.Context, url, dest string) error
	Init(ctx context.Context, dir string) error
	Checkout(ctx context.Context, dir, rev string) error
	Update(ctx context.Context, dir, rev string) error
}

type Service struct {
	ThemesDir string
	Git       Git
	Audit     *audit.Logger
}

// ThemeDir is where name is installed.
func (s *Service) ThemeDir(name string) string {
	return filepath.Join(s.ThemesDir, name)
}

func (s *Service) sourceDir(name string) string {
	return filepath.Join(s.ThemesDir, SourcesDir, name)
}

// RepoDir is the git checkout backing an installed theme.
func (s *Service) RepoDir(rec theme.Record) string {
	if rec.RelativeDirectory != "" {
		return s.sourceDir(rec.Name)
	}
	return s.ThemeDir(rec.Name)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (s *Service) stagingDir(name string) string {
	return filepath.Join(s.ThemesDir, ".stage-"+name+"-"+strconv.FormatInt(time.Now().UnixNano(), 10))
}

// Install clones rec into the themes directory and returns the installed
// directory. Pinned commits are checked out detached.
func (s *Service) Install(ctx context.Context, rec theme.Record) (dir string, err error) {
	defer func() {
		_ = s.Audit.Result("install", rec.Ref(), err, map[string]string{"directory": dir})
	}()
	if err := theme.ValidateName(rec.Name); err != nil {
		return "", err
	}
	if rec.Repository == "" {
		return "", apperr.New("INS_NO_REPOSITORY", "theme %s has no repository to install from", rec.Ref())
	}
	if strings.HasPrefix(strings.TrimSpace(rec.Repository), "-") {
		return "", apperr.New("INS_REPOSITORY", "theme %s has an invalid repository %q", rec.Ref(), rec.Repository)
	}
	if rec.Commit != nil {
		if rev, ok := rec.Commit.Revision(); ok && strings.HasPrefix(rev, "-") {
			return "", apperr.New("INS_REPOSITORY", "theme %s has an invalid commit %q", rec.Ref(), rev)
		}
	}
	final := s.ThemeDir(rec.Name)
	if exists(final) {
		return "", apperr.New("INS_EXISTS", "a theme named %s is already installed at %s", rec.Name, final)
	}
	if err := os.MkdirAll(s.ThemesDir, 0o755); err != nil {
		return "", fmt.Errorf("INS_LAYOUT: %w", err)
	}

	stage := s.stagingDir(rec.Name)
	defer os.RemoveAll(stage)
	if err := s.Git.Clone(ctx, rec.Repository, stage); err != nil {
		return "", apperr.New("INS_CLONE", "could not clone %s: %v", rec.Name, err)
	}
	if rec.Commit != nil {
		if rev, ok := rec.Commit.Revision(); ok {
			if err := s.Git.Checkout(ctx, stage, rev); err != nil {
				return "", fmt.Errorf("INS_CHECKOUT: %w", err)
			}
		}
	}

	if rec.RelativeDirectory == "" {
		if err := os.Rename(stage, final); err != nil {
			return "", fmt.Errorf("INS_COMMIT: %w", err)
		}
		return final, nil
	}
	return s.commitSubdirectory(rec, stage, final)
}

// commitSubdirectory moves a staged clone under .sources and links the
// theme directory to its relative_directory.
func (s *Service) commitSubdirectory(rec theme.Record, stage, final string) (string, error) {
	inner, err := security.SafeJoin(stage, rec.RelativeDirectory)
	if err != nil {
		return "", apperr.New("INS_RELATIVE_DIR", "theme %s has an invalid relative directory %q", rec.Name, rec.RelativeDirectory)
	}
	rel := filepath.Clean(rec.RelativeDirectory)
	if info, err := os.Stat(inner); err != nil || !info.IsDir() {
		return "", apperr.New("INS_RELATIVE_DIR", "theme %s: %s not found in repository", rec.Name, rec.RelativeDirectory)
	}
	src := s.sourceDir(rec.Name)
	if exists(src) {
		if err := os.RemoveAll(src); err != nil {
			return "", fmt.Errorf("INS_COMMIT: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		return "", fmt.Errorf("INS_COMMIT: %w", err)
	}
	if err := os.Rename(stage, src); err != nil {
		return "", fmt.Errorf("INS_COMMIT: %w", err)
	}
	if err := os.Symlink(filepath.Join(SourcesDir, rec.Name, rel), final); err != nil {
		_ = os.RemoveAll(src)
		return "", fmt.Errorf("INS_LINK: %w", err)
	}
	return final, nil
}

// Uninstall removes the theme directory of name, its backing clone and a
// current link that points at it.
func (s *Service) Uninstall(name string) (err error) {
	defer func() { _ = s.Audit.Result("uninstall", name, err, nil) }()
	if err := theme.ValidateName(name); err != nil {
		return err
	}
	if cur, ok, perr := probe.New(s.ThemesDir).CurrentThemeName(); perr == nil && ok && cur == name {
		if err := os.Remove(filepath.Join(s.ThemesDir, probe.CurrentLink)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("UNI_CURRENT: %w", err)
		}
	}
	if err := os.RemoveAll(s.ThemeDir(name)); err != nil {
		return fmt.Errorf("UNI_REMOVE: %w", err)
	}
	if err := os.RemoveAll(s.sourceDir(name)); err != nil {
		return fmt.Errorf("UNI_REMOVE: %w", err)
	}
	return nil
}

// New creates an empty git repository for a new local theme.
func (s *Service) New(ctx context.Context, name string) (dir string, err error) {
	defer func() { _ = s.Audit.Result("new", name, err, map[string]string{"directory": dir}) }()
	if err := theme.ValidateName(name); err != nil {
		return "", err
	}
	dir = s.ThemeDir(name)
	if exists(dir) {
		return "", apperr.New("NEW_EXISTS", "a theme named %s already exists at %s", name, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("NEW_CREATE: %w", err)
	}
	if err := s.Git.Init(ctx, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("NEW_INIT: %w", err)
	}
	return dir, nil
}

// Apply points the current link at the installed theme name. A foreign
// entry named current that is not a symlink is moved aside first; the
// backup path is returned when that happens.
func (s *Service) Apply(name string) (backup string, err error) {
	defer func() { _ = s.Audit.Result("apply", name, err, map[string]string{"backup": backup}) }()
	dir := s.ThemeDir(name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", apperr.New("APPLY_NOT_INSTALLED", "theme %s is not installed", name)
	}
	link := filepath.Join(s.ThemesDir, probe.CurrentLink)
	if info, err := os.Lstat(link); err == nil && info.Mode()&os.ModeSymlink == 0 {
		backup, err = fsutil.MoveAside(link)
		if err != nil {
			return "", fmt.Errorf("APPLY_BACKUP: %w", err)
		}
	}
	if err := fsutil.ReplaceSymlink(dir, link); err != nil {
		return backup, fmt.Errorf("APPLY_LINK: %w", err)
	}
	return backup, nil
}

// Upgrade fetches the default branch of an installed theme and checks out
// its pinned commit, or the fetched tip when it tracks latest.
func (s *Service) Upgrade(ctx context.Context, rec theme.Record) (err error) {
	defer func() { _ = s.Audit.Result("upgrade", rec.Ref(), err, nil) }()
	dir := s.RepoDir(rec)
	if !vcs.IsRepo(dir) {
		return fmt.Errorf("UPG_NOT_REPO: %s is not a git checkout", dir)
	}
	rev := ""
	if rec.Commit != nil {
		rev, _ = rec.Commit.Revision()
	}
	if err := s.Git.Update(ctx, dir, rev); err != nil {
		return fmt.Errorf("UPG_FETCH: %w", err)
	}
	return nil
}
