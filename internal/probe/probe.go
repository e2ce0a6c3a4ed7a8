// Package probe inspects the themes directory without modifying it.
package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CurrentLink is the entry naming the active theme.
const CurrentLink = "current"

// Probe is a read-only view of one themes directory.
type Probe struct {
	Dir string
}

func New(themesDir string) Probe {
	return Probe{Dir: themesDir}
}

// InstalledThemeNames lists the directories (or symlinks to directories)
// directly under the themes directory, excluding "current" and hidden
// entries. A missing themes directory yields an empty set.
func (p Probe) InstalledThemeNames() (map[string]struct{}, error) {
	out := map[string]struct{}{}
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("PRB_READ: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == CurrentLink || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(p.Dir, name))
		if err != nil {
			// dangling symlink
			continue
		}
		if info.IsDir() {
			out[name] = struct{}{}
		}
	}
	return out, nil
}

// SortedInstalled is InstalledThemeNames in name order.
func (p Probe) SortedInstalled() ([]string, error) {
	set, err := p.InstalledThemeNames()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CurrentThemeName returns the final path component of the "current"
// symlink target. A missing, non-symlink or unreadable "current" yields
// ok == false; only unexpected I/O failures are errors.
func (p Probe) CurrentThemeName() (string, bool, error) {
	link := filepath.Join(p.Dir, CurrentLink)
	info, err := os.Lstat(link)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("PRB_CURRENT: %w", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", false, nil
	}
	target, err := os.Readlink(link)
	if err != nil {
		return "", false, fmt.Errorf("PRB_CURRENT: %w", err)
	}
	name := filepath.Base(filepath.Clean(target))
	if name == "." || name == string(filepath.Separator) {
		return "", false, nil
	}
	return name, true, nil
}

// Snapshot is one consistent read of the themes directory.
type Snapshot struct {
	Dir       string
	Installed map[string]struct{}
	Current   string
}

func (p Probe) Snapshot() (Snapshot, error) {
	installed, err := p.InstalledThemeNames()
	if err != nil {
		return Snapshot{}, err
	}
	current, _, err := p.CurrentThemeName()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Dir: p.Dir, Installed: installed, Current: current}, nil
}

// IsInstalled reports whether name has a directory in the snapshot.
func (s Snapshot) IsInstalled(name string) bool {
	_, ok := s.Installed[name]
	return ok
}

// DirectoryFor returns the install directory of name, or "" when absent.
func (s Snapshot) DirectoryFor(name string) string {
	if !s.IsInstalled(name) {
		return ""
	}
	return filepath.Join(s.Dir, name)
}

// IsCurrent reports whether name is both installed and the current target.
func (s Snapshot) IsCurrent(name string) bool {
	return s.Current != "" && s.Current == name && s.IsInstalled(name)
}
