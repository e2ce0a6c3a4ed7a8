package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EffectiveName is the name a record should be stored and installed under.
// Registries cannot carry a rename directive yet, so this is the stored name.
func EffectiveName(r Record) string {
	return r.Name
}

// ApplyChanges moves an installed copy of r to its effective name inside
// themesDir, so renamed upstream themes keep their local checkout.
func ApplyChanges(r *Record, themesDir string) error {
	target := EffectiveName(*r)
	if target == r.Name {
		return nil
	}
	if err := RenameDir(r.Name, target, themesDir); err != nil {
		return err
	}
	if r.Directory != "" {
		r.Directory = filepath.Join(themesDir, target)
	}
	r.Name = target
	return nil
}

// RenameDir renames dir/from to dir/to. A missing dir/from is a no-op.
func RenameDir(from, to, dir string) error {
	if from == to {
		return nil
	}
	src := filepath.Join(dir, from)
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("THM_RENAME: %w", err)
	}
	dst := filepath.Join(dir, to)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("THM_RENAME: cannot rename %q to %q: destination exists", from, to)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("THM_RENAME: %w", err)
	}
	return nil
}
