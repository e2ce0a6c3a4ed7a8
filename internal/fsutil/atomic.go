package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AtomicWrite writes data to path using a tmp+rename strategy.
// If rename fails, the tmp file is cleaned up.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// ReplaceSymlink points link at target by creating a sibling link and
// renaming it over link. An existing symlink is replaced in one step; any
// other existing entry is rejected.
func ReplaceSymlink(target, link string) error {
	if info, err := os.Lstat(link); err == nil && info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("replace symlink: %s exists and is not a symlink", link)
	}
	tmp := filepath.Join(filepath.Dir(link), "."+filepath.Base(link)+".tmp-"+strconv.FormatInt(time.Now().UnixNano(), 10))
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("swap symlink: %w", err)
	}
	return nil
}

// MoveAside renames path to a hidden backup next to it and returns the
// backup location.
func MoveAside(path string) (string, error) {
	backup := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".bak-"+strconv.FormatInt(time.Now().UnixNano(), 10))
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}
