package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileName     = "themes.toml"
	themesDir    = "themes"
	auditLogName = "wmtheme-audit.log"
	envConfigDir = "WMTHEME_CONFIG_DIR"
)

// DefaultDir resolves the configuration directory: $WMTHEME_CONFIG_DIR, or
// the platform config home joined with "leftwm".
func DefaultDir() (string, error) {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return ExpandPath(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Join(errors.New("CFG_DIR: cannot resolve config home"), err)
	}
	return filepath.Join(base, "leftwm"), nil
}

// FilePath is the location of themes.toml inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, fileName)
}

// ThemesDir is the directory holding installed themes.
func ThemesDir(dir string) string {
	return filepath.Join(dir, themesDir)
}

func AuditPath(dir string) string {
	return filepath.Join(dir, auditLogName)
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return filepath.Clean(path), nil
}
