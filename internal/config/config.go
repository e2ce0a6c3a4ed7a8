package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"wmtheme/internal/apperr"
	"wmtheme/internal/fsutil"
)

// Ensure loads the configuration in dir, writing the default one first when
// no file exists. An empty dir resolves to DefaultDir.
func Ensure(dir string) (Config, error) {
	dir, err := resolveDir(dir)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Load(dir)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	cfg = DefaultConfig()
	cfg.Dir = dir
	if err := Save(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load(dir string) (Config, error) {
	dir, err := resolveDir(dir)
	if err != nil {
		return Config{}, err
	}
	path := FilePath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, apperr.New("CFG_PARSE", "could not parse %s: %v", path, err)
	}
	cfg = Normalize(cfg)
	cfg.Dir = dir
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Save(cfg Config) error {
	if cfg.Dir == "" {
		return fmt.Errorf("CFG_SAVE: configuration directory not set")
	}
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("CFG_SAVE: %w", err)
	}
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("CFG_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(FilePath(cfg.Dir), blob, 0o644)
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		return DefaultDir()
	}
	return ExpandPath(dir)
}
