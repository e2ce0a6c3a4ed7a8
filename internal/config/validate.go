package config

import (
	"fmt"

	"wmtheme/internal/registry"
)

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var allowedLogFormats = map[string]struct{}{
	"text": {},
	"json": {},
}

func Validate(cfg Config) error {
	if cfg.Host.StateCommand == "" {
		return fmt.Errorf("CFG_HOST: missing state command")
	}
	if _, ok := allowedLogLevels[cfg.Logging.Level]; !ok {
		return fmt.Errorf("CFG_LOGGING: invalid log level %q", cfg.Logging.Level)
	}
	if _, ok := allowedLogFormats[cfg.Logging.Format]; !ok {
		return fmt.Errorf("CFG_LOGGING: invalid log format %q", cfg.Logging.Format)
	}

	names := map[string]struct{}{}
	locals := 0
	for _, r := range cfg.Registries {
		if r.Name == "" {
			return fmt.Errorf("CFG_REGISTRY: registry name is required")
		}
		if _, ok := names[r.Name]; ok {
			return fmt.Errorf("CFG_REGISTRY: duplicate registry name %q", r.Name)
		}
		names[r.Name] = struct{}{}
		switch r.Kind {
		case registry.KindLocal:
			locals++
		case registry.KindRemote:
			if r.URL == "" {
				return fmt.Errorf("CFG_REGISTRY: registry %q missing url", r.Name)
			}
		default:
			return fmt.Errorf("CFG_REGISTRY: registry %q has unsupported kind %q", r.Name, r.Kind)
		}
		if err := registry.CheckSchema(r.SchemaVersion); err != nil {
			return fmt.Errorf("%w (registry %q)", err, r.Name)
		}
		themes := map[string]struct{}{}
		for _, rec := range r.Themes {
			if rec.Name == "" {
				return fmt.Errorf("CFG_REGISTRY: registry %q has a theme without a name", r.Name)
			}
			if _, ok := themes[rec.Name]; ok {
				return fmt.Errorf("CFG_REGISTRY: registry %q lists theme %q twice", r.Name, rec.Name)
			}
			themes[rec.Name] = struct{}{}
		}
	}
	if locals != 1 {
		return fmt.Errorf("CFG_REGISTRY: expected exactly one local registry, found %d", locals)
	}
	return nil
}
