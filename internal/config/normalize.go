package config

import "wmtheme/internal/registry"

func Normalize(cfg Config) Config {
	if cfg.Host.StateCommand == "" {
		cfg.Host.StateCommand = defaultStateCommand
	}
	if cfg.Host.VersionPrefix == "" {
		cfg.Host.VersionPrefix = defaultVersionPrefix
	}
	if len(cfg.Host.ReloadCommand) == 0 {
		cfg.Host.ReloadCommand = append([]string(nil), defaultReloadCommand...)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLogFormat
	}
	hasLocal := false
	for i := range cfg.Registries {
		r := &cfg.Registries[i]
		if r.Kind == "" {
			// files written before registries carried a kind
			if r.Name == registry.LocalName {
				r.Kind = registry.KindLocal
			} else {
				r.Kind = registry.KindRemote
			}
		}
		if r.Kind == registry.KindLocal {
			hasLocal = true
			if r.URL == "" {
				r.URL = registry.LocalURL
			}
		}
		for j := range r.Themes {
			r.Themes[j].Source = ""
			r.Themes[j].DropEmptyCommit()
		}
	}
	if !hasLocal {
		cfg.Registries = append(cfg.Registries, registry.NewLocal())
	}
	return cfg
}
