package config

import "wmtheme/internal/registry"

// Config is the persisted themes.toml document.
type Config struct {
	Host       HostConfig          `toml:"host"`
	Logging    LoggingConfig       `toml:"logging"`
	Registries []registry.Registry `toml:"registries"`

	// Dir is the resolved configuration directory. It holds themes.toml and
	// the themes directory and is never persisted.
	Dir string `toml:"-"`
}

// HostConfig describes how to talk to the window manager.
type HostConfig struct {
	StateCommand  string   `toml:"state_command" json:"stateCommand"`
	VersionPrefix string   `toml:"version_prefix" json:"versionPrefix"`
	ReloadCommand []string `toml:"reload_command" json:"reloadCommand"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}
