package config

import (
	"wmtheme/internal/registry"
	"wmtheme/internal/theme"
)

const (
	CommunityRegistryName = "community"
	CommunityRegistryURL  = "https://raw.githubusercontent.com/leftwm/leftwm-community-themes/master/known.toml"

	defaultStateCommand  = "leftwm-state"
	defaultVersionPrefix = "LeftWM State "
	defaultLogLevel      = "warn"
	defaultLogFormat     = "text"
)

var defaultReloadCommand = []string{"leftwm-command", "SoftReload"}

// DefaultConfig returns a configuration with the community registry and an
// empty local registry.
func DefaultConfig() Config {
	return Config{
		Host: HostConfig{
			StateCommand:  defaultStateCommand,
			VersionPrefix: defaultVersionPrefix,
			ReloadCommand: append([]string(nil), defaultReloadCommand...),
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Registries: []registry.Registry{
			{
				Name:          CommunityRegistryName,
				Kind:          registry.KindRemote,
				URL:           CommunityRegistryURL,
				SchemaVersion: registry.SupportedSchemaVersion,
				Themes:        []theme.Record{},
			},
			registry.NewLocal(),
		},
	}
}
