package config

import (
	"fmt"
	"strings"

	"wmtheme/internal/registry"
	"wmtheme/internal/theme"
)

// ThemesDir is the themes directory of this configuration.
func (c Config) ThemesDir() string {
	return ThemesDir(c.Dir)
}

func (c *Config) FindRegistry(name string) (*registry.Registry, bool) {
	for i := range c.Registries {
		if c.Registries[i].Name == name {
			return &c.Registries[i], true
		}
	}
	return nil, false
}

// Local returns the local registry.
func (c *Config) Local() *registry.Registry {
	for i := range c.Registries {
		if c.Registries[i].IsLocal() {
			return &c.Registries[i]
		}
	}
	c.Registries = append(c.Registries, registry.NewLocal())
	return &c.Registries[len(c.Registries)-1]
}

func (c *Config) AddRegistry(name, url string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
		return fmt.Errorf("CFG_REGISTRY: name and url are required")
	}
	if strings.TrimSpace(name) != name || strings.ContainsAny(name, "/ \t") {
		return fmt.Errorf("CFG_REGISTRY: registry name %q must not contain '/' or spaces", name)
	}
	if _, ok := c.FindRegistry(name); ok {
		return fmt.Errorf("CFG_REGISTRY: registry %q already exists", name)
	}
	c.Registries = append(c.Registries, registry.Registry{Name: name, Kind: registry.KindRemote, URL: url, Themes: []theme.Record{}})
	return Validate(Normalize(*c))
}

func (c *Config) RemoveRegistry(name string) error {
	for i := range c.Registries {
		if c.Registries[i].Name != name {
			continue
		}
		if c.Registries[i].IsLocal() {
			return fmt.Errorf("CFG_REGISTRY: the local registry cannot be removed")
		}
		c.Registries = append(c.Registries[:i], c.Registries[i+1:]...)
		return nil
	}
	return fmt.Errorf("CFG_REGISTRY: registry %q not found", name)
}

// Themes returns copies of every record with Source attached. Remote
// registries come first, in configuration order.
func (c Config) Themes() []theme.Record {
	var out []theme.Record
	for _, local := range []bool{false, true} {
		for _, r := range c.Registries {
			if r.IsLocal() != local {
				continue
			}
			for _, rec := range r.Themes {
				cp := rec.Clone()
				cp.Source = r.Name
				out = append(out, cp)
			}
		}
	}
	return out
}

// FindThemes returns every record named name across registries.
func (c Config) FindThemes(name string) []theme.Record {
	var out []theme.Record
	for _, rec := range c.Themes() {
		if rec.Name == name {
			out = append(out, rec)
		}
	}
	return out
}

// FindTheme returns the stored record for (source, name) for mutation.
func (c *Config) FindTheme(source, name string) (*theme.Record, bool) {
	reg, ok := c.FindRegistry(source)
	if !ok {
		return nil, false
	}
	i := reg.Find(name)
	if i < 0 {
		return nil, false
	}
	return &reg.Themes[i], true
}

// SetCurrent marks (source, name) as the only current theme.
func (c *Config) SetCurrent(source, name string) error {
	rec, ok := c.FindTheme(source, name)
	if !ok {
		return fmt.Errorf("CFG_CURRENT: theme %s/%s not found", source, name)
	}
	c.clearCurrent()
	rec.Current = true
	return nil
}

func (c *Config) clearCurrent() {
	for i := range c.Registries {
		for j := range c.Registries[i].Themes {
			c.Registries[i].Themes[j].Current = false
		}
	}
}

// EnforceSingleCurrent keeps the first installed current record (remote
// registries first) and clears every other current flag.
func (c *Config) EnforceSingleCurrent() {
	found := false
	for _, local := range []bool{false, true} {
		for i := range c.Registries {
			if c.Registries[i].IsLocal() != local {
				continue
			}
			for j := range c.Registries[i].Themes {
				rec := &c.Registries[i].Themes[j]
				if !rec.Current {
					continue
				}
				if found || rec.Directory == "" {
					rec.Current = false
					continue
				}
				found = true
			}
		}
	}
}

// SyncLocal reconciles the local registry with the themes directory.
func (c *Config) SyncLocal() error {
	c.Local()
	return registry.SyncLocal(c.Registries, c.ThemesDir())
}
