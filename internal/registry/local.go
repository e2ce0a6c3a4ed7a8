package registry

import (
	"fmt"
	"path/filepath"
	"sort"

	"wmtheme/internal/probe"
	"wmtheme/internal/theme"
)

// SyncLocal makes the local registry describe exactly the installed themes
// that no remote registry claims. Names claimed remotely are dropped from
// the local registry; local-only names are upserted through Compare.
func SyncLocal(regs []Registry, themesDir string) error {
	local := -1
	claimed := map[string]struct{}{}
	for i := range regs {
		if regs[i].IsLocal() {
			if local >= 0 {
				return fmt.Errorf("REG_LOCAL: more than one local registry")
			}
			local = i
			continue
		}
		for _, rec := range regs[i].Themes {
			claimed[rec.Name] = struct{}{}
		}
	}
	if local < 0 {
		return fmt.Errorf("REG_LOCAL: no local registry configured")
	}

	installed, err := probe.New(themesDir).SortedInstalled()
	if err != nil {
		return err
	}
	batch := make([]theme.Record, 0, len(installed))
	for _, name := range installed {
		if _, ok := claimed[name]; ok {
			continue
		}
		batch = append(batch, theme.Record{Name: name, Directory: filepath.Join(themesDir, name)})
	}

	reg := &regs[local]
	var stale []string
	for _, rec := range reg.Themes {
		if _, ok := claimed[rec.Name]; ok {
			stale = append(stale, rec.Name)
		}
	}
	sort.Strings(stale)

	schema := reg.SchemaVersion
	if schema == 0 {
		schema = SupportedSchemaVersion
	}
	if err := Compare(reg, Feed{SchemaVersion: schema, Themes: batch}, themesDir); err != nil {
		return err
	}
	for _, name := range stale {
		reg.Remove(name)
	}
	return nil
}
