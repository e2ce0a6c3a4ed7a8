package registry

import (
	"wmtheme/internal/apperr"
	"wmtheme/internal/theme"
)

// SupportedSchemaVersion is the newest theme-entry shape this binary reads.
const SupportedSchemaVersion = 1

// LocalName is the persisted name of the local registry.
const LocalName = "LOCAL"

// LocalURL is the placeholder fetch location of the local registry.
const LocalURL = "localhost"

// ErrDefinitionsOutOfDate is returned when a registry was written with a
// schema newer than SupportedSchemaVersion.
var ErrDefinitionsOutOfDate error = &apperr.Friendly{
	Code:    "REG_DEFINITIONS_OUT_OF_DATE",
	Message: "theme definitions are newer than this version of wmtheme understands; please upgrade wmtheme",
}

type Kind string

const (
	KindRemote Kind = "remote"
	KindLocal  Kind = "local"
)

// Registry is one named source of theme records.
type Registry struct {
	Name          string         `toml:"name" json:"name"`
	Kind          Kind           `toml:"kind" json:"kind"`
	URL           string         `toml:"url" json:"url"`
	SchemaVersion int            `toml:"schema_version" json:"schemaVersion"`
	Themes        []theme.Record `toml:"themes" json:"themes"`
}

// NewLocal returns an empty local registry.
func NewLocal() Registry {
	return Registry{Name: LocalName, Kind: KindLocal, URL: LocalURL, SchemaVersion: SupportedSchemaVersion, Themes: []theme.Record{}}
}

func (r Registry) IsLocal() bool {
	return r.Kind == KindLocal
}

// Find returns the index of the record named name, or -1.
func (r Registry) Find(name string) int {
	for i := range r.Themes {
		if r.Themes[i].Name == name {
			return i
		}
	}
	return -1
}

func (r Registry) Has(name string) bool {
	return r.Find(name) >= 0
}

// Upsert merges rec into the registry by name, appending when new.
func (r *Registry) Upsert(rec theme.Record) {
	rec.Source = ""
	if i := r.Find(rec.Name); i >= 0 {
		r.Themes[i].Merge(rec)
		r.Themes[i].Directory = rec.Directory
		r.Themes[i].Current = rec.Current
		return
	}
	r.Themes = append(r.Themes, rec.Clone())
}

// Remove deletes the record named name. It reports whether one was found.
func (r *Registry) Remove(name string) bool {
	i := r.Find(name)
	if i < 0 {
		return false
	}
	r.Themes = append(r.Themes[:i], r.Themes[i+1:]...)
	return true
}

// Feed is a parsed batch of remote theme records.
type Feed struct {
	SchemaVersion int            `toml:"definitions_version" yaml:"definitions_version"`
	Themes        []theme.Record `toml:"theme" yaml:"theme"`
}
