package theme

import (
	"regexp"
	"strings"

	"wmtheme/internal/apperr"
)

// Record describes one theme as stored in a registry.
type Record struct {
	Name               string       `toml:"name" yaml:"name" json:"name"`
	Description        string       `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	SupportURL         string       `toml:"support_url,omitempty" yaml:"support_url,omitempty" json:"supportUrl,omitempty"`
	Directory          string       `toml:"directory,omitempty" yaml:"directory,omitempty" json:"directory,omitempty"`
	Repository         string       `toml:"repository,omitempty" yaml:"repository,omitempty" json:"repository,omitempty"`
	Commit             *Commit      `toml:"commit,omitempty" yaml:"commit,omitempty" json:"commit,omitempty"`
	Version            string       `toml:"version,omitempty" yaml:"version,omitempty" json:"version,omitempty"`
	CompatibleVersions string       `toml:"compatible_versions,omitempty" yaml:"compatible_versions,omitempty" json:"compatibleVersions,omitempty"`
	Current            bool         `toml:"current,omitempty" yaml:"current,omitempty" json:"current,omitempty"`
	Dependencies       []Dependency `toml:"dependencies,omitempty" yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	RelativeDirectory  string       `toml:"relative_directory,omitempty" yaml:"relative_directory,omitempty" json:"relativeDirectory,omitempty"`

	// Source is the owning registry name. It is attached when records are
	// read out of a configuration and never persisted.
	Source string `toml:"-" yaml:"-" json:"source,omitempty"`
}

// Dependency is an external program a theme expects on PATH.
type Dependency struct {
	Program string `toml:"program" yaml:"program" json:"program"`
	Package string `toml:"package,omitempty" yaml:"package,omitempty" json:"package,omitempty"`
}

func (r Record) IsInstalled() bool {
	return r.Directory != ""
}

// Ref returns the registry-qualified name of the record.
func (r Record) Ref() string {
	if r.Source == "" {
		return r.Name
	}
	return r.Source + "/" + r.Name
}

// Merge overwrites the remotely sourced fields of r with the ones set on in.
// Fields absent from in keep their previous value. Directory and Current are
// not touched; they are owned by reconciliation.
func (r *Record) Merge(in Record) {
	if in.Repository != "" {
		r.Repository = in.Repository
	}
	if in.Description != "" {
		r.Description = in.Description
	}
	if in.SupportURL != "" {
		r.SupportURL = in.SupportURL
	}
	if in.Commit != nil && in.Commit.IsSet() {
		c := *in.Commit
		r.Commit = &c
	}
	if in.Version != "" {
		r.Version = in.Version
	}
	if in.CompatibleVersions != "" {
		r.CompatibleVersions = in.CompatibleVersions
	}
	if in.RelativeDirectory != "" {
		r.RelativeDirectory = in.RelativeDirectory
	}
	if in.Dependencies != nil {
		r.Dependencies = append([]Dependency(nil), in.Dependencies...)
	}
}

// DropEmptyCommit treats a commit decoded from an empty string as absent.
func (r *Record) DropEmptyCommit() {
	if r.Commit != nil && !r.Commit.IsSet() {
		r.Commit = nil
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	if r.Commit != nil {
		c := *r.Commit
		out.Commit = &c
	}
	if r.Dependencies != nil {
		out.Dependencies = append([]Dependency(nil), r.Dependencies...)
	}
	return out
}

var namePattern = regexp.MustCompile(`^[a-z0-9@_+][a-z0-9@._+-]*$`)

// ValidateName enforces the on-disk naming rules for themes.
func ValidateName(name string) error {
	if name == "" {
		return apperr.New("THM_NAME", "theme name is required")
	}
	if strings.Contains(name, "/") {
		return apperr.New("THM_NAME", "theme name %q must not contain '/'", name)
	}
	if name == "current" {
		return apperr.New("THM_NAME", "%q is reserved", name)
	}
	if !namePattern.MatchString(name) {
		return apperr.New("THM_NAME", "theme name %q may only contain lowercase letters, digits and @._+- and must not start with '-' or '.'", name)
	}
	return nil
}
