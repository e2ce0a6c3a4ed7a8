// Package resolver turns a "[registry/]name" argument into one theme record.
package resolver

import (
	"strings"

	"wmtheme/internal/apperr"
	"wmtheme/internal/theme"
)

// Ref is a parsed theme reference. Registry is empty when unqualified.
type Ref struct {
	Registry string
	Name     string
}

func (r Ref) String() string {
	if r.Registry == "" {
		return r.Name
	}
	return r.Registry + "/" + r.Name
}

func ParseRef(raw string) (Ref, error) {
	in := strings.TrimSpace(raw)
	if in == "" {
		return Ref{}, apperr.New("RES_REF", "a theme name is required")
	}
	reg, name, qualified := strings.Cut(in, "/")
	if !qualified {
		name, reg = reg, ""
	}
	if qualified && strings.TrimSpace(reg) == "" {
		return Ref{}, apperr.New("RES_REF", "expected [registry/]name, got %q", raw)
	}
	if err := theme.ValidateName(name); err != nil {
		return Ref{}, err
	}
	return Ref{Registry: reg, Name: name}, nil
}

// Matches reports whether rec is named by ref.
func (r Ref) Matches(rec theme.Record) bool {
	if rec.Name != r.Name {
		return false
	}
	return r.Registry == "" || rec.Source == r.Registry
}

// Candidates returns the records named by ref that pass keep.
func Candidates(records []theme.Record, ref Ref, keep func(theme.Record) bool) []theme.Record {
	var out []theme.Record
	for _, rec := range records {
		if !ref.Matches(rec) {
			continue
		}
		if keep != nil && !keep(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Chooser asks the user to pick one of several options.
type Chooser interface {
	Choose(question string, options []string) (int, error)
}

// Pick returns the single candidate, or asks chooser when several
// registries offer the same name. what describes the candidates in the
// not-found message, e.g. "uninstalled theme".
func Pick(candidates []theme.Record, ref Ref, what string, chooser Chooser) (theme.Record, error) {
	switch len(candidates) {
	case 0:
		return theme.Record{}, apperr.New("RES_NOT_FOUND", "no %s named %s found", what, ref)
	case 1:
		return candidates[0], nil
	}
	if chooser == nil {
		return theme.Record{}, apperr.New("RES_AMBIGUOUS", "%s is offered by several registries; use registry/name", ref)
	}
	options := make([]string, len(candidates))
	for i, rec := range candidates {
		options[i] = rec.Ref()
	}
	idx, err := chooser.Choose("Several themes are named "+ref.Name+". Which one?", options)
	if err != nil {
		return theme.Record{}, err
	}
	if idx < 0 || idx >= len(candidates) {
		return theme.Record{}, apperr.New("RES_AMBIGUOUS", "no theme selected")
	}
	return candidates[idx], nil
}
