package registry

import (
	"fmt"

	"wmtheme/internal/probe"
	"wmtheme/internal/theme"
)

// Compare merges feed into reg, annotating every record with the install
// and current state observed under themesDir. Records are never removed.
// On a schema gate failure reg is left untouched.
func Compare(reg *Registry, feed Feed, themesDir string) error {
	if reg == nil {
		return fmt.Errorf("REG_COMPARE: nil registry")
	}
	if err := CheckSchema(reg.SchemaVersion, feed.SchemaVersion); err != nil {
		return fmt.Errorf("%w (registry %q)", err, reg.Name)
	}

	incoming := make([]theme.Record, 0, len(feed.Themes))
	for _, in := range feed.Themes {
		rec := in.Clone()
		if err := theme.ApplyChanges(&rec, themesDir); err != nil {
			return err
		}
		incoming = append(incoming, rec)
	}

	snap, err := probe.New(themesDir).Snapshot()
	if err != nil {
		return err
	}

	next := Registry{
		Name:          reg.Name,
		Kind:          reg.Kind,
		URL:           reg.URL,
		SchemaVersion: feed.SchemaVersion,
		Themes:        make([]theme.Record, 0, len(reg.Themes)+len(incoming)),
	}
	for _, rec := range reg.Themes {
		next.Themes = append(next.Themes, rec.Clone())
	}
	for _, rec := range incoming {
		rec.Directory = snap.DirectoryFor(rec.Name)
		rec.Current = snap.IsCurrent(rec.Name)
		next.Upsert(rec)
	}
	Annotate(&next, snap)

	*reg = next
	return nil
}

// Annotate refreshes directory and current of every record from snap.
func Annotate(reg *Registry, snap probe.Snapshot) {
	for i := range reg.Themes {
		name := reg.Themes[i].Name
		reg.Themes[i].Directory = snap.DirectoryFor(name)
		reg.Themes[i].Current = snap.IsCurrent(name)
	}
}

// CheckSchema enforces the forward-compatibility gate.
func CheckSchema(versions ...int) error {
	for _, v := range versions {
		if v > SupportedSchemaVersion {
			return fmt.Errorf("%w: schema version %d > %d", ErrDefinitionsOutOfDate, v, SupportedSchemaVersion)
		}
	}
	return nil
}
