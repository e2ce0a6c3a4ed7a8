package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sahilm/fuzzy"

	"wmtheme/internal/apperr"
	"wmtheme/internal/host"
	"wmtheme/internal/probe"
	"wmtheme/internal/resolver"
	"wmtheme/internal/security"
	"wmtheme/internal/source"
	"wmtheme/internal/theme"
)

// ThemeStatus is a record together with its host compatibility.
type ThemeStatus struct {
	theme.Record
	Compatible bool `json:"compatible"`
}

type UpdateResult struct {
	Registries []source.Result `json:"registries"`
	Themes     []ThemeStatus   `json:"themes"`
}

type UpgradedTheme struct {
	Theme string `json:"theme"`
	Error string `json:"error,omitempty"`
}

type UpgradeResult struct {
	Update *UpdateResult   `json:"update,omitempty"`
	Themes []UpgradedTheme `json:"themes"`
}

type InstallResult struct {
	Theme   theme.Record       `json:"theme"`
	Missing []theme.Dependency `json:"missingDependencies,omitempty"`
	Scan    security.Report    `json:"scan"`
}

type UninstallResult struct {
	Theme   theme.Record `json:"theme"`
	Removed bool         `json:"removed"`
}

type ApplyResult struct {
	Theme    theme.Record    `json:"theme"`
	Backup   string          `json:"backup,omitempty"`
	Reloaded bool            `json:"reloaded"`
	Scan     security.Report `json:"scan"`
}

type SearchHit struct {
	theme.Record
	Score int `json:"score"`
}

func (s *Service) queryHostVersion(ctx context.Context) (string, error) {
	if !s.hostQueried {
		s.hostVersion, s.hostVersionErr = s.Host.Version(ctx)
		s.hostQueried = true
	}
	return s.hostVersion, s.hostVersionErr
}

// Compatible reports whether rec accepts the running host version. Themes
// without a declared range accept every host.
func (s *Service) Compatible(ctx context.Context, rec theme.Record) (bool, error) {
	if strings.TrimSpace(rec.CompatibleVersions) == "" {
		return true, nil
	}
	version, err := s.queryHostVersion(ctx)
	if err != nil {
		return false, err
	}
	return host.Matches(rec.CompatibleVersions, version)
}

// MissingDependencies lists the declared programs not found on PATH.
func (s *Service) MissingDependencies(rec theme.Record) []theme.Dependency {
	var missing []theme.Dependency
	for _, dep := range rec.Dependencies {
		if dep.Program == "" {
			continue
		}
		if _, err := s.lookPath(dep.Program); err != nil {
			missing = append(missing, dep)
		}
	}
	return missing
}

func describeDependencies(deps []theme.Dependency) string {
	parts := make([]string, 0, len(deps))
	for _, d := range deps {
		if d.Package != "" && d.Package != d.Program {
			parts = append(parts, d.Program+" (package "+d.Package+")")
			continue
		}
		parts = append(parts, d.Program)
	}
	return strings.Join(parts, ", ")
}

// scanHooks inspects the scripts LeftWM runs for rec and logs what it
// finds.
func (s *Service) scanHooks(rec theme.Record) (security.Report, error) {
	report, err := s.Scanner.Scan(rec.Ref(), rec.Directory)
	if err != nil {
		return security.Report{}, err
	}
	for _, f := range report.Findings {
		s.Logger.Warn("theme hook finding", "theme", rec.Ref(), "file", f.File, "line", f.Line, "severity", f.Severity.String(), "rule", f.RuleID, "description", f.Description)
	}
	return report, nil
}

func (s *Service) checkCompatible(ctx context.Context, rec theme.Record) error {
	ok, err := s.Compatible(ctx, rec)
	if err != nil {
		s.Logger.Debug("compatibility check failed", "theme", rec.Ref(), "error", err)
		return apperr.New("THM_VERSION_CHECK", "could not check whether %s supports this host: %v; use --override-checks to skip", rec.Ref(), err)
	}
	if !ok {
		version, _ := s.queryHostVersion(ctx)
		return apperr.New("THM_INCOMPATIBLE", "%s requires host version %s but %s is installed; use --override-checks to apply anyway", rec.Ref(), rec.CompatibleVersions, version)
	}
	return nil
}

// Update fetches every remote registry, reconciles the configuration with
// the themes directory and returns the known themes. Incompatible themes
// are left out unless includeIncompatible is set.
func (s *Service) Update(ctx context.Context, includeIncompatible bool) (UpdateResult, error) {
	results, err := s.Sources.Update(ctx, s.Config.Registries, s.Config.ThemesDir())
	if err != nil {
		return UpdateResult{}, err
	}
	if err := s.refresh(); err != nil {
		return UpdateResult{}, err
	}
	if err := s.SaveConfig(); err != nil {
		return UpdateResult{}, err
	}

	out := UpdateResult{Registries: results, Themes: []ThemeStatus{}}
	hostKnown := true
	if _, err := s.queryHostVersion(ctx); err != nil {
		hostKnown = false
		s.Logger.Warn("could not read host version; listing every theme", "error", err)
	}
	for _, rec := range s.Config.Themes() {
		compatible := true
		if hostKnown {
			ok, err := s.Compatible(ctx, rec)
			if err != nil {
				s.Logger.Warn("unreadable compatible_versions", "theme", rec.Ref(), "error", err)
			}
			compatible = ok && err == nil
		}
		if !compatible && !includeIncompatible {
			continue
		}
		out.Themes = append(out.Themes, ThemeStatus{Record: rec, Compatible: compatible})
	}
	return out, nil
}

// Upgrade optionally refreshes the registries, then moves every installed
// remote theme to its pinned commit or the newest main. A theme that fails
// is logged and skipped.
func (s *Service) Upgrade(ctx context.Context, skipDBUpdate bool) (UpgradeResult, error) {
	var out UpgradeResult
	if !skipDBUpdate {
		upd, err := s.Update(ctx, true)
		if err != nil {
			return UpgradeResult{}, err
		}
		out.Update = &upd
	} else if err := s.refresh(); err != nil {
		return UpgradeResult{}, err
	}
	out.Themes = []UpgradedTheme{}
	for _, rec := range s.Config.Themes() {
		if !rec.IsInstalled() {
			continue
		}
		if reg, ok := s.Config.FindRegistry(rec.Source); !ok || reg.IsLocal() {
			continue
		}
		item := UpgradedTheme{Theme: rec.Ref()}
		s.Logger.Info("upgrading theme", "theme", rec.Ref())
		if err := s.Installer.Upgrade(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			s.Logger.Error("could not upgrade theme", "theme", rec.Ref(), "error", err)
			item.Error = err.Error()
		}
		out.Themes = append(out.Themes, item)
	}
	return out, nil
}

// Install clones the theme named by raw. When several registries offer it
// the prompter picks one.
func (s *Service) Install(ctx context.Context, raw string, override bool) (InstallResult, error) {
	ref, err := resolver.ParseRef(raw)
	if err != nil {
		return InstallResult{}, err
	}
	if err := s.refresh(); err != nil {
		return InstallResult{}, err
	}
	all := s.Config.Themes()
	candidates := resolver.Candidates(all, ref, func(r theme.Record) bool { return !r.IsInstalled() })
	if len(candidates) == 0 && len(resolver.Candidates(all, ref, nil)) > 0 {
		return InstallResult{}, apperr.New("INS_ALREADY_INSTALLED", "theme %s is already installed", ref)
	}
	rec, err := resolver.Pick(candidates, ref, "theme", s.Prompter)
	if err != nil {
		return InstallResult{}, err
	}
	if !override {
		if err := s.checkCompatible(ctx, rec); err != nil {
			return InstallResult{}, err
		}
	}
	missing := s.MissingDependencies(rec)
	if len(missing) > 0 {
		s.Logger.Warn("theme dependencies missing", "theme", rec.Ref(), "missing", describeDependencies(missing))
	}

	dir, err := s.Installer.Install(ctx, rec)
	if err != nil {
		return InstallResult{}, err
	}
	stored, ok := s.Config.FindTheme(rec.Source, rec.Name)
	if !ok {
		return InstallResult{}, fmt.Errorf("INS_RECORD: %s vanished from the configuration", rec.Ref())
	}
	stored.Directory = dir
	if err := s.SaveConfig(); err != nil {
		return InstallResult{}, err
	}
	rec.Directory = dir
	report, err := s.scanHooks(rec)
	if err != nil {
		return InstallResult{}, err
	}
	return InstallResult{Theme: rec, Missing: missing, Scan: report}, nil
}

// Uninstall removes an installed theme after confirmation.
func (s *Service) Uninstall(raw string, noconfirm bool) (UninstallResult, error) {
	ref, err := resolver.ParseRef(raw)
	if err != nil {
		return UninstallResult{}, err
	}
	if err := s.refresh(); err != nil {
		return UninstallResult{}, err
	}
	candidates := resolver.Candidates(s.Config.Themes(), ref, theme.Record.IsInstalled)
	rec, err := resolver.Pick(candidates, ref, "installed theme", s.Prompter)
	if err != nil {
		return UninstallResult{}, err
	}
	if !noconfirm {
		ok, err := s.Prompter.YesNo(fmt.Sprintf("Are you sure you want to uninstall this theme, located at %s?", rec.Directory))
		if err != nil {
			return UninstallResult{}, err
		}
		if !ok {
			return UninstallResult{Theme: rec}, nil
		}
	}
	if err := s.Installer.Uninstall(rec.Name); err != nil {
		return UninstallResult{}, err
	}
	if reg, ok := s.Config.FindRegistry(rec.Source); ok && reg.IsLocal() && rec.Repository == "" {
		reg.Remove(rec.Name)
	} else if stored, ok := s.Config.FindTheme(rec.Source, rec.Name); ok {
		stored.Directory = ""
		stored.Current = false
	}
	if err := s.refresh(); err != nil {
		return UninstallResult{}, err
	}
	if err := s.SaveConfig(); err != nil {
		return UninstallResult{}, err
	}
	rec.Directory = ""
	rec.Current = false
	return UninstallResult{Theme: rec, Removed: true}, nil
}

// Apply makes an installed theme current and asks the host to reload
// unless noReset is set.
func (s *Service) Apply(ctx context.Context, raw string, noReset, override bool) (ApplyResult, error) {
	ref, err := resolver.ParseRef(raw)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := s.refresh(); err != nil {
		return ApplyResult{}, err
	}
	candidates := resolver.Candidates(s.Config.Themes(), ref, theme.Record.IsInstalled)
	rec, err := resolver.Pick(candidates, ref, "installed theme", s.Prompter)
	if err != nil {
		return ApplyResult{}, err
	}
	if !override {
		if err := s.checkCompatible(ctx, rec); err != nil {
			return ApplyResult{}, err
		}
		if missing := s.MissingDependencies(rec); len(missing) > 0 {
			return ApplyResult{}, apperr.New("DEP_MISSING", "%s needs programs that are not installed: %s; use --override-checks to apply anyway", rec.Ref(), describeDependencies(missing))
		}
	}
	report, err := s.scanHooks(rec)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := security.Enforce(report, override); err != nil {
		return ApplyResult{}, err
	}
	backup, err := s.Installer.Apply(rec.Name)
	if err != nil {
		return ApplyResult{}, err
	}
	if backup != "" {
		s.Logger.Warn("moved unmanaged current aside", "backup", backup)
	}
	if err := s.Config.SetCurrent(rec.Source, rec.Name); err != nil {
		return ApplyResult{}, err
	}
	if err := s.SaveConfig(); err != nil {
		return ApplyResult{}, err
	}
	rec.Current = true
	out := ApplyResult{Theme: rec, Backup: backup, Scan: report}
	if !noReset {
		if err := s.Host.Reload(ctx); err != nil {
			s.Logger.Warn("could not reload host", "error", err)
		} else {
			out.Reloaded = true
		}
	}
	return out, nil
}

// List returns the installed themes, remote registries first.
func (s *Service) List() ([]theme.Record, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	out := []theme.Record{}
	for _, rec := range s.Config.Themes() {
		if rec.IsInstalled() {
			out = append(out, rec)
		}
	}
	return out, nil
}

// New creates an empty local theme repository and records it in the
// local registry.
func (s *Service) New(ctx context.Context, name string) (theme.Record, error) {
	if err := theme.ValidateName(name); err != nil {
		return theme.Record{}, err
	}
	if len(s.Config.FindThemes(name)) > 0 {
		return theme.Record{}, apperr.New("NEW_EXISTS", "a theme named %s already exists", name)
	}
	dir, err := s.Installer.New(ctx, name)
	if err != nil {
		return theme.Record{}, err
	}
	local := s.Config.Local()
	rec := theme.Record{Name: name, Directory: dir}
	local.Upsert(rec)
	if err := s.SaveConfig(); err != nil {
		return theme.Record{}, err
	}
	rec.Source = local.Name
	return rec, nil
}

// Search ranks every known theme name against query.
func (s *Service) Search(query string) []SearchHit {
	records := s.Config.Themes()
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	hits := []SearchHit{}
	for _, m := range fuzzy.Find(query, names) {
		hits = append(hits, SearchHit{Record: records[m.Index], Score: m.Score})
	}
	return hits
}

// Support returns the support page of the theme named by raw.
func (s *Service) Support(raw string) (string, error) {
	ref, err := resolver.ParseRef(raw)
	if err != nil {
		return "", err
	}
	rec, err := resolver.Pick(resolver.Candidates(s.Config.Themes(), ref, nil), ref, "theme", s.Prompter)
	if err != nil {
		return "", err
	}
	if rec.SupportURL == "" {
		return "", apperr.New("SUP_NONE", "theme %s does not have an associated help page", rec.Ref())
	}
	return rec.SupportURL, nil
}

// OpenSupport opens the support page of raw in the desktop browser.
func (s *Service) OpenSupport(raw string) (string, error) {
	url, err := s.Support(raw)
	if err != nil {
		return "", err
	}
	if err := s.openURL(url); err != nil {
		return url, fmt.Errorf("SUP_OPEN: %w", err)
	}
	return url, nil
}

// currentDir locates the applied theme: the record marked current, or
// else the target of the current link.
func (s *Service) currentDir() (string, error) {
	for _, rec := range s.Config.Themes() {
		if rec.Current && rec.IsInstalled() {
			return rec.Directory, nil
		}
	}
	name, ok, err := probe.New(s.Config.ThemesDir()).CurrentThemeName()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.New("CUR_NONE", "no theme is applied")
	}
	return filepath.Join(s.Config.ThemesDir(), name), nil
}

// Current reads a top-level field of the applied theme's theme.toml.
func (s *Service) Current(field string) (any, error) {
	dir, err := s.currentDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "theme.toml")
	blob, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.New("CUR_NO_FILE", "the applied theme has no theme.toml at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("CUR_READ: %w", err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(blob, &doc); err != nil {
		return nil, apperr.New("CUR_PARSE", "could not parse %s: %v", path, err)
	}
	value, ok := doc[field]
	if !ok {
		return nil, apperr.New("CUR_FIELD", "that field was not found")
	}
	return value, nil
}
