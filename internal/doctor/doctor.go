// Package doctor builds the status report: what is applied, what is
// installed and whether the configuration agrees with the disk.
package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"wmtheme/internal/audit"
	"wmtheme/internal/config"
	"wmtheme/internal/host"
	"wmtheme/internal/probe"
	"wmtheme/internal/theme"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy     bool          `json:"healthy"`
	Current     *theme.Record `json:"current,omitempty"`
	CurrentLink string        `json:"currentLink,omitempty"`
	Installed   []string      `json:"installed"`
	Known       int           `json:"known"`
	HostVersion string        `json:"hostVersion,omitempty"`
	LastChange  *audit.Event  `json:"lastChange,omitempty"`
	Findings    []Finding     `json:"findings"`
}

// VersionSource reports the running host version.
type VersionSource interface {
	Version(ctx context.Context) (string, error)
}

type Service struct {
	Config config.Config
	Host   VersionSource
	Audit  *audit.Logger
}

func (s *Service) Run(ctx context.Context) Report {
	report := Report{Installed: []string{}, Findings: []Finding{}}
	add := func(code, level, msg string) {
		report.Findings = append(report.Findings, Finding{Code: code, Level: level, Message: msg})
	}

	themesDir := s.Config.ThemesDir()
	snap, err := probe.New(themesDir).Snapshot()
	if err != nil {
		add("DOC_THEMES_DIR", "error", err.Error())
	}
	for name := range snap.Installed {
		report.Installed = append(report.Installed, name)
	}
	sort.Strings(report.Installed)

	records := s.Config.Themes()
	report.Known = len(records)
	tracked := map[string]bool{}
	remoteNames := map[string]bool{}
	var currents []theme.Record
	for _, rec := range records {
		tracked[rec.Name] = true
		if reg, ok := s.Config.FindRegistry(rec.Source); ok && !reg.IsLocal() {
			remoteNames[rec.Name] = true
		}
		if rec.IsInstalled() && !snap.IsInstalled(rec.Name) {
			add("DOC_MISSING_DIR", "warn", rec.Ref()+" is recorded as installed but "+rec.Directory+" is missing; run update")
		}
		if rec.Current {
			currents = append(currents, rec)
		}
	}
	for _, rec := range s.Config.Local().Themes {
		if remoteNames[rec.Name] {
			add("DOC_LOCAL_CLAIMED", "warn", rec.Name+" is listed locally but is also offered by a remote registry; run update")
		}
	}
	for _, name := range report.Installed {
		if !tracked[name] {
			add("DOC_UNTRACKED", "info", name+" is installed but not tracked; run update")
		}
	}

	switch len(currents) {
	case 0:
	case 1:
		cur := currents[0]
		report.Current = &cur
	default:
		add("DOC_MULTIPLE_CURRENT", "error", "more than one theme is marked current")
		cur := currents[0]
		report.Current = &cur
	}

	s.checkCurrentLink(&report, themesDir, add)

	if s.Host != nil {
		version, err := s.Host.Version(ctx)
		if err != nil {
			add("DOC_HOST_VERSION", "warn", "could not read host version: "+err.Error())
		} else {
			report.HostVersion = version
			if report.Current != nil && report.Current.CompatibleVersions != "" {
				ok, err := host.Matches(report.Current.CompatibleVersions, version)
				switch {
				case err != nil:
					add("DOC_VERSION_RANGE", "warn", report.Current.Ref()+": "+err.Error())
				case !ok:
					add("DOC_INCOMPATIBLE", "warn", report.Current.Ref()+" expects host "+report.Current.CompatibleVersions+", running "+version)
				}
			}
		}
	}

	if ev, ok, err := s.Audit.Last(); err != nil {
		add("DOC_AUDIT", "info", "could not read audit log: "+err.Error())
	} else if ok {
		report.LastChange = &ev
	}

	report.Healthy = true
	for _, f := range report.Findings {
		if f.Level == "error" {
			report.Healthy = false
			break
		}
	}
	return report
}

func (s *Service) checkCurrentLink(report *Report, themesDir string, add func(code, level, msg string)) {
	link := filepath.Join(themesDir, probe.CurrentLink)
	info, err := os.Lstat(link)
	switch {
	case errors.Is(err, os.ErrNotExist):
		add("DOC_NO_CURRENT", "warn", "no theme is applied")
		return
	case err != nil:
		add("DOC_CURRENT", "error", err.Error())
		return
	case info.Mode()&os.ModeSymlink == 0:
		add("DOC_CURRENT_FOREIGN", "warn", link+" is not managed by wmtheme; apply a theme to replace it")
		return
	}
	target, err := os.Readlink(link)
	if err == nil {
		report.CurrentLink = target
	}
	if _, err := os.Stat(link); err != nil {
		add("DOC_CURRENT_DANGLING", "warn", link+" points at a missing directory")
		return
	}
	if report.Current == nil {
		add("DOC_CURRENT_UNKNOWN", "warn", "the applied theme is not known to any registry; run update")
	}
}
