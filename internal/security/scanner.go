// Package security scans the hook scripts a theme runs when it is applied
// or removed, and guards paths taken from registry feeds.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"wmtheme/internal/apperr"
)

// Severity levels for scan findings, ordered by impact.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Finding struct {
	RuleID      string   `json:"ruleId"`
	Severity    Severity `json:"severity"`
	File        string   `json:"file"`
	Line        int      `json:"line,omitempty"`
	Description string   `json:"description"`
}

type Report struct {
	Theme    string    `json:"theme"`
	Files    []string  `json:"files"`
	Findings []Finding `json:"findings"`
}

// MaxSeverity returns the highest severity across all findings.
func (r Report) MaxSeverity() Severity {
	max := SeverityInfo
	for _, f := range r.Findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}

// Script is one hook file read from a theme directory.
type Script struct {
	Path    string
	Mode    fs.FileMode
	Content string
}

// Rule inspects one script.
type Rule interface {
	ID() string
	Scan(script Script) []Finding
}

// HookNames are the scripts LeftWM runs when a theme goes up or down.
var HookNames = []string{"up", "down"}

const maxScriptSize = 1 << 20

type Scanner struct {
	rules []Rule
}

func NewScanner() *Scanner {
	return &Scanner{rules: builtinRules()}
}

// Scan reads the hook scripts and top-level *.sh files of dir.
func (s *Scanner) Scan(name, dir string) (Report, error) {
	report := Report{Theme: name, Files: []string{}, Findings: []Finding{}}
	scripts, err := readScripts(dir)
	if err != nil {
		return report, err
	}
	for _, script := range scripts {
		report.Files = append(report.Files, script.Path)
		for _, rule := range s.rules {
			report.Findings = append(report.Findings, rule.Scan(script)...)
		}
	}
	return report, nil
}

func readScripts(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("SEC_SCAN: %w", err)
	}
	hooks := map[string]bool{}
	for _, h := range HookNames {
		hooks[h] = true
	}
	var out []Script
	for _, e := range entries {
		if !hooks[e.Name()] && !strings.HasSuffix(e.Name(), ".sh") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			out = append(out, Script{Path: e.Name(), Mode: fs.ModeSymlink})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("SEC_SCAN: %w", err)
		}
		if info.IsDir() {
			continue
		}
		script := Script{Path: e.Name(), Mode: info.Mode()}
		if info.Size() <= maxScriptSize {
			blob, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("SEC_SCAN: %w", err)
			}
			script.Content = string(blob)
		}
		out = append(out, script)
	}
	return out, nil
}

// Enforce refuses reports at or above high severity unless override is
// set. Critical findings are never overridable.
func Enforce(report Report, override bool) error {
	max := report.MaxSeverity()
	if max == SeverityCritical {
		return apperr.New("SEC_SCAN_CRITICAL", "%s: %s", report.Theme, formatFindings(report, SeverityCritical))
	}
	if max >= SeverityHigh && !override {
		return apperr.New("SEC_SCAN_BLOCKED", "%s: %s; use --override-checks to proceed", report.Theme, formatFindings(report, SeverityHigh))
	}
	return nil
}

func formatFindings(report Report, minSeverity Severity) string {
	var parts []string
	for _, f := range report.Findings {
		if f.Severity < minSeverity {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s] %s:%d %s", strings.ToUpper(f.Severity.String()), f.File, f.Line, f.Description))
	}
	switch len(parts) {
	case 0:
		return "no findings"
	case 1:
		return parts[0]
	}
	return fmt.Sprintf("%d findings: %s", len(parts), strings.Join(parts, "; "))
}
