package security

import (
	"io/fs"
	"regexp"
	"strings"
)

func builtinRules() []Rule {
	return []Rule{
		&DangerousPatternRule{},
		&HookModeRule{},
	}
}

type patternDef struct {
	Pattern     *regexp.Regexp
	Severity    Severity
	Description string
}

// DangerousPatternRule flags shell lines that have no business in a
// theme hook.
type DangerousPatternRule struct{}

func (r *DangerousPatternRule) ID() string { return "SCAN_DANGEROUS_PATTERN" }

var dangerousPatterns = []patternDef{
	{regexp.MustCompile(`rm\s+-rf\s+/(?:\s|$)`), SeverityCritical, "destructive file deletion (rm -rf /)"},
	{regexp.MustCompile(`rm\s+-rf\s+(?:~|\$HOME)/?(?:\s|$)`), SeverityCritical, "home directory deletion"},
	{regexp.MustCompile(`(?:curl|wget)\s+[^|]*\|\s*(?:ba|z)?sh\b`), SeverityCritical, "remote code piped into a shell"},
	{regexp.MustCompile(`base64\s+(?:-d|--decode)[^|]*\|\s*(?:ba|z)?sh\b`), SeverityCritical, "obfuscated code execution"},
	{regexp.MustCompile(`mkfifo\b.*\bnc\b|\bnc\b.*-e\s+/bin/`), SeverityCritical, "reverse shell"},
	{regexp.MustCompile(`/etc/shadow`), SeverityCritical, "access to /etc/shadow"},
	{regexp.MustCompile(`\bxmrig\b|stratum\+tcp://`), SeverityCritical, "crypto mining indicator"},

	{regexp.MustCompile(`(?:~|\$HOME)/\.ssh/`), SeverityHigh, "reads ssh keys"},
	{regexp.MustCompile(`curl\s+.*(?:-d|--data)\s`), SeverityHigh, "uploads data with curl"},
	{regexp.MustCompile(`wget\s+--post-data`), SeverityHigh, "uploads data with wget"},
	{regexp.MustCompile(`git\s+config\s+--global`), SeverityHigh, "modifies global git config"},
	{regexp.MustCompile(`\bcrontab\b`), SeverityHigh, "installs a cron job"},

	{regexp.MustCompile(`\bsudo\b|\bdoas\b`), SeverityMedium, "runs commands as root"},
	{regexp.MustCompile(`(?:pacman|apt(?:-get)?|dnf|pip|npm)\s+install\b|pacman\s+-S\b`), SeverityMedium, "installs packages"},
	{regexp.MustCompile(`\bcurl\b|\bwget\b`), SeverityLow, "downloads from the network"},
}

func (r *DangerousPatternRule) Scan(script Script) []Finding {
	var findings []Finding
	lines := strings.Split(script.Content, "\n")
	for _, p := range dangerousPatterns {
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			if p.Pattern.MatchString(line) {
				findings = append(findings, Finding{
					RuleID:      r.ID(),
					Severity:    p.Severity,
					File:        script.Path,
					Line:        i + 1,
					Description: p.Description,
				})
				break
			}
		}
	}
	return findings
}

// HookModeRule reports hooks LeftWM will not be able to run.
type HookModeRule struct{}

func (r *HookModeRule) ID() string { return "SCAN_HOOK_MODE" }

func (r *HookModeRule) Scan(script Script) []Finding {
	isHook := false
	for _, h := range HookNames {
		if script.Path == h {
			isHook = true
		}
	}
	if !isHook {
		return nil
	}
	switch {
	case script.Mode&fs.ModeSymlink != 0:
		return []Finding{{RuleID: r.ID(), Severity: SeverityMedium, File: script.Path, Description: "hook is a dangling symlink"}}
	case script.Mode.Perm()&0o111 == 0:
		return []Finding{{RuleID: r.ID(), Severity: SeverityLow, File: script.Path, Description: "hook is not executable"}}
	}
	return nil
}
