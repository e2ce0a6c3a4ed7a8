package host

import (
	"strconv"
	"strings"

	msemver "github.com/Masterminds/semver/v3"
	"golang.org/x/mod/semver"
)

// SemVerError reports an unparseable version or version range.
type SemVerError struct {
	Input  string
	Reason string
}

func (e *SemVerError) Error() string {
	return "HOST_SEMVER: " + strconv.Quote(e.Input) + ": " + e.Reason
}

// Matches reports whether version satisfies the comma separated range expr.
// A bare version means caret, as in cargo. A prerelease version only
// matches when some comparator names a prerelease of the same
// major.minor.patch.
func Matches(expr, version string) (bool, error) {
	v, err := parseVersion(version)
	if err != nil {
		return false, err
	}
	parts, err := splitRange(expr)
	if err != nil {
		return false, err
	}
	if len(parts) == 0 {
		return true, nil
	}
	constraint, err := msemver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return false, &SemVerError{Input: expr, Reason: err.Error()}
	}
	mv, err := msemver.StrictNewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return false, &SemVerError{Input: version, Reason: err.Error()}
	}
	if !constraint.Check(mv) {
		return false, nil
	}
	if semver.Prerelease(v) != "" && !prereleaseAllowed(parts, v) {
		return false, nil
	}
	return true, nil
}

// parseVersion accepts a full major.minor.patch version with an optional
// leading "v", prerelease and build metadata.
func parseVersion(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &SemVerError{Input: raw, Reason: "empty version"}
	}
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return "", &SemVerError{Input: raw, Reason: "not a semantic version"}
	}
	core := strings.SplitN(strings.SplitN(s, "-", 2)[0], "+", 2)[0]
	if strings.Count(core, ".") != 2 {
		return "", &SemVerError{Input: raw, Reason: "expected major.minor.patch"}
	}
	return s, nil
}

// splitRange breaks expr into comparators, giving bare versions the caret
// operator. An empty or "*" range yields no comparators.
func splitRange(expr string) ([]string, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" || trimmed == "*" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			return nil, &SemVerError{Input: expr, Reason: "empty comparator"}
		case strings.ContainsAny(part, "|"):
			return nil, &SemVerError{Input: expr, Reason: "alternatives are not supported"}
		case isBare(part):
			part = "^" + part
		}
		out = append(out, part)
	}
	return out, nil
}

func isBare(part string) bool {
	s := strings.TrimPrefix(part, "v")
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	return !strings.ContainsAny(s, "*xX")
}

func prereleaseAllowed(parts []string, v string) bool {
	for _, part := range parts {
		raw := strings.TrimSpace(strings.TrimLeft(part, "=<>~^ "))
		cv, err := parseVersion(raw)
		if err != nil || semver.Prerelease(cv) == "" {
			continue
		}
		if sameCore(cv, v) {
			return true
		}
	}
	return false
}

func sameCore(a, b string) bool {
	return strings.TrimSuffix(semver.Canonical(a), semver.Prerelease(a)) == strings.TrimSuffix(semver.Canonical(b), semver.Prerelease(b))
}
