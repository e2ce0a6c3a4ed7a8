package theme

import "strings"

const latestMarker = "*"

// Commit is either "track latest" or a pinned revision.
type Commit struct {
	latest   bool
	revision string
}

func LatestCommit() Commit {
	return Commit{latest: true}
}

func PinnedCommit(revision string) Commit {
	return Commit{revision: revision}
}

func (c Commit) IsLatest() bool {
	return c.latest
}

// IsSet is false for a commit decoded from an empty string.
func (c Commit) IsSet() bool {
	return c.latest || c.revision != ""
}

// Revision returns the pinned revision, if any.
func (c Commit) Revision() (string, bool) {
	if c.latest || c.revision == "" {
		return "", false
	}
	return c.revision, true
}

func (c Commit) String() string {
	if c.latest {
		return latestMarker
	}
	return c.revision
}

func (c Commit) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Commit) UnmarshalText(text []byte) error {
	v := strings.TrimSpace(string(text))
	switch {
	case v == latestMarker:
		*c = LatestCommit()
	case v == "":
		*c = Commit{}
	default:
		*c = PinnedCommit(v)
	}
	return nil
}
