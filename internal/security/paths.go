package security

import (
	"path/filepath"
	"strings"

	"wmtheme/internal/apperr"
)

// SafeJoin joins rel onto base and refuses results outside base.
func SafeJoin(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", apperr.New("SEC_PATH_TRAVERSAL", "absolute path %q not allowed", rel)
	}
	cleanRel := filepath.Clean(rel)
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", apperr.New("SEC_PATH_TRAVERSAL", "path %q escapes %s", rel, base)
	}
	return filepath.Join(filepath.Clean(base), cleanRel), nil
}
