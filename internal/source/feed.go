package source

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"wmtheme/internal/registry"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the feed format from the URL extension, then the
// content type. TOML is the default.
func DetectFormat(doc Document) Format {
	if u, err := url.Parse(doc.URL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".yaml", ".yml":
			return FormatYAML
		case ".toml":
			return FormatTOML
		}
	}
	if strings.Contains(strings.ToLower(doc.ContentType), "yaml") {
		return FormatYAML
	}
	return FormatTOML
}

// ParseFeed decodes a registry document. Unknown keys are ignored and a
// missing definitions_version reads as 0.
func ParseFeed(doc Document) (registry.Feed, error) {
	var feed registry.Feed
	switch DetectFormat(doc) {
	case FormatYAML:
		if len(bytes.TrimSpace(doc.Body)) == 0 {
			return feed, nil
		}
		if err := yaml.Unmarshal(doc.Body, &feed); err != nil {
			return registry.Feed{}, fmt.Errorf("SRC_PARSE: %s: %w", doc.URL, err)
		}
	default:
		if err := toml.Unmarshal(doc.Body, &feed); err != nil {
			return registry.Feed{}, fmt.Errorf("SRC_PARSE: %s: %w", doc.URL, err)
		}
	}
	for i := range feed.Themes {
		feed.Themes[i].Directory = ""
		feed.Themes[i].Current = false
		feed.Themes[i].Source = ""
		feed.Themes[i].DropEmptyCommit()
	}
	return feed, nil
}
