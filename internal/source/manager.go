// Package source fetches remote registry feeds and merges them into the
// configured registries.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"wmtheme/internal/registry"
)

// Result is the outcome of updating one registry.
type Result struct {
	Registry string `json:"registry"`
	URL      string `json:"url"`
	Themes   int    `json:"themes"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

type Manager struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

func NewManager(client *http.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{fetcher: NewFetcher(client), logger: logger}
}

// Load fetches and parses the feed at rawURL.
func (m *Manager) Load(ctx context.Context, rawURL string) (registry.Feed, error) {
	doc, err := m.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return registry.Feed{}, err
	}
	m.logger.Debug("fetched registry feed", "url", rawURL, "bytes", len(doc.Body), "format", DetectFormat(doc))
	return ParseFeed(doc)
}

// Update fetches every remote registry in order and merges its feed.
// A registry that cannot be fetched or parsed is logged and skipped; a
// feed newer than this binary understands aborts the whole update.
func (m *Manager) Update(ctx context.Context, regs []registry.Registry, themesDir string) ([]Result, error) {
	results := make([]Result, 0, len(regs))
	for i := range regs {
		reg := &regs[i]
		if reg.IsLocal() {
			continue
		}
		res := Result{Registry: reg.Name, URL: reg.URL}
		m.logger.Info("retrieving themes", "registry", reg.Name, "url", reg.URL)
		feed, err := m.Load(ctx, reg.URL)
		if err == nil {
			err = registry.Compare(reg, feed, themesDir)
		}
		if err != nil {
			if errors.Is(err, registry.ErrDefinitionsOutOfDate) {
				return results, err
			}
			if ctx.Err() != nil {
				return results, fmt.Errorf("SRC_UPDATE: %w", ctx.Err())
			}
			m.logger.Warn("registry update failed", "registry", reg.Name, "error", err)
			res.Err = err
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.Themes = len(feed.Themes)
		results = append(results, res)
	}
	return results, nil
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
