package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

const (
	userAgent    = "wmtheme/1.0 (+https://github.com/leftwm/leftwm-theme)"
	maxFeedBytes = 8 << 20
	attempts     = 3
)

// Document is a fetched registry body decoded to UTF-8.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// Fetcher reads registry feeds from HTTP(S) or file:// URLs.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch retrieves rawURL. file:// URLs are read from disk.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Document{}, fmt.Errorf("SRC_URL: %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "file":
		return readFile(rawURL, u)
	case "http", "https":
		return f.get(ctx, rawURL)
	default:
		return Document{}, fmt.Errorf("SRC_URL: unsupported scheme in %q", rawURL)
	}
}

func readFile(rawURL string, u *url.URL) (Document, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("SRC_FILE: %w", err)
	}
	if !utf8.Valid(body) {
		return Document{}, fmt.Errorf("SRC_DECODE: %s is not valid UTF-8", path)
	}
	return Document{URL: rawURL, Body: body}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (Document, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return Document{}, fmt.Errorf("SRC_HTTP: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return Document{}, fmt.Errorf("SRC_HTTP: %w", ctx.Err())
			}
			continue
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			return Document{}, fmt.Errorf("SRC_HTTP: reading %s: %w", rawURL, readErr)
		}
		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && i < attempts-1 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return Document{}, fmt.Errorf("SRC_HTTP: %w", ctx.Err())
			case <-time.After(parseRetryAfter(resp.Header.Get("Retry-After"), i)):
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return Document{}, fmt.Errorf("SRC_HTTP: GET %s returned status %d", rawURL, resp.StatusCode)
		}
		contentType := resp.Header.Get("Content-Type")
		decoded, err := decodeCharset(body, contentType)
		if err != nil {
			return Document{}, err
		}
		return Document{URL: rawURL, ContentType: contentType, Body: decoded}, nil
	}
	if lastErr != nil {
		return Document{}, fmt.Errorf("SRC_HTTP: %w", lastErr)
	}
	return Document{}, errors.New("SRC_HTTP: request failed")
}

// decodeCharset converts body to UTF-8 using the charset parameter of
// contentType. Bodies without a declared charset must already be UTF-8.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = params["charset"]
		}
	}
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("SRC_DECODE: unknown charset %q", charset)
		}
		if name, _ := htmlindex.Name(enc); name != "utf-8" {
			out, err := enc.NewDecoder().Bytes(body)
			if err != nil {
				return nil, fmt.Errorf("SRC_DECODE: %w", err)
			}
			body = out
		}
	}
	if !utf8.Valid(body) {
		return nil, errors.New("SRC_DECODE: response is not valid UTF-8")
	}
	return body, nil
}

func parseRetryAfter(value string, attempt int) time.Duration {
	backoff := time.Duration(1<<attempt) * 500 * time.Millisecond
	if value == "" {
		return backoff
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return backoff
	}
	if secs > 10 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}
