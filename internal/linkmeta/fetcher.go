// Package linkmeta fetches link-preview metadata (title, description, preview
// image) from Open Graph and Twitter Card tags, with a plain-HTML fallback.
package linkmeta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	httputil "github.com/lepinkainen/rss2sky/pkg/http"
)

const (
	// maxBodySize caps how much of a page is read for metadata extraction.
	maxBodySize = 1 << 20

	maxTitleLen       = 200
	maxDescriptionLen = 500
)

// Fetcher retrieves page metadata on a best-effort basis. Every failure
// degrades to empty Metadata; the pipeline must still be able to post the
// entry without an embed.
type Fetcher struct {
	client *httputil.Client
	db     *Database
	ttl    time.Duration
}

// NewFetcher creates a metadata fetcher. db may be nil to disable caching.
func NewFetcher(client *httputil.Client, db *Database, ttl time.Duration) *Fetcher {
	if client == nil {
		client = httputil.NewClient(nil)
	}
	return &Fetcher{client: client, db: db, ttl: ttl}
}

// Fetch returns the metadata for a URL. The zero Metadata value is returned
// for any network, status or parse failure.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) Metadata {
	if !isValidURL(targetURL) {
		slog.Warn("Skipping metadata fetch for invalid URL", "url", targetURL)
		return Metadata{}
	}

	if f.db != nil {
		if cached, ok := f.cachedResult(targetURL); ok {
			return cached
		}
	}

	meta, err := f.fetchFresh(ctx, targetURL)
	if err != nil {
		slog.Warn("Could not fetch link metadata", "url", targetURL, "error", err)
		meta = Metadata{}
	}

	if f.db != nil {
		if saveErr := f.db.Save(targetURL, meta, err == nil, f.ttl); saveErr != nil {
			slog.Warn("Failed to cache link metadata", "url", targetURL, "error", saveErr)
		}
	}

	return meta
}

// cachedResult consults the cache, including negative entries for URLs that
// recently failed.
func (f *Fetcher) cachedResult(targetURL string) (Metadata, bool) {
	cached, ok, err := f.db.Lookup(targetURL)
	if err != nil {
		slog.Warn("Error reading metadata cache", "url", targetURL, "error", err)
		return Metadata{}, false
	}
	if !ok {
		return Metadata{}, false
	}
	slog.Debug("Link metadata served from cache", "url", targetURL)
	return cached, true
}

// fetchFresh downloads and parses the page.
func (f *Fetcher) fetchFresh(ctx context.Context, targetURL string) (Metadata, error) {
	resp, err := f.client.GetWithContext(ctx, targetURL)
	if err != nil {
		return Metadata{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httputil.EnsureStatusOK(resp); err != nil {
		return Metadata{}, err
	}

	contentType := httputil.GetContentType(resp)
	if ct := strings.ToLower(contentType); ct != "" &&
		!strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml") {
		return Metadata{}, fmt.Errorf("not an HTML page: %s", contentType)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), contentType)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to convert content to UTF-8: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := cleanup(extract(doc))
	slog.Debug("Extracted link metadata",
		"url", targetURL,
		"title", meta.Title,
		"hasDescription", meta.Description != "",
		"hasImage", meta.ImageURL != "")
	return meta, nil
}

// cleanup normalizes whitespace, truncates oversized fields and drops invalid
// image URLs.
func cleanup(meta Metadata) Metadata {
	meta.Title = truncate(strings.TrimSpace(meta.Title), maxTitleLen)
	meta.Description = truncate(strings.TrimSpace(meta.Description), maxDescriptionLen)

	if meta.ImageURL != "" && !isValidURL(meta.ImageURL) {
		slog.Warn("Invalid preview image URL, clearing", "url", meta.ImageURL)
		meta.ImageURL = ""
	}
	return meta
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// isValidURL checks if a URL is valid
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}
