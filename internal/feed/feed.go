// Package feed downloads and parses the source RSS/Atom feed.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lepinkainen/rss2sky/pkg/encoding"
	httputil "github.com/lepinkainen/rss2sky/pkg/http"
)

// Entry is one feed item reduced to what the pipeline needs.
type Entry struct {
	Title       string
	Link        string
	PublishedAt time.Time
}

// Load fetches the feed, normalizes its bytes to UTF-8 and parses it into
// entries in feed order. A download failure or non-200 status is fatal for
// the run; there is no retry at this layer.
func Load(ctx context.Context, client *httputil.Client, feedURL string) ([]Entry, error) {
	body, err := download(ctx, client, feedURL)
	if err != nil {
		return nil, err
	}

	return Parse(encoding.Normalize(body))
}

// download performs the feed GET and returns the raw bytes.
func download(ctx context.Context, client *httputil.Client, feedURL string) ([]byte, error) {
	resp, err := client.GetWithContext(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}

	if err := httputil.EnsureStatusOK(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}

	body, err := httputil.ReadResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}
	return body, nil
}

// Parse converts normalized feed text into entries. Items without a link or a
// parseable publication time are skipped with a log line.
func Parse(content string) ([]Entry, error) {
	parsed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		publishedAt := itemPublishedTime(item)
		if publishedAt.IsZero() {
			slog.Warn("Skipping entry without a publication time", "title", item.Title, "link", item.Link)
			continue
		}
		if item.Link == "" {
			slog.Warn("Skipping entry without a link", "title", item.Title)
			continue
		}

		entries = append(entries, Entry{
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: publishedAt,
		})
	}

	slog.Debug("Parsed feed", "title", parsed.Title, "entries", len(entries), "skipped", len(parsed.Items)-len(entries))
	return entries, nil
}

// itemPublishedTime falls back to the updated time when an item carries no
// publication time.
func itemPublishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}
