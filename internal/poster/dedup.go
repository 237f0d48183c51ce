package poster

import (
	"log/slog"
	"time"

	"github.com/lepinkainen/rss2sky/internal/bsky"
)

// LastPostTime scans an author feed in the delivered (reverse-chronological)
// order and returns the creation time of the most recent top-level post:
// not a repost, not a reply. The zero time is returned when no qualifying
// post exists, so an account without history accepts every feed entry.
func LastPostTime(items []bsky.TimelineItem) time.Time {
	for _, item := range items {
		if item.IsRepost() || item.IsReply() {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, item.Post.Record.CreatedAt)
		if err != nil {
			slog.Warn("Skipping post with unparseable createdAt", "createdAt", item.Post.Record.CreatedAt, "error", err)
			continue
		}

		slog.Debug("Found last top-level post", "createdAt", createdAt)
		return createdAt
	}
	return time.Time{}
}

// ShouldPost reports whether a feed entry published at the given time is new
// relative to the last-post marker. The comparison is strict: an entry
// published exactly at the marker is not posted again.
func ShouldPost(publishedAt, marker time.Time) bool {
	return publishedAt.After(marker)
}
