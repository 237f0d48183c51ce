// Package preview provides an interactive dry-run view of composed posts
// using Bubble Tea TUI.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/rss2sky/internal/linkmeta"
	"github.com/lepinkainen/rss2sky/internal/poster"
	"github.com/lepinkainen/rss2sky/pkg/richtext"
)

// Item is one composed post ready for inspection: the entry, its rich-text
// runs and the embed the composer would pick.
type Item struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Runs        []richtext.Run
	Meta        linkmeta.Metadata
	Embed       poster.EmbedKind
}

// FormatCompactListItem formats a single composed post in compact list format
// Example: " 1. [external] 2025-10-21T13:33:58+03:00  Post Title"
func FormatCompactListItem(index int, item Item) string {
	title := item.Title
	dateISO := item.PublishedAt.Format(time.RFC3339)

	// Truncate title if too long
	const maxTitleLength = 70
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength-3] + "..."
	}

	return fmt.Sprintf("%2d. [%-8s] %s  %s", index+1, item.Embed, dateISO, title)
}

// FormatDetailedItem formats a single composed post with all metadata and the
// run breakdown.
func FormatDetailedItem(item Item) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", item.Title))
	b.WriteString(fmt.Sprintf("Link: %s\n", item.Link))
	b.WriteString(fmt.Sprintf("Published: %s\n", item.PublishedAt.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Embed: %s\n", item.Embed))

	if !item.Meta.IsEmpty() {
		b.WriteString("───────────────────────────────────────────────────────────────────────\n")
		if item.Meta.Title != "" {
			b.WriteString(fmt.Sprintf("Page title: %s\n", item.Meta.Title))
		}
		if item.Meta.Description != "" {
			b.WriteString(fmt.Sprintf("Description: %s\n", item.Meta.Description))
		}
		if item.Meta.ImageURL != "" {
			b.WriteString(fmt.Sprintf("Preview image: %s\n", item.Meta.ImageURL))
		}
	}

	b.WriteString("───────────────────────────────────────────────────────────────────────\n")
	b.WriteString("Runs:\n")
	for i, run := range item.Runs {
		b.WriteString(fmt.Sprintf("%3d. %s\n", i+1, formatRun(run)))
	}
	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// formatRun renders one run with its kind and payload.
func formatRun(run richtext.Run) string {
	switch run.Kind {
	case richtext.KindLink:
		return fmt.Sprintf("link %q -> %s", run.Text, run.URI)
	case richtext.KindTag:
		return fmt.Sprintf("tag  %q (#%s)", run.Text, run.Tag)
	default:
		return fmt.Sprintf("text %q", run.Text)
	}
}
