package poster

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lepinkainen/rss2sky/internal/bsky"
)

func topLevelItem(createdAt string) bsky.TimelineItem {
	return bsky.TimelineItem{
		Post: bsky.TimelinePost{Record: bsky.PostRecord{CreatedAt: createdAt}},
	}
}

func repostItem(createdAt string) bsky.TimelineItem {
	item := topLevelItem(createdAt)
	item.Reason = json.RawMessage(`{"$type":"app.bsky.feed.defs#reasonRepost"}`)
	return item
}

func replyItem(createdAt string) bsky.TimelineItem {
	item := topLevelItem(createdAt)
	item.Post.Record.Reply = json.RawMessage(`{"root":{},"parent":{}}`)
	return item
}

func TestLastPostTime(t *testing.T) {
	tests := []struct {
		name  string
		items []bsky.TimelineItem
		want  time.Time
	}{
		{
			name:  "first item is top-level",
			items: []bsky.TimelineItem{topLevelItem("2024-05-01T12:00:00Z")},
			want:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "reposts and replies skipped",
			items: []bsky.TimelineItem{
				repostItem("2024-05-03T10:00:00Z"),
				replyItem("2024-05-02T10:00:00Z"),
				topLevelItem("2024-05-01T08:00:00Z"),
			},
			want: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "unparseable createdAt skipped",
			items: []bsky.TimelineItem{
				topLevelItem("yesterday-ish"),
				topLevelItem("2024-04-30T06:00:00Z"),
			},
			want: time.Date(2024, 4, 30, 6, 0, 0, 0, time.UTC),
		},
		{
			name:  "empty feed gives zero time",
			items: nil,
			want:  time.Time{},
		},
		{
			name: "only reposts gives zero time",
			items: []bsky.TimelineItem{
				repostItem("2024-05-03T10:00:00Z"),
				replyItem("2024-05-02T10:00:00Z"),
			},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastPostTime(tt.items)
			if !got.Equal(tt.want) {
				t.Errorf("LastPostTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldPost(t *testing.T) {
	marker := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		publishedAt time.Time
		want        bool
	}{
		{"after marker", marker.Add(time.Second), true},
		{"exactly at marker", marker, false},
		{"before marker", marker.Add(-time.Second), false},
		{"far before marker", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldPost(tt.publishedAt, marker); got != tt.want {
				t.Errorf("ShouldPost(%v, %v) = %v, want %v", tt.publishedAt, marker, got, tt.want)
			}
		})
	}

	if !ShouldPost(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}) {
		t.Error("any real publication time should pass a zero marker")
	}
}
