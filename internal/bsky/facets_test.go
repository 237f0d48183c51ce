package bsky

import (
	"testing"

	"github.com/lepinkainen/rss2sky/pkg/richtext"
)

func TestBuildRecordText(t *testing.T) {
	runs := richtext.Tokenize("Hello #world\nhttps://example.com/x")

	text, facets := BuildRecordText(runs)

	if want := "Hello #world\nhttps://example.com/x"; text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}

	if len(facets) != 2 {
		t.Fatalf("got %d facets, want 2: %+v", len(facets), facets)
	}

	tag := facets[0]
	if tag.Features[0].Type != FeatureTag || tag.Features[0].Tag != "world" {
		t.Fatalf("first facet = %+v, want tag feature for 'world'", tag)
	}
	if text[tag.Index.ByteStart:tag.Index.ByteEnd] != "#world" {
		t.Fatalf("tag facet covers %q, want %q", text[tag.Index.ByteStart:tag.Index.ByteEnd], "#world")
	}

	link := facets[1]
	if link.Features[0].Type != FeatureLink || link.Features[0].URI != "https://example.com/x" {
		t.Fatalf("second facet = %+v, want link feature", link)
	}
	if text[link.Index.ByteStart:link.Index.ByteEnd] != "https://example.com/x" {
		t.Fatalf("link facet covers %q", text[link.Index.ByteStart:link.Index.ByteEnd])
	}
}

func TestBuildRecordTextByteOffsets(t *testing.T) {
	// Facet offsets are byte offsets over UTF-8 text, so multi-byte runes
	// before a facet must shift it.
	runs := richtext.Tokenize("héllo wörld #tag")

	text, facets := BuildRecordText(runs)

	if len(facets) != 1 {
		t.Fatalf("got %d facets, want 1", len(facets))
	}

	covered := text[facets[0].Index.ByteStart:facets[0].Index.ByteEnd]
	if covered != "#tag" {
		t.Fatalf("facet covers %q, want %q", covered, "#tag")
	}
}

func TestBuildRecordTextNoFacets(t *testing.T) {
	text, facets := BuildRecordText(richtext.Tokenize("just plain text"))

	if text != "just plain text\n" {
		t.Fatalf("text = %q", text)
	}
	if len(facets) != 0 {
		t.Fatalf("got %d facets, want none", len(facets))
	}
}
