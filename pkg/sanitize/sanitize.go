// Package sanitize cleans feed item titles into plain display text.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/charmap"
)

var (
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
	stripPolicy = bluemonday.StrictPolicy()
)

// Clean strips HTML markup, unescapes character entities and repairs titles
// that were decoded as Latin-1 but actually carried UTF-8 bytes. It is
// idempotent on already-clean ASCII text and never fails.
func Clean(title string) string {
	text := strings.TrimSpace(title)

	if tagPattern.MatchString(text) {
		text = strings.TrimSpace(stripPolicy.Sanitize(text))
	}

	text = html.UnescapeString(text)

	return fixEncoding(text)
}

// fixEncoding repairs mojibake: a string whose runes are really the Latin-1
// view of UTF-8 bytes is re-encoded to Latin-1 and re-read as UTF-8.
// If the round trip is not possible the input is returned unchanged.
func fixEncoding(text string) string {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		// Contains runes outside Latin-1, so it was decoded correctly.
		return text
	}
	if !utf8.ValidString(encoded) {
		return text
	}
	return encoded
}
