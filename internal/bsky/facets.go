package bsky

import (
	"strings"
	"unicode"

	"github.com/lepinkainen/rss2sky/pkg/richtext"
)

// BuildRecordText flattens rich-text runs into post text and byte-offset
// facets. Facet ranges exclude the synthetic newline carried by the last run
// of a line.
func BuildRecordText(runs []richtext.Run) (string, []Facet) {
	var b strings.Builder
	var facets []Facet

	for _, run := range runs {
		start := b.Len()
		b.WriteString(run.Text)

		span := strings.TrimRightFunc(run.Text, unicode.IsSpace)

		switch run.Kind {
		case richtext.KindLink:
			facets = append(facets, Facet{
				Index:    ByteSlice{ByteStart: start, ByteEnd: start + len(span)},
				Features: []FacetFeature{{Type: FeatureLink, URI: run.URI}},
			})
		case richtext.KindTag:
			facets = append(facets, Facet{
				Index:    ByteSlice{ByteStart: start, ByteEnd: start + len(span)},
				Features: []FacetFeature{{Type: FeatureTag, Tag: run.Tag}},
			})
		}
	}

	return b.String(), facets
}
