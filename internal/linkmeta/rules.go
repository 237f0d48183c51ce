package linkmeta

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is the link-preview data extracted from a page. Empty fields mean
// "not found"; absence is never an error.
type Metadata struct {
	Title       string
	Description string
	ImageURL    string
}

// IsEmpty reports whether no metadata field was found.
func (m Metadata) IsEmpty() bool {
	return m.Title == "" && m.Description == "" && m.ImageURL == ""
}

// rule locates one candidate value in a document: the given attribute of the
// first node matching the selector, or the node text when attr is empty.
type rule struct {
	selector string
	attr     string
}

// Extraction rules, tried in order; the first non-empty value wins.
// Open Graph first, Twitter Card second, plain HTML last.
var (
	titleRules = []rule{
		{`meta[property="og:title"]`, "content"},
		{`meta[name="twitter:title"]`, "content"},
		{`title`, ""},
	}
	descriptionRules = []rule{
		{`meta[property="og:description"]`, "content"},
		{`meta[name="description"]`, "content"},
		{`meta[name="twitter:description"]`, "content"},
	}
	imageRules = []rule{
		{`meta[property="og:image"]`, "content"},
		{`meta[name="twitter:image"]`, "content"},
	}
)

// extract applies the rule lists to a parsed document.
func extract(doc *goquery.Document) Metadata {
	return Metadata{
		Title:       firstMatch(doc, titleRules),
		Description: firstMatch(doc, descriptionRules),
		ImageURL:    firstMatch(doc, imageRules),
	}
}

// firstMatch returns the first non-empty value produced by a rule list.
func firstMatch(doc *goquery.Document, rules []rule) string {
	for _, r := range rules {
		sel := doc.Find(r.selector).First()
		if sel.Length() == 0 {
			continue
		}

		var value string
		if r.attr == "" {
			value = sel.Text()
		} else {
			value, _ = sel.Attr(r.attr)
		}

		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
