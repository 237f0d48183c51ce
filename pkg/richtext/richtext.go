// Package richtext tokenizes post body text into typed runs.
//
// A run sequence is the render-ready form of a post: plain text, clickable
// links and hashtags. Tokenization is pure and can be re-run identically on
// the same input.
package richtext

import (
	"regexp"
	"strings"
)

// Kind identifies the type of a run.
type Kind int

const (
	// KindText is a plain text run.
	KindText Kind = iota
	// KindLink is a clickable URL run; URI holds the target.
	KindLink
	// KindTag is a hashtag run; Tag holds the value without the leading '#'.
	KindTag
)

// Run is a typed span of post text. Text always holds the display form,
// including the synthetic newline appended to the last run of a line.
type Run struct {
	Kind Kind
	Text string
	URI  string
	Tag  string
}

var hashtagPattern = regexp.MustCompile(`#[a-zA-Z0-9]+`)

// Tokenize splits a post body into runs, line by line. A line that starts
// with an HTTP(S) URL becomes a single link run with the trimmed URL as both
// display text and target. Any other line is split on hashtags; the last
// segment of the line carries the line's newline so that concatenating run
// text reproduces the line structure.
func Tokenize(body string) []Run {
	lines := strings.Split(body, "\n")
	// A trailing newline in the input produces an empty final line, not an
	// extra run.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var runs []Run
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			runs = append(runs, Run{Kind: KindLink, Text: trimmed, URI: trimmed})
			continue
		}

		segments := splitAfterTags(line)
		for i, segment := range segments {
			last := i == len(segments)-1
			if last {
				segment += "\n"
			}
			switch {
			case strings.HasPrefix(segment, "#"):
				runs = append(runs, Run{
					Kind: KindTag,
					Text: segment,
					Tag:  strings.TrimSpace(segment[1:]),
				})
			case segment != "":
				runs = append(runs, Run{Kind: KindText, Text: segment})
			}
		}
	}
	return runs
}

// Flatten concatenates the display text of all runs.
func Flatten(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// splitAfterTags splits a line on hashtag matches, retaining the matched
// hashtags as their own segments.
func splitAfterTags(line string) []string {
	var segments []string
	last := 0
	for _, m := range hashtagPattern.FindAllStringIndex(line, -1) {
		segments = append(segments, line[last:m[0]], line[m[0]:m[1]])
		last = m[1]
	}
	return append(segments, line[last:])
}
