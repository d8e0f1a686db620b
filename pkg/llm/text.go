package llm

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()

	markdownLink     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	markdownLineHead = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+•]|#{1,6}|\d+[.)])[ \t]+`)
	markdownEmphasis = regexp.MustCompile("\\*\\*|__|~~|`|\\*")
	citationMarker   = regexp.MustCompile(`\s*(?:\[\d+(?:,\s*\d+)*\])+`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// CleanText reduces model output to plain spoken text: tags (including
// <cite> wrappers from search tools), markdown and citation markers are
// removed and whitespace is collapsed.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = markdownLink.ReplaceAllString(s, "$1")
	s = markdownLineHead.ReplaceAllString(s, "")
	s = markdownEmphasis.ReplaceAllString(s, "")
	s = citationMarker.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
