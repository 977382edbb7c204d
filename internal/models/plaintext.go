package models

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SearchText derives the searchable form of a rich-text field: HTML
// tags stripped, entities decoded, whitespace collapsed to single
// spaces, lower-cased. The note-write path stores the result in the
// title_idx/content_idx columns; search and snippet extraction consume
// it read-only.
func SearchText(richText string) string {
	s := htmlTagRe.ReplaceAllString(richText, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
