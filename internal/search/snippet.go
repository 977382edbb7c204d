package search

import (
	"fmt"
	"regexp"
	"strings"
)

// snippetRadius is how many characters of context are captured on each
// side of a matched keyword.
const snippetRadius = 15

// minSnippetWordLen applies when re-splitting keywords for snippets; it
// governs excerpt relevance rather than search recall.
const minSnippetWordLen = 3

// Snippets extracts highlighted excerpts of text around the given
// keywords. keywords and wholePhrase must come from the same Plan so
// the excerpts reflect the relaxation level the planner settled on.
//
// When wholePhrase is false each multi-word keyword is re-split into
// its individual words first. Output is grouped by keyword in keyword
// order, not by position in the text; at most maxSnippets excerpts are
// produced, each ellipsis-terminated, joined by single spaces.
func Snippets(keywords []string, wholePhrase bool, text string, maxSnippets int, highlight bool) string {
	if len(keywords) == 0 || text == "" || maxSnippets <= 0 {
		return ""
	}
	if !wholePhrase {
		keywords = resplitForSnippets(keywords)
	}

	var (
		parts []string
		count int
	)
outer:
	for _, kw := range keywords {
		quoted := regexp.QuoteMeta(kw)
		matchRe, err := regexp.Compile(fmt.Sprintf(`(?is).{0,%d}%s.{0,%d}`, snippetRadius, quoted, snippetRadius))
		if err != nil {
			continue
		}
		var highlightRe *regexp.Regexp
		if highlight {
			if highlightRe, err = regexp.Compile(`(?i)` + quoted); err != nil {
				continue
			}
		}
		for _, m := range matchRe.FindAllString(text, -1) {
			s := strings.TrimSpace(m)
			if s == "" {
				continue
			}
			if count >= maxSnippets {
				break outer
			}
			if highlight {
				s = highlightRe.ReplaceAllString(s, "<b>$0</b>")
			}
			parts = append(parts, s+"...")
			count++
		}
	}
	return strings.Join(parts, " ")
}

// resplitForSnippets breaks multi-word keywords into individual words
// of minSnippetWordLen+ runes.
func resplitForSnippets(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		for _, word := range strings.Fields(kw) {
			if len([]rune(word)) >= minSnippetWordLen {
				out = append(out, word)
			}
		}
	}
	return out
}
