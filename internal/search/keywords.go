package search

import "strings"

// minKeywordLen is the shortest token the planner will search for;
// anything shorter is noise at search-recall level.
const minKeywordLen = 3

// SplitKeywords breaks a search term on whitespace and keeps distinct
// tokens of at least minLen runes, preserving first-seen order.
func SplitKeywords(term string, minLen int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(term) {
		if len([]rune(tok)) < minLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// ShrinkKeywords removes the last rune from every keyword longer than
// minKeywordLen, dropping any that fall below minKeywordLen. The second
// return is false once no keyword could shrink, which terminates the
// planner's shrink-and-retry loop.
func ShrinkKeywords(keywords []string) ([]string, bool) {
	var (
		out     []string
		changed bool
	)
	for _, kw := range keywords {
		runes := []rune(kw)
		if len(runes) <= minKeywordLen {
			out = append(out, kw)
			continue
		}
		changed = true
		shrunk := string(runes[:len(runes)-1])
		if len([]rune(shrunk)) >= minKeywordLen {
			out = append(out, shrunk)
		}
	}
	return out, changed
}

// phraseExpr quotes a term for a literal FTS5 match, doubling embedded
// quotes so the engine treats the whole phrase as one string.
func phraseExpr(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// keywordExpr combines keywords into an FTS5 OR expression, each quoted
// literally.
func keywordExpr(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = phraseExpr(kw)
	}
	return strings.Join(quoted, " OR ")
}

// likePattern wraps a keyword for substring LIKE matching, escaping the
// LIKE metacharacters. Index columns are stored lower-cased, so the
// pattern is lower-cased to match case-insensitively.
func likePattern(s string) string {
	s = strings.ToLower(s)
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
