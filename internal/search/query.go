// Package search implements the adaptive query planner and the snippet
// extractor for section-scoped note search.
package search

import (
	"strings"
	"time"
)

// Query is a parameterized fragment set over the notes table (aliased
// n). The store composes it into existence probes, page fetches, and
// count queries.
type Query struct {
	Join  string
	Where string
	Order string
	Args  []any
}

// Filter is the section-scoped base restriction a caller supplies; the
// planner clones it into every ladder step. Section is required, the
// rest optional.
type Filter struct {
	Section string
	Book    string
	Tag     string
	From    time.Time
	To      time.Time
}

// Clause renders the filter as a WHERE fragment with bind args.
func (f Filter) Clause() (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("n.section = ?")
	args = append(args, f.Section)
	if f.Book != "" {
		b.WriteString(" AND n.book = ?")
		args = append(args, f.Book)
	}
	if f.Tag != "" {
		b.WriteString(` AND EXISTS (SELECT 1 FROM note_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.note_id = n.id AND t.name = ? COLLATE NOCASE)`)
		args = append(args, f.Tag)
	}
	if !f.From.IsZero() {
		b.WriteString(" AND n.created_at >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		b.WriteString(" AND n.created_at < ?")
		args = append(args, f.To)
	}
	return b.String(), args
}

// queryBuilder derives ladder-step queries from a shared base filter.
type queryBuilder struct {
	base     string
	baseArgs []any
}

// substring builds a LIKE query: one OR clause per (column × keyword)
// pair against the lower-cased index columns, ordered by creation time.
func (b queryBuilder) substring(keywords []string) Query {
	var (
		clauses []string
		args    = append([]any{}, b.baseArgs...)
	)
	for _, kw := range keywords {
		pat := likePattern(kw)
		clauses = append(clauses, `n.title_idx LIKE ? ESCAPE '\'`, `n.content_idx LIKE ? ESCAPE '\'`)
		args = append(args, pat, pat)
	}
	return Query{
		Where: b.base + " AND (" + strings.Join(clauses, " OR ") + ")",
		Order: "n.created_at, n.id",
		Args:  args,
	}
}

// fullText builds an FTS5 MATCH query ordered by the engine's rank.
func (b queryBuilder) fullText(matchExpr string) Query {
	return Query{
		Join:  "JOIN notes_fts fts ON fts.rowid = n.id",
		Where: b.base + " AND fts.notes_fts MATCH ?",
		Order: "fts.rank",
		Args:  append(append([]any{}, b.baseArgs...), matchExpr),
	}
}
