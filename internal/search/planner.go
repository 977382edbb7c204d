package search

import (
	"context"
	"log/slog"
	"strings"
)

// Store is the planner's view of the data layer: existence probes over
// the notes table plus a capability check for the full-text steps.
type Store interface {
	ProbeNotes(ctx context.Context, join, where string, args []any) (bool, error)
	FTSEnabled() bool
}

// Plan is the outcome of the relaxation ladder: the winning (or, when
// nothing matched, last attempted) query, the keyword set it settled
// on, and whether the original phrase matched verbatim. The snippet
// extractor must be fed Keywords/WholePhrase from the same plan to stay
// consistent with the relaxation level.
type Plan struct {
	Query       Query
	Keywords    []string
	WholePhrase bool
	Matched     bool
}

// Planner resolves a free-text term against a section-scoped corpus by
// walking a ladder of progressively weaker match strategies and
// stopping at the first one whose existence probe hits.
type Planner struct {
	store  Store
	logger *slog.Logger
}

// NewPlanner creates a planner over the given store.
func NewPlanner(store Store, logger *slog.Logger) *Planner {
	return &Planner{store: store, logger: logger}
}

// step is one rung of the ladder: build a candidate query, probe for
// existence. fullText steps may be skipped wholesale (FTS-less build)
// or individually (a keyword the engine rejects).
type step struct {
	name     string
	fullText bool
	build    func() (Query, bool)
}

// Plan walks the ladder:
//
//  1. exact-phrase substring match
//  2. keyword extraction (tokens of 3+ runes)
//  3. full-text match on the whole phrase
//  4. full-text match on keywords OR-combined
//  5. substring match on keywords OR-combined
//  6. shrink every over-length keyword by one trailing rune and retry
//     4–5 until a hit or nothing is left to shrink
//
// It never fails on "no results": the ladder exhausts into a plan with
// Matched=false carrying the last attempted query. Store I/O errors do
// propagate; a MATCH expression the engine rejects only skips that one
// step.
func (p *Planner) Plan(ctx context.Context, filter Filter, term string) (Plan, error) {
	base, baseArgs := filter.Clause()
	b := queryBuilder{base: base, baseArgs: baseArgs}

	last := Plan{Keywords: []string{}, WholePhrase: false}

	exact := step{name: "exact phrase", build: func() (Query, bool) {
		return b.substring([]string{term}), true
	}}
	hit, err := p.run(ctx, exact, &last)
	if err != nil {
		return Plan{}, err
	}
	if hit {
		last.Keywords = []string{term}
		last.WholePhrase = true
		return last, nil
	}

	keywords := SplitKeywords(term, minKeywordLen)
	last.Keywords = keywords

	phrase := step{name: "fts phrase", fullText: true, build: func() (Query, bool) {
		if !p.store.FTSEnabled() {
			return Query{}, false
		}
		return b.fullText(phraseExpr(term)), true
	}}
	if hit, err = p.run(ctx, phrase, &last); err != nil {
		return Plan{}, err
	}
	if hit {
		return last, nil
	}

	for {
		kws := keywords
		rungs := []step{
			{name: "fts keywords", fullText: true, build: func() (Query, bool) {
				if !p.store.FTSEnabled() || len(kws) == 0 {
					return Query{}, false
				}
				return b.fullText(keywordExpr(kws)), true
			}},
			{name: "substring keywords", build: func() (Query, bool) {
				if len(kws) == 0 {
					return Query{}, false
				}
				return b.substring(kws), true
			}},
		}
		for _, s := range rungs {
			if hit, err = p.run(ctx, s, &last); err != nil {
				return Plan{}, err
			}
			if hit {
				return last, nil
			}
		}

		shrunk, changed := ShrinkKeywords(keywords)
		if !changed {
			break
		}
		keywords = shrunk
		last.Keywords = keywords
	}

	return last, nil
}

// run builds and probes one step. On a hit it records the winning query
// in the plan and marks it matched; on a miss it still records the
// query as the last attempted one.
func (p *Planner) run(ctx context.Context, s step, plan *Plan) (bool, error) {
	q, ok := s.build()
	if !ok {
		return false, nil
	}
	plan.Query = q
	hit, err := p.store.ProbeNotes(ctx, q.Join, q.Where, q.Args)
	if err != nil {
		if s.fullText && isMatchSyntaxErr(err) {
			p.logger.Debug("search: skipping unparsable full-text step",
				slog.String("step", s.name), slog.String("error", err.Error()))
			return false, nil
		}
		return false, err
	}
	if hit {
		plan.Matched = true
	}
	return hit, nil
}

// isMatchSyntaxErr recognizes SQLite complaints about the MATCH
// expression itself, as opposed to real I/O failures.
func isMatchSyntaxErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "malformed MATCH") ||
		strings.Contains(msg, "unable to use function MATCH")
}
