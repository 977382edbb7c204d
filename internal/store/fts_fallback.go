//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
)

// Without the sqlite_fts5 build tag the full-text ladder steps are
// unavailable; the search planner skips them and relies on substring
// matching against the index columns.
const ftsEnabled = false

func initFTS(_ *sql.DB) error {
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ int64, _, _ string) error {
	// Index columns already live in the notes table; nothing extra to do.
	return nil
}

func ftsDelete(_ context.Context, _ *sql.Tx, _ int64) {}
