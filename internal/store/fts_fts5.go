//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const ftsEnabled = true

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			title_idx,
			content_idx,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

// ftsUpsert mirrors a note's index columns into the FTS table, keyed by
// rowid = note id so search can join without an extra column.
func ftsUpsert(ctx context.Context, tx *sql.Tx, noteID int64, titleIdx, contentIdx string) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE rowid = ?`, noteID)
	_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (rowid, title_idx, content_idx) VALUES (?, ?, ?)`,
		noteID, titleIdx, contentIdx)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, noteID int64) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE rowid = ?`, noteID)
}
