package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

const noteColumns = `n.id, n.section, n.title, n.content, n.title_idx, n.content_idx, n.book, n.tags, n.created_at, n.updated_at`

// SaveNote inserts or updates a note and keeps its FTS entry in sync,
// all within one transaction. On insert the note's ID and CreatedAt are
// filled in. Index columns (TitleIdx/ContentIdx) must already be
// derived by the caller.
func (db *DB) SaveNote(ctx context.Context, n *models.Note) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now().UTC()
	n.UpdatedAt = now

	if n.ID == 0 {
		n.CreatedAt = now
		res, err := tx.ExecContext(ctx, `
			INSERT INTO notes (section, title, content, title_idx, content_idx, book, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, n.Section, n.Title, n.Content, n.TitleIdx, n.ContentIdx, n.Book, models.CompressTags(n.Tags), n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: insert note: %w", err)
		}
		n.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: note id: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE notes
			SET title = ?, content = ?, title_idx = ?, content_idx = ?, updated_at = ?
			WHERE id = ?
		`, n.Title, n.Content, n.TitleIdx, n.ContentIdx, n.UpdatedAt, n.ID)
		if err != nil {
			return fmt.Errorf("store: update note: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return apperr.ErrNotFound
		}
	}

	// FTS upsert (no-op when the sqlite_fts5 tag is absent).
	if err := ftsUpsert(ctx, tx, n.ID, n.TitleIdx, n.ContentIdx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetNote loads a note by id within the given Querier scope.
func (db *DB) GetNote(ctx context.Context, q Querier, id int64) (*models.Note, error) {
	var (
		n    models.Note
		tags string
	)
	err := q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id).Scan(
		&n.ID, &n.Section, &n.Title, &n.Content, &n.TitleIdx, &n.ContentIdx, &n.Book, &tags, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	n.Tags = models.ExtractTags(tags)
	return &n, nil
}

// DeleteNote removes a note, its FTS entry, and its tag links.
func (db *DB) DeleteNote(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(ctx, tx, id)
	_, _ = tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id)
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)

	return tx.Commit()
}

// SetNoteTagList overwrites a note's denormalized tag list.
func (db *DB) SetNoteTagList(ctx context.Context, q Querier, noteID int64, serialized string) error {
	_, err := q.ExecContext(ctx, `UPDATE notes SET tags = ?, updated_at = ? WHERE id = ?`,
		serialized, time.Now().UTC(), noteID)
	if err != nil {
		return fmt.Errorf("store: set note tags: %w", err)
	}
	return nil
}

// SetNoteBook overwrites a note's denormalized book name.
func (db *DB) SetNoteBook(ctx context.Context, q Querier, noteID int64, book string) error {
	_, err := q.ExecContext(ctx, `UPDATE notes SET book = ?, updated_at = ? WHERE id = ?`,
		book, time.Now().UTC(), noteID)
	if err != nil {
		return fmt.Errorf("store: set note book: %w", err)
	}
	return nil
}

// ProbeNotes runs an existence probe over the notes table with the
// given join/where fragments. The search planner uses it to decide
// whether a ladder step produced any hit without fetching rows.
func (db *DB) ProbeNotes(ctx context.Context, join, where string, args []any) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM notes n ` + join + ` WHERE ` + where + `)`
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("store: probe notes: %w", err)
	}
	return exists, nil
}

// FetchNotes runs the winning search query with paging.
func (db *DB) FetchNotes(ctx context.Context, join, where, order string, args []any, limit, offset int) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes n ` + join + ` WHERE ` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	fetchArgs := append(append([]any{}, args...), limit, offset)
	rows, err := db.conn.QueryContext(ctx, query, fetchArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: fetch notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var (
			n    models.Note
			tags string
		)
		if err := rows.Scan(&n.ID, &n.Section, &n.Title, &n.Content, &n.TitleIdx, &n.ContentIdx,
			&n.Book, &tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.Tags = models.ExtractTags(tags)
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountNotes returns the total number of rows the search query matches.
func (db *DB) CountNotes(ctx context.Context, join, where string, args []any) (int, error) {
	var total int
	query := `SELECT count(*) FROM notes n ` + join + ` WHERE ` + where
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("store: count notes: %w", err)
	}
	return total, nil
}
