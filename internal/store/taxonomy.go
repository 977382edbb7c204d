package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/laguz/internal/models"
)

// TagRef is a section tag together with its current number of
// note_tags references. Reconciliation works on a fresh list of these
// per call; Refs is request-scoped working state, never shared.
type TagRef struct {
	Tag  models.Tag
	Refs int
}

// SectionTags returns every tag in a section with its reference count.
func (db *DB) SectionTags(ctx context.Context, q Querier, section string) ([]TagRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.section, t.name,
		       (SELECT count(*) FROM note_tags nt WHERE nt.tag_id = t.id)
		FROM tags t
		WHERE t.section = ?
		ORDER BY t.id
	`, section)
	if err != nil {
		return nil, fmt.Errorf("store: section tags: %w", err)
	}
	defer rows.Close()

	var out []TagRef
	for rows.Next() {
		var tr TagRef
		if err := rows.Scan(&tr.Tag.ID, &tr.Tag.Section, &tr.Tag.Name, &tr.Refs); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// InsertTag creates a tag row with the requested casing and returns its id.
func (db *DB) InsertTag(ctx context.Context, q Querier, section, name string) (int64, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO tags (section, name) VALUES (?, ?)`, section, name)
	if err != nil {
		return 0, fmt.Errorf("store: insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: tag id: %w", err)
	}
	return id, nil
}

// DeleteTag removes a tag row. Callers are responsible for having
// removed (or verified the absence of) its note_tags references.
func (db *DB) DeleteTag(ctx context.Context, q Querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete tag: %w", err)
	}
	return nil
}

// NoteTagIDs returns the ids of the tags currently linked to a note.
func (db *DB) NoteTagIDs(ctx context.Context, q Querier, noteID int64) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT tag_id FROM note_tags WHERE note_id = ?`, noteID)
	if err != nil {
		return nil, fmt.Errorf("store: note tag ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// LinkTag inserts a note↔tag association.
func (db *DB) LinkTag(ctx context.Context, q Querier, noteID, tagID int64) error {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`, noteID, tagID); err != nil {
		return fmt.Errorf("store: link tag: %w", err)
	}
	return nil
}

// UnlinkTag removes a note↔tag association.
func (db *DB) UnlinkTag(ctx context.Context, q Querier, noteID, tagID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`, noteID, tagID); err != nil {
		return fmt.Errorf("store: unlink tag: %w", err)
	}
	return nil
}

// FindBook looks up a book by name in a section, case-insensitively.
// Returns nil when no book matches.
func (db *DB) FindBook(ctx context.Context, q Querier, section, name string) (*models.Book, error) {
	var b models.Book
	err := q.QueryRowContext(ctx, `
		SELECT id, section, name FROM books
		WHERE section = ? AND name = ? COLLATE NOCASE
	`, section, name).Scan(&b.ID, &b.Section, &b.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find book: %w", err)
	}
	return &b, nil
}

// InsertBook creates a book row with the requested casing.
func (db *DB) InsertBook(ctx context.Context, q Querier, section, name string) (int64, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO books (section, name) VALUES (?, ?)`, section, name)
	if err != nil {
		return 0, fmt.Errorf("store: insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: book id: %w", err)
	}
	return id, nil
}

// DeleteBook removes a book row.
func (db *DB) DeleteBook(ctx context.Context, q Querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete book: %w", err)
	}
	return nil
}

// BookInUse probes whether any note in the section still carries the
// book name byte-for-byte. Notes store the book's resolved casing, so
// this is an exact comparison, not a NOCASE one.
func (db *DB) BookInUse(ctx context.Context, q Querier, section, name string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM notes WHERE section = ? AND book = ?)
	`, section, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: book in use: %w", err)
	}
	return exists, nil
}
