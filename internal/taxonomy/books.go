package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/store"
)

// Books reconciles a note's single book reference against the books
// relation: the single-valued analog of tag reconciliation, where the
// reference count collapses to an existence probe.
type Books struct {
	db     *store.DB
	logger *slog.Logger
}

// NewBooks creates a book reconciler.
func NewBooks(db *store.DB, logger *slog.Logger) *Books {
	return &Books{db: db, logger: logger}
}

// UpdateNoteBook points the note at the desired book inside a
// transaction it owns, creating the book on first reference and
// deleting the previous book once nothing references it. Same failure
// discipline as UpdateNoteTags: false means unknown note or a
// rolled-back store failure. A blank name clears the note's book.
func (r *Books) UpdateNoteBook(ctx context.Context, noteID int64, desired string) bool {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		r.logger.Warn("taxonomy: begin book update", slog.Int64("note_id", noteID), slog.String("error", err.Error()))
		return false
	}
	found, err := r.Reconcile(ctx, tx, noteID, desired)
	if err != nil {
		_ = tx.Rollback()
		r.logger.Warn("taxonomy: book update rolled back", slog.Int64("note_id", noteID), slog.String("error", err.Error()))
		return false
	}
	if !found {
		_ = tx.Rollback()
		return false
	}
	if err := tx.Commit(); err != nil {
		r.logger.Warn("taxonomy: book update commit", slog.Int64("note_id", noteID), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Reconcile runs book reconciliation inside a caller-supplied
// transaction. The bool is false when the note does not exist.
func (r *Books) Reconcile(ctx context.Context, tx store.Querier, noteID int64, desired string) (bool, error) {
	note, err := r.db.GetNote(ctx, tx, noteID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if desired == note.Book {
		return true, nil
	}

	resolved := ""
	if strings.TrimSpace(desired) != "" {
		existing, err := r.db.FindBook(ctx, tx, note.Section, desired)
		if err != nil {
			return false, err
		}
		if existing != nil {
			resolved = existing.Name
		} else {
			if _, err := r.db.InsertBook(ctx, tx, note.Section, desired); err != nil {
				return false, err
			}
			resolved = desired
		}
	}

	if err := r.db.SetNoteBook(ctx, tx, noteID, resolved); err != nil {
		return false, err
	}

	// Garbage-collect the previous book once no note carries its name.
	if note.Book != "" {
		inUse, err := r.db.BookInUse(ctx, tx, note.Section, note.Book)
		if err != nil {
			return false, err
		}
		if !inUse {
			prev, err := r.db.FindBook(ctx, tx, note.Section, note.Book)
			if err != nil {
				return false, err
			}
			if prev != nil {
				if err := r.db.DeleteBook(ctx, tx, prev.ID); err != nil {
					return false, err
				}
			}
		}
	}
	return true, nil
}
