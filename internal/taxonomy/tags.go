// Package taxonomy keeps the auxiliary tag and book relations in exact
// agreement with the notes that reference them: rows are created on
// first reference and deleted the moment the last reference disappears,
// one atomic transaction per note update.
package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/store"
)

// Tags reconciles a note's tag set against the tags/note_tags
// relations. Tag names are matched case-insensitively but stored with
// whatever casing first created them; every later case variant resolves
// to that canonical row.
type Tags struct {
	db     *store.DB
	logger *slog.Logger
}

// NewTags creates a tag reconciler.
func NewTags(db *store.DB, logger *slog.Logger) *Tags {
	return &Tags{db: db, logger: logger}
}

// UpdateNoteTags brings the tag relations into agreement with the
// desired name set inside a transaction it owns. It reports success as
// a plain bool: false for an unknown note id or any store failure, with
// the transaction rolled back and nothing partially applied. An empty
// desired set removes every tag from the note.
//
// Two concurrent calls against the same note race at the database
// level and the later commit wins; single-user contention makes that
// acceptable.
func (r *Tags) UpdateNoteTags(ctx context.Context, noteID int64, desired []string) bool {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		r.logger.Warn("taxonomy: begin tag update", slog.Int64("note_id", noteID), slog.String("error", err.Error()))
		return false
	}
	found, err := r.Reconcile(ctx, tx, noteID, desired)
	if err != nil {
		_ = tx.Rollback()
		r.logger.Warn("taxonomy: tag update rolled back", slog.Int64("note_id", noteID), slog.String("error", err.Error()))
		return false
	}
	if !found {
		_ = tx.Rollback()
		return false
	}
	if err := tx.Commit(); err != nil {
		r.logger.Warn("taxonomy: tag update commit", slog.Int64("note_id", noteID), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Reconcile runs the reconciliation steps inside a caller-supplied
// transaction, so a note-editing caller can compose it with other
// writes in the same commit. The bool is false when the note does not
// exist; the caller keeps ownership of commit/rollback.
func (r *Tags) Reconcile(ctx context.Context, tx store.Querier, noteID int64, desired []string) (bool, error) {
	note, err := r.db.GetNote(ctx, tx, noteID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	sectionTags, err := r.db.SectionTags(ctx, tx, note.Section)
	if err != nil {
		return false, err
	}

	canonical := canonicalize(desired, sectionTags)

	// Nothing to do when the desired set already equals the note's
	// denormalized list.
	if sameSet(canonical, note.Tags) {
		return true, nil
	}

	// Create tags that have no case-insensitive match in the section.
	for _, name := range canonical {
		if findTag(sectionTags, name) != nil {
			continue
		}
		id, err := r.db.InsertTag(ctx, tx, note.Section, name)
		if err != nil {
			return false, err
		}
		sectionTags = append(sectionTags, store.TagRef{
			Tag: models.Tag{ID: id, Section: note.Section, Name: name},
		})
	}

	linked, err := r.db.NoteTagIDs(ctx, tx, noteID)
	if err != nil {
		return false, err
	}

	// Link desired tags that are not yet associated with this note.
	desiredIDs := make(map[int64]bool, len(canonical))
	for _, name := range canonical {
		tr := findTag(sectionTags, name)
		desiredIDs[tr.Tag.ID] = true
		if linked[tr.Tag.ID] {
			continue
		}
		if err := r.db.LinkTag(ctx, tx, noteID, tr.Tag.ID); err != nil {
			return false, err
		}
		tr.Refs++
	}

	// Unlink stale associations and garbage-collect orphaned tags.
	for i := range sectionTags {
		tr := &sectionTags[i]
		if linked[tr.Tag.ID] && !desiredIDs[tr.Tag.ID] {
			if err := r.db.UnlinkTag(ctx, tx, noteID, tr.Tag.ID); err != nil {
				return false, err
			}
			tr.Refs--
		}
	}
	for i := range sectionTags {
		if sectionTags[i].Refs <= 0 {
			if err := r.db.DeleteTag(ctx, tx, sectionTags[i].Tag.ID); err != nil {
				return false, err
			}
		}
	}

	if err := r.db.SetNoteTagList(ctx, tx, noteID, models.CompressTags(canonical)); err != nil {
		return false, err
	}
	return true, nil
}

// canonicalize replaces each requested name with the stored casing of
// its case-insensitive section match and drops case-insensitive
// duplicates, keeping first-seen order.
func canonicalize(desired []string, sectionTags []store.TagRef) []string {
	out := make([]string, 0, len(desired))
	seen := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		if tr := findTag(sectionTags, name); tr != nil {
			name = tr.Tag.Name
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func findTag(sectionTags []store.TagRef, name string) *store.TagRef {
	for i := range sectionTags {
		if strings.EqualFold(sectionTags[i].Tag.Name, name) {
			return &sectionTags[i]
		}
	}
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
