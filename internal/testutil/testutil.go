// Package testutil provides shared test helpers for setting up databases
// and seeding note corpora.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "laguz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedNote inserts a note with derived search-index columns and returns it.
func SeedNote(t *testing.T, db *store.DB, section, title, content string) *models.Note {
	t.Helper()
	n := &models.Note{
		Section:    section,
		Title:      title,
		Content:    content,
		TitleIdx:   models.SearchText(title),
		ContentIdx: models.SearchText(content),
	}
	if err := db.SaveNote(context.Background(), n); err != nil {
		t.Fatalf("SeedNote: %v", err)
	}
	return n
}

// Count returns the number of rows a query yields; query must be a
// SELECT count(*) statement.
func Count(t *testing.T, db *store.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Handle().QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Count(%q): %v", query, err)
	}
	return n
}
