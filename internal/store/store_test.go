package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "laguz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *DB, section, title, content string) *models.Note {
	t.Helper()
	n := &models.Note{
		Section:    section,
		Title:      title,
		Content:    content,
		TitleIdx:   models.SearchText(title),
		ContentIdx: models.SearchText(content),
	}
	if err := db.SaveNote(context.Background(), n); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	return n
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notes", "tags", "books", "note_tags"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestSaveAndGetNote(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := seed(t, db, "Sec", "Hello World", "<p>Some &amp; content</p>")
	if n.ID == 0 {
		t.Fatal("insert did not assign an id")
	}

	got, err := db.GetNote(ctx, db.conn, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Hello World" || got.Section != "Sec" {
		t.Errorf("note = %+v", got)
	}
	if got.TitleIdx != "hello world" || got.ContentIdx != "some & content" {
		t.Errorf("index columns = %q / %q", got.TitleIdx, got.ContentIdx)
	}
	if len(got.Tags) != 0 {
		t.Errorf("fresh note tags = %v", got.Tags)
	}
}

func TestSaveNote_UpdateExisting(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := seed(t, db, "Sec", "Old", "old body")
	n.Title = "New"
	n.Content = "new body"
	n.TitleIdx = models.SearchText(n.Title)
	n.ContentIdx = models.SearchText(n.Content)
	if err := db.SaveNote(ctx, n); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := db.GetNote(ctx, db.conn, n.ID)
	if got.Title != "New" || got.ContentIdx != "new body" {
		t.Errorf("note after update = %+v", got)
	}
}

func TestSaveNote_UpdateMissing(t *testing.T) {
	db := testDB(t)
	n := &models.Note{ID: 9999, Section: "Sec"}
	if err := db.SaveNote(context.Background(), n); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetNote(context.Background(), db.conn, 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote_RemovesTagLinks(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := seed(t, db, "Sec", "t", "c")
	tagID, err := db.InsertTag(ctx, db.conn, "Sec", "keep")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.LinkTag(ctx, db.conn, n.ID, tagID); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	links, err := db.NoteTagIDs(ctx, db.conn, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("links survived delete: %v", links)
	}
}

func TestProbeFetchCount_Substring(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seed(t, db, "A", "First", "the quick brown fox")
	seed(t, db, "A", "Second", "nothing relevant")
	seed(t, db, "B", "Other section", "the quick brown fox")

	where := `n.section = ? AND (n.content_idx LIKE ? ESCAPE '\')`
	args := []any{"A", "%quick%"}

	hit, err := db.ProbeNotes(ctx, "", where, args)
	if err != nil {
		t.Fatalf("ProbeNotes: %v", err)
	}
	if !hit {
		t.Fatal("expected probe hit")
	}

	total, err := db.CountNotes(ctx, "", where, args)
	if err != nil {
		t.Fatalf("CountNotes: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1 (section-scoped)", total)
	}

	notes, err := db.FetchNotes(ctx, "", where, "n.created_at, n.id", args, 10, 0)
	if err != nil {
		t.Fatalf("FetchNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "First" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestSectionTags_Counts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n1 := seed(t, db, "S", "a", "x")
	n2 := seed(t, db, "S", "b", "y")

	shared, _ := db.InsertTag(ctx, db.conn, "S", "Shared")
	lone, _ := db.InsertTag(ctx, db.conn, "S", "Lone")
	_ = db.LinkTag(ctx, db.conn, n1.ID, shared)
	_ = db.LinkTag(ctx, db.conn, n2.ID, shared)
	_ = db.LinkTag(ctx, db.conn, n1.ID, lone)

	refs, err := db.SectionTags(ctx, db.conn, "S")
	if err != nil {
		t.Fatalf("SectionTags: %v", err)
	}
	counts := map[string]int{}
	for _, tr := range refs {
		counts[tr.Tag.Name] = tr.Refs
	}
	if counts["Shared"] != 2 || counts["Lone"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestLinkTag_DuplicateIsIgnored(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := seed(t, db, "S", "a", "x")
	id, _ := db.InsertTag(ctx, db.conn, "S", "One")
	if err := db.LinkTag(ctx, db.conn, n.ID, id); err != nil {
		t.Fatal(err)
	}
	if err := db.LinkTag(ctx, db.conn, n.ID, id); err != nil {
		t.Fatalf("duplicate link should be ignored: %v", err)
	}
	links, _ := db.NoteTagIDs(ctx, db.conn, n.ID)
	if len(links) != 1 {
		t.Errorf("links = %v", links)
	}
}

func TestFindBook_CaseInsensitive(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.InsertBook(ctx, db.conn, "S", "My Book"); err != nil {
		t.Fatal(err)
	}
	b, err := db.FindBook(ctx, db.conn, "S", "my book")
	if err != nil {
		t.Fatalf("FindBook: %v", err)
	}
	if b == nil || b.Name != "My Book" {
		t.Errorf("book = %+v, want canonical casing preserved", b)
	}

	none, err := db.FindBook(ctx, db.conn, "S", "absent")
	if err != nil || none != nil {
		t.Errorf("absent book = %+v, %v", none, err)
	}
}

func TestBookInUse_ExactCasing(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := seed(t, db, "S", "a", "x")
	if err := db.SetNoteBook(ctx, db.conn, n.ID, "Book"); err != nil {
		t.Fatal(err)
	}

	inUse, err := db.BookInUse(ctx, db.conn, "S", "Book")
	if err != nil || !inUse {
		t.Errorf("BookInUse(Book) = %v, %v", inUse, err)
	}
	// Notes store the resolved casing, so the probe compares exactly.
	inUse, err = db.BookInUse(ctx, db.conn, "S", "book")
	if err != nil || inUse {
		t.Errorf("BookInUse(book) = %v, %v, want false", inUse, err)
	}
}
