package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	dbFile, err := os.CreateTemp("", "laguz-mcp-test-*.db")
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

	svc := noteservice.NewService(db, slog.New(slog.DiscardHandler))
	return New(svc, 20)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; dispatch to the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "save_note":
		result, err = srv.saveNote(ctx, req)
	case "update_note_tags":
		result, err = srv.updateNoteTags(ctx, req)
	case "update_note_book":
		result, err = srv.updateNoteBook(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndSearchNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_note", map[string]interface{}{
		"section": "S",
		"title":   "Fox",
		"content": "the quick brown fox",
	})
	if text := resultText(r); text != "saved note 1" {
		t.Errorf("save result = %q", text)
	}

	r = callTool(t, srv, "search_notes", map[string]interface{}{
		"section": "S",
		"query":   "quick brown fox",
	})
	text := resultText(r)
	if !strings.Contains(text, `"whole_phrase": true`) || !strings.Contains(text, `"total": 1`) {
		t.Errorf("search result = %q", text)
	}
}

func TestSearchNotes_ShortQueryIsError(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_notes", map[string]interface{}{
		"section": "S",
		"query":   "ab",
	})
	if !r.IsError {
		t.Error("expected error for a too-short query")
	}
}

func TestUpdateTagsAndListTags(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "save_note", map[string]interface{}{
		"section": "S", "title": "t", "content": "c",
	})

	r := callTool(t, srv, "update_note_tags", map[string]interface{}{
		"note_id": float64(1),
		"tags":    "Work, Ideas",
	})
	if resultText(r) != "ok" {
		t.Errorf("tag update = %q", resultText(r))
	}

	r = callTool(t, srv, "list_tags", map[string]interface{}{"section": "S"})
	text := resultText(r)
	if !strings.Contains(text, "Work (1)") || !strings.Contains(text, "Ideas (1)") {
		t.Errorf("list_tags = %q", text)
	}
}

func TestUpdateNoteTags_MissingNote(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "update_note_tags", map[string]interface{}{
		"note_id": float64(9999),
		"tags":    "Tag1",
	})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestUpdateNoteBook(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "save_note", map[string]interface{}{
		"section": "S", "title": "t", "content": "c",
	})

	r := callTool(t, srv, "update_note_book", map[string]interface{}{
		"note_id": float64(1),
		"book":    "Journal",
	})
	if resultText(r) != "ok" {
		t.Errorf("book update = %q", resultText(r))
	}
}
