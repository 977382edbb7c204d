// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz note and taxonomy tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *noteservice.Service
	pageSize int
}

// New creates a new MCP server with all Laguz tools registered.
// pageSize caps how many rows search_notes returns per call.
func New(svc *noteservice.Service, pageSize int) *Server {
	s := &Server{svc: svc, pageSize: pageSize}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes in a section. Falls back from exact-phrase "+
			"through full-text to substring matching and reports the keywords it settled on."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section to search in")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query (3+ characters)")),
		mcp.WithString("book", mcp.Description("Optional book name filter")),
		mcp.WithString("tag", mcp.Description("Optional tag name filter")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create or update a note. Omit id to create."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section the note belongs to")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content (HTML allowed)")),
		mcp.WithNumber("id", mcp.Description("Existing note id to update")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("update_note_tags",
		mcp.WithDescription("Replace a note's tag set. Tags are matched case-insensitively, "+
			"created on demand, and deleted when their last reference disappears. "+
			"An empty list removes all tags."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names (empty to clear)")),
	), s.updateNoteTags)

	s.mcp.AddTool(mcp.NewTool("update_note_book",
		mcp.WithDescription("Set a note's book. Books are created on first reference and "+
			"deleted when no note references them. An empty name clears the book."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("book", mcp.Description("Book name (empty to clear)")),
	), s.updateNoteBook)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List a section's tags with their note reference counts."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section to list tags for")),
	), s.listTags)

	return s
}

// Listen serves MCP over stdin/stdout until the context is cancelled
// or stdin closes.
func (s *Server) Listen(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter := search.Filter{Section: section}
	if book, err := req.RequireString("book"); err == nil {
		filter.Book = book
	}
	if tag, err := req.RequireString("tag"); err == nil {
		filter.Tag = tag
	}

	page, err := s.svc.Search(ctx, filter, query, s.pageSize, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n := &models.Note{Section: section, Title: title, Content: content}
	if id, err := req.RequireFloat("id"); err == nil {
		n.ID = int64(id)
	}
	if err := s.svc.SaveNote(ctx, n); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved note %d", n.ID)), nil
}

func (s *Server) updateNoteTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireFloat("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var tags []string
	if raw, err := req.RequireString("tags"); err == nil {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if !s.svc.UpdateNoteTags(ctx, int64(noteID), tags) {
		return mcp.NewToolResultError(fmt.Sprintf("tag update failed for note %d", int64(noteID))), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) updateNoteBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireFloat("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	book := ""
	if b, err := req.RequireString("book"); err == nil {
		book = b
	}
	if !s.svc.UpdateNoteBook(ctx, int64(noteID), book) {
		return mcp.NewToolResultError(fmt.Sprintf("book update failed for note %d", int64(noteID))), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.SectionTags(ctx, section)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("no tags"), nil
	}
	var b strings.Builder
	for _, tr := range refs {
		fmt.Fprintf(&b, "%s (%d)\n", tr.Tag.Name, tr.Refs)
	}
	return mcp.NewToolResultText(b.String()), nil
}
