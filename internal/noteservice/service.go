// Package noteservice is the facade the surrounding application calls:
// note writes (with search-index derivation), planned search with
// previews, and taxonomy updates.
package noteservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/search"
	"github.com/starford/laguz/internal/store"
	"github.com/starford/laguz/internal/taxonomy"
)

const (
	minSearchTermLen = 3
	maxSnippets      = 3
	defaultPageSize  = 20
)

// Row is one search hit with its highlighted preview.
type Row struct {
	ID        int64     `json:"id"`
	Section   string    `json:"section"`
	Title     string    `json:"title"`
	Book      string    `json:"book,omitempty"`
	Tags      []string  `json:"tags"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchPage is the result of one search request: a page of rows plus
// the plan facts a caller needs to render consistent highlights.
type SearchPage struct {
	Rows        []Row    `json:"rows"`
	Total       int      `json:"total"`
	Keywords    []string `json:"keywords"`
	WholePhrase bool     `json:"whole_phrase"`
}

// Service coordinates the store, the search planner, and the taxonomy
// reconcilers.
type Service struct {
	db      *store.DB
	planner *search.Planner
	tags    *taxonomy.Tags
	books   *taxonomy.Books
	logger  *slog.Logger
}

// NewService wires a service over an open store.
func NewService(db *store.DB, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		planner: search.NewPlanner(db, logger),
		tags:    taxonomy.NewTags(db, logger),
		books:   taxonomy.NewBooks(db, logger),
		logger:  logger,
	}
}

// SaveNote writes a note, deriving the plain-text index columns from
// its title and content so search stays current. Tags/Book on the note
// are reconciled separately via UpdateNoteTags/UpdateNoteBook.
func (s *Service) SaveNote(ctx context.Context, n *models.Note) error {
	n.TitleIdx = models.SearchText(n.Title)
	n.ContentIdx = models.SearchText(n.Content)
	return s.db.SaveNote(ctx, n)
}

// GetNote loads a note by id.
func (s *Service) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return s.db.GetNote(ctx, s.db.Handle(), id)
}

// DeleteNote removes a note and its tag links. Tag/book rows the note
// referenced are not garbage-collected here; callers that care run the
// reconcilers with an empty set first.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	return s.db.DeleteNote(ctx, id)
}

// Search plans the term against the filtered corpus, fetches the
// requested page of the winning query, and builds each row's preview
// with the plan's keyword set. Terms shorter than three characters are
// rejected with apperr.ErrQueryTooShort; store failures degrade to an
// empty page (logged, never surfaced raw).
func (s *Service) Search(ctx context.Context, filter search.Filter, term string, pageSize, page int) (*SearchPage, error) {
	if len([]rune(term)) < minSearchTermLen {
		return nil, apperr.ErrQueryTooShort
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		page = 1
	}

	empty := &SearchPage{Rows: []Row{}, Keywords: []string{}}

	plan, err := s.planner.Plan(ctx, filter, term)
	if err != nil {
		s.logger.Warn("search: plan failed", slog.String("term", term), slog.String("error", err.Error()))
		return empty, nil
	}
	keywords := plan.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	if !plan.Matched {
		return &SearchPage{Rows: []Row{}, Keywords: keywords, WholePhrase: plan.WholePhrase}, nil
	}

	q := plan.Query
	total, err := s.db.CountNotes(ctx, q.Join, q.Where, q.Args)
	if err != nil {
		s.logger.Warn("search: count failed", slog.String("error", err.Error()))
		return empty, nil
	}
	notes, err := s.db.FetchNotes(ctx, q.Join, q.Where, q.Order, q.Args, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Warn("search: fetch failed", slog.String("error", err.Error()))
		return empty, nil
	}

	rows := make([]Row, len(notes))
	for i, n := range notes {
		rows[i] = Row{
			ID:        n.ID,
			Section:   n.Section,
			Title:     n.Title,
			Book:      n.Book,
			Tags:      n.Tags,
			Preview:   search.Snippets(plan.Keywords, plan.WholePhrase, n.ContentIdx, maxSnippets, true),
			UpdatedAt: n.UpdatedAt,
		}
	}
	return &SearchPage{
		Rows:        rows,
		Total:       total,
		Keywords:    keywords,
		WholePhrase: plan.WholePhrase,
	}, nil
}

// UpdateNoteTags reconciles the note's tag set. See taxonomy.Tags.
func (s *Service) UpdateNoteTags(ctx context.Context, noteID int64, tags []string) bool {
	return s.tags.UpdateNoteTags(ctx, noteID, tags)
}

// UpdateNoteBook reconciles the note's book reference. See taxonomy.Books.
func (s *Service) UpdateNoteBook(ctx context.Context, noteID int64, book string) bool {
	return s.books.UpdateNoteBook(ctx, noteID, book)
}

// SectionTags lists a section's tags with their reference counts.
func (s *Service) SectionTags(ctx context.Context, section string) ([]store.TagRef, error) {
	return s.db.SectionTags(ctx, s.db.Handle(), section)
}
