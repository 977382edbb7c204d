// Package models defines the domain types for Laguz.
package models

import "time"

// Note represents a single note in a section.
//
// TitleIdx and ContentIdx are plain-text, lower-cased derivations of
// Title/Content maintained on every write; search reads them and never
// touches the rich-text columns. Book and Tags are denormalized caches
// of the books/note_tags relations and are written only by the
// taxonomy reconcilers.
type Note struct {
	ID         int64     `json:"id"`
	Section    string    `json:"section"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	TitleIdx   string    `json:"-"`
	ContentIdx string    `json:"-"`
	Book       string    `json:"book,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag is an auxiliary row that exists only while at least one note in
// its section links to it. Name keeps whatever casing was first used to
// create the row.
type Tag struct {
	ID      int64  `json:"id"`
	Section string `json:"section"`
	Name    string `json:"name"`
}

// Book is the single-valued analog of Tag: it exists only while at
// least one note in its section carries its name.
type Book struct {
	ID      int64  `json:"id"`
	Section string `json:"section"`
	Name    string `json:"name"`
}
