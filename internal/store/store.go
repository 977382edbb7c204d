// Package store provides the SQLite-backed data layer for notes and
// their taxonomy (tags, books, note↔tag links), with optional FTS5
// full-text search.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	section     TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	title_idx   TEXT NOT NULL DEFAULT '',
	content_idx TEXT NOT NULL DEFAULT '',
	book        TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tags (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	section TEXT NOT NULL,
	name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	section TEXT NOT NULL,
	name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id INTEGER NOT NULL,
	tag_id  INTEGER NOT NULL,
	UNIQUE(note_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_notes_section ON notes(section);
CREATE INDEX IF NOT EXISTS idx_tags_section ON tags(section);
CREATE INDEX IF NOT EXISTS idx_books_section ON books(section);
CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);
`

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store operations that may run inside a caller-supplied transaction
// take a Querier so reconcilers can compose with other note writes.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB with note/taxonomy operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// BeginTx starts a transaction for a reconciler-owned unit of work.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	return tx, nil
}

// Handle exposes the raw connection for tests.
func (db *DB) Handle() *sql.DB {
	return db.conn
}

// FTSEnabled reports whether this build carries the FTS5 virtual table.
func (db *DB) FTSEnabled() bool {
	return ftsEnabled
}
