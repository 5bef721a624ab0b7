// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists saved documents and imported papers in a local
// SQLite database with a full-text index over titles, abstracts and
// summaries. The ingestion pipeline archives saved documents here and the
// search session records every import.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-hub/internal/summarize"
	"github.com/pdiddy/research-hub/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "library.db"
)

// Store manages the library database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
	fts        bool // false when the SQLite build lacks FTS5
	now        func() time.Time
	log        io.Writer
}

// NewStore opens or creates the library database at dir/index/library.db
// and creates the schema if it does not exist.
func NewStore(cfg types.LibraryConfig, log io.Writer) (*Store, error) {
	if log == nil {
		log = io.Discard
	}
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults, now: time.Now, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FullText reports whether queries use the FTS5 index.
func (s *Store) FullText() bool { return s.fts }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			identifier TEXT,
			title TEXT NOT NULL,
			authors TEXT,
			date TEXT,
			abstract TEXT,
			source TEXT,
			tags TEXT,
			citations INTEGER,
			acquisition_id TEXT,
			first_imported_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workspace_papers (
			workspace_id TEXT NOT NULL,
			paper_id INTEGER NOT NULL REFERENCES papers(rowid) ON DELETE CASCADE,
			imported_at TEXT NOT NULL,
			PRIMARY KEY (workspace_id, paper_id)
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			file_name TEXT NOT NULL,
			extracted_text TEXT NOT NULL,
			summary TEXT,
			summary_plain TEXT,
			saved_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_saved_at ON documents(saved_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	if err := s.createFTS(); err != nil {
		if !strings.Contains(err.Error(), "no such module") {
			return err
		}
		fmt.Fprintf(s.log, "warning: SQLite built without FTS5, library search falls back to substring matching\n")
		return nil
	}
	s.fts = true
	return nil
}

// createFTS creates the FTS5 tables and the triggers that keep them in
// sync with their content tables.
func (s *Store) createFTS() error {
	var exists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if exists > 0 {
		return nil
	}

	statements := []string{
		`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, tags, content=papers, content_rowid=rowid)`,
		`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
			INSERT INTO papers_fts(rowid, title, abstract, tags) VALUES (new.rowid, new.title, new.abstract, new.tags);
		END`,
		`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract, tags) VALUES('delete', old.rowid, old.title, old.abstract, old.tags);
		END`,
		`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract, tags) VALUES('delete', old.rowid, old.title, old.abstract, old.tags);
			INSERT INTO papers_fts(rowid, title, abstract, tags) VALUES (new.rowid, new.title, new.abstract, new.tags);
		END`,
		`CREATE VIRTUAL TABLE documents_fts USING fts5(file_name, summary_plain, extracted_text, content=documents, content_rowid=rowid)`,
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, file_name, summary_plain, extracted_text) VALUES (new.rowid, new.file_name, new.summary_plain, new.extracted_text);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, file_name, summary_plain, extracted_text) VALUES('delete', old.rowid, old.file_name, old.summary_plain, old.extracted_text);
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, file_name, summary_plain, extracted_text) VALUES('delete', old.rowid, old.file_name, old.summary_plain, old.extracted_text);
			INSERT INTO documents_fts(rowid, file_name, summary_plain, extracted_text) VALUES (new.rowid, new.file_name, new.summary_plain, new.extracted_text);
		END`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return tx.Commit()
}

// SaveDocument stores doc, replacing an earlier save of the same document.
// It satisfies the ingestion pipeline's archiver.
func (s *Store) SaveDocument(ctx context.Context, doc types.SavedDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document has no id", types.ErrValidation)
	}
	savedAt := doc.SavedAt
	if savedAt.IsZero() {
		savedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, file_name, extracted_text, summary, summary_plain, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			file_name=excluded.file_name, extracted_text=excluded.extracted_text,
			summary=excluded.summary, summary_plain=excluded.summary_plain,
			saved_at=excluded.saved_at`,
		doc.ID, doc.FileName, doc.ExtractedText, doc.Summary,
		summarize.PlainText(doc.Summary), savedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	return nil
}

// Document returns the saved document with id.
func (s *Store) Document(ctx context.Context, id string) (types.SavedDocument, error) {
	var (
		doc     types.SavedDocument
		summary sql.NullString
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, extracted_text, summary, saved_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.FileName, &doc.ExtractedText, &summary, &savedAt)
	if err == sql.ErrNoRows {
		return types.SavedDocument{}, fmt.Errorf("%w: document %s not found", types.ErrValidation, id)
	}
	if err != nil {
		return types.SavedDocument{}, fmt.Errorf("looking up document: %w", err)
	}
	doc.Summary = summary.String
	doc.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	return doc, nil
}

// RecordImport stores papers imported into workspaceID. Papers already in
// the library are refreshed with the latest metadata.
func (s *Store) RecordImport(ctx context.Context, workspaceID string, papers []types.PaperResult) error {
	if len(papers) == 0 {
		return nil
	}
	now := s.now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (key, identifier, title, authors, date, abstract, source, tags, citations, acquisition_id, first_imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			identifier=excluded.identifier, title=excluded.title, authors=excluded.authors, date=excluded.date,
			abstract=excluded.abstract, source=excluded.source, tags=excluded.tags,
			citations=excluded.citations, acquisition_id=excluded.acquisition_id`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer upsert.Close()

	link, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO workspace_papers (workspace_id, paper_id, imported_at)
		 SELECT ?, rowid, ? FROM papers WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("preparing link: %w", err)
	}
	defer link.Close()

	for _, p := range papers {
		key := paperKey(p)
		authorsJSON, _ := json.Marshal(p.Authors)
		tagsJSON, _ := json.Marshal(p.Tags)
		var citations sql.NullInt64
		if p.Citations.Known {
			citations = sql.NullInt64{Int64: int64(p.Citations.Count), Valid: true}
		}
		dateStr := ""
		if !p.Date.IsZero() {
			dateStr = p.Date.Format("2006-01-02")
		}
		if _, err := upsert.ExecContext(ctx,
			key, p.Identifier, p.Title, string(authorsJSON), dateStr, p.Abstract, p.Source,
			string(tagsJSON), citations, p.PreferredAcquisitionID, now,
		); err != nil {
			return fmt.Errorf("upserting paper %s: %w", key, err)
		}
		if workspaceID != "" {
			if _, err := link.ExecContext(ctx, workspaceID, now, key); err != nil {
				return fmt.Errorf("linking paper %s: %w", key, err)
			}
		}
	}
	return tx.Commit()
}

// paperKey is the library identity of a paper: its source identifier, or
// the lowercased title when the source gave none.
func paperKey(p types.PaperResult) string {
	if p.Identifier != "" {
		return strings.ToLower(p.Identifier)
	}
	return "title:" + strings.ToLower(strings.Join(strings.Fields(p.Title), " "))
}
