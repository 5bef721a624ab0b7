// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Kind distinguishes the two record types in the library.
type Kind string

const (
	KindPaper    Kind = "paper"
	KindDocument Kind = "document"
)

// QueryOptions holds parameters for library queries.
type QueryOptions struct {
	// Query is the full-text search string. Empty lists records newest first.
	Query string

	// Kind restricts results to papers or documents. Empty returns both.
	Kind Kind

	// WorkspaceID restricts papers to those imported into a workspace.
	// Documents are not tied to workspaces and are excluded when it is set.
	WorkspaceID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Hit is one library record matching a query.
type Hit struct {
	Kind    Kind    `json:"kind" yaml:"kind"`
	ID      string  `json:"id" yaml:"id"`
	Title   string  `json:"title" yaml:"title"`
	Snippet string  `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Rank    float64 `json:"-" yaml:"-"`

	// Paper is set for KindPaper hits.
	Paper *types.PaperResult `json:"paper,omitempty" yaml:"paper,omitempty"`

	// Document is set for KindDocument hits. ExtractedText is left empty
	// in query results; use Store.Document for the full record.
	Document *types.SavedDocument `json:"document,omitempty" yaml:"document,omitempty"`

	at time.Time
}

// Retrieve queries the library. Full-text results are ordered by bm25
// relevance across both record kinds; listings are ordered newest first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Hit, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var hits []Hit
	if opts.Kind == "" || opts.Kind == KindPaper {
		ps, err := s.retrievePapers(ctx, opts, maxResults)
		if err != nil {
			return nil, err
		}
		hits = append(hits, ps...)
	}
	if (opts.Kind == "" || opts.Kind == KindDocument) && opts.WorkspaceID == "" {
		ds, err := s.retrieveDocuments(ctx, opts, maxResults)
		if err != nil {
			return nil, err
		}
		hits = append(hits, ds...)
	}

	if opts.Query != "" {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Rank < hits[j].Rank })
	} else {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].at.After(hits[j].at) })
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

func (s *Store) retrievePapers(ctx context.Context, opts QueryOptions, limit int) ([]Hit, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT p.key, p.identifier, p.title, p.authors, p.date, p.abstract, p.source,
			p.tags, p.citations, p.acquisition_id, p.first_imported_at`)

	switch {
	case opts.Query != "" && s.fts:
		qb.WriteString(`, snippet(papers_fts, 1, '[', ']', '...', 12), papers_fts.rank
			FROM papers_fts JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, ftsQuery(opts.Query))
	case opts.Query != "":
		qb.WriteString(`, '', 0 FROM papers p
			WHERE (p.title LIKE ? ESCAPE '\' OR p.abstract LIKE ? ESCAPE '\' OR p.tags LIKE ? ESCAPE '\')`)
		like := likePattern(opts.Query)
		args = append(args, like, like, like)
	default:
		qb.WriteString(`, '', 0 FROM papers p WHERE 1=1`)
	}

	if opts.WorkspaceID != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM workspace_papers w WHERE w.paper_id = p.rowid AND w.workspace_id = ?)`)
		args = append(args, opts.WorkspaceID)
	}
	if opts.Query != "" && s.fts {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.first_imported_at DESC, p.rowid DESC`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			p           types.PaperResult
			key         string
			identifier  sql.NullString
			authorsJSON sql.NullString
			date        sql.NullString
			abstract    sql.NullString
			source      sql.NullString
			tagsJSON    sql.NullString
			citations   sql.NullInt64
			acquisition sql.NullString
			importedAt  string
			snippet     string
			rank        float64
		)
		if err := rows.Scan(&key, &identifier, &p.Title, &authorsJSON, &date, &abstract, &source,
			&tagsJSON, &citations, &acquisition, &importedAt, &snippet, &rank); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &p.Tags)
		}
		if citations.Valid {
			p.Citations = types.KnownCitations(int(citations.Int64))
		}
		p.Date, _ = time.Parse("2006-01-02", date.String)
		p.Identifier = identifier.String
		p.Abstract = abstract.String
		p.Source = source.String
		p.PreferredAcquisitionID = acquisition.String
		at, _ := time.Parse(time.RFC3339Nano, importedAt)

		id := p.Identifier
		if id == "" {
			id = key
		}
		hits = append(hits, Hit{
			Kind: KindPaper, ID: id, Title: p.Title,
			Snippet: snippet, Rank: rank, Paper: &p, at: at,
		})
	}
	return hits, rows.Err()
}

func (s *Store) retrieveDocuments(ctx context.Context, opts QueryOptions, limit int) ([]Hit, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT d.id, d.file_name, d.summary, d.saved_at`)

	switch {
	case opts.Query != "" && s.fts:
		qb.WriteString(`, snippet(documents_fts, -1, '[', ']', '...', 12), documents_fts.rank
			FROM documents_fts JOIN documents d ON d.rowid = documents_fts.rowid
			WHERE documents_fts MATCH ? ORDER BY documents_fts.rank`)
		args = append(args, ftsQuery(opts.Query))
	case opts.Query != "":
		qb.WriteString(`, '', 0 FROM documents d
			WHERE d.file_name LIKE ? ESCAPE '\' OR d.summary_plain LIKE ? ESCAPE '\' OR d.extracted_text LIKE ? ESCAPE '\'
			ORDER BY d.saved_at DESC`)
		like := likePattern(opts.Query)
		args = append(args, like, like, like)
	default:
		qb.WriteString(`, '', 0 FROM documents d ORDER BY d.saved_at DESC`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			d       types.SavedDocument
			summary sql.NullString
			savedAt string
			snippet string
			rank    float64
		)
		if err := rows.Scan(&d.ID, &d.FileName, &summary, &savedAt, &snippet, &rank); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.Summary = summary.String
		d.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		hits = append(hits, Hit{
			Kind: KindDocument, ID: d.ID, Title: d.FileName,
			Snippet: snippet, Rank: rank, Document: &d, at: d.SavedAt,
		})
	}
	return hits, rows.Err()
}

// ftsQuery quotes each whitespace-separated term so user input cannot be
// read as FTS5 syntax. Terms are ANDed.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// likePattern builds a case-insensitive substring pattern for the fallback
// search.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
