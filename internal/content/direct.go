// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Searcher runs a filtered free-text search. *search.Service satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error)
}

// Converter turns a PDF stream into text. The convert package provides
// markitdown and pdftotext implementations.
type Converter interface {
	Convert(ctx context.Context, pdf io.Reader) (string, error)
}

// Summarizer produces a markdown summary of extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Assistant answers a free-form research question.
// *summarize.ClaudeBackend satisfies it.
type Assistant interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Direct serves content from public search APIs and local tools.
type Direct struct {
	Searcher   Searcher
	Converter  Converter
	Summarizer Summarizer
	Assistant  Assistant
}

func (d *Direct) Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error) {
	return d.Searcher.Search(ctx, query, filter)
}

func (d *Direct) ExtractText(ctx context.Context, file types.File) (string, error) {
	text, err := d.Converter.Convert(ctx, bytes.NewReader(file.Data))
	if err != nil {
		return "", fmt.Errorf("%w: extracting %s: %w", types.ErrCollaborator, file.Name, err)
	}
	return strings.TrimSpace(text), nil
}

func (d *Direct) Summarize(ctx context.Context, text string) (string, error) {
	summary, err := d.Summarizer.Summarize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: summarizing: %w", types.ErrCollaborator, err)
	}
	return summary, nil
}

func (d *Direct) Ask(ctx context.Context, question string) (string, error) {
	question, err := trimQuestion(question)
	if err != nil {
		return "", err
	}
	if d.Assistant == nil {
		return "", fmt.Errorf("%w: no research assistant configured", types.ErrValidation)
	}
	answer, err := d.Assistant.Answer(ctx, question)
	if err != nil {
		return "", fmt.Errorf("%w: asking: %w", types.ErrCollaborator, err)
	}
	return answer, nil
}
