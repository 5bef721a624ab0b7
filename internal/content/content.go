// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content provides the ContentService collaborator used by the
// search session and the ingestion pipeline (paper search, text extraction
// and summarization) and the free-form research assistant behind Ask. Three implementations exist. Mock returns canned data
// after fixed delays, Direct calls public search APIs and local tools, and
// Remote talks to the research-hub backend over HTTP.
package content

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-hub/internal/auth"
	"github.com/pdiddy/research-hub/pkg/types"
)

// Service is the full collaborator surface.
type Service interface {
	Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error)
	ExtractText(ctx context.Context, file types.File) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	Ask(ctx context.Context, question string) (string, error)
}

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = fmt.Errorf("%w: question is empty", types.ErrValidation)

func trimQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	return q, nil
}

// Deps carries the collaborators New needs for the direct and remote modes.
// Fields unused by the selected mode may be nil.
type Deps struct {
	Searcher   Searcher
	Converter  Converter
	Summarizer Summarizer
	Assistant  Assistant
	Session    *auth.Session
	Log        io.Writer
}

// New builds the Service selected by cfg.Mode.
func New(cfg types.ContentConfig, deps Deps) (Service, error) {
	switch cfg.Mode {
	case types.ContentMock, "":
		return NewMock(cfg.ExtractDelay, cfg.SummaryDelay), nil
	case types.ContentDirect:
		if deps.Searcher == nil || deps.Converter == nil || deps.Summarizer == nil {
			return nil, fmt.Errorf("direct content mode needs a searcher, a converter and a summarizer")
		}
		return &Direct{Searcher: deps.Searcher, Converter: deps.Converter, Summarizer: deps.Summarizer, Assistant: deps.Assistant}, nil
	case types.ContentRemote:
		if deps.Session == nil {
			return nil, fmt.Errorf("remote content mode needs an auth session")
		}
		return NewRemote(cfg, deps.Session, deps.Log), nil
	default:
		return nil, fmt.Errorf("%w: unknown content mode %q", types.ErrValidation, cfg.Mode)
	}
}
