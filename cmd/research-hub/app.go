// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-hub/internal/acquire"
	"github.com/pdiddy/research-hub/internal/auth"
	"github.com/pdiddy/research-hub/internal/content"
	"github.com/pdiddy/research-hub/internal/convert"
	"github.com/pdiddy/research-hub/internal/library"
	"github.com/pdiddy/research-hub/internal/search"
	"github.com/pdiddy/research-hub/internal/summarize"
	"github.com/pdiddy/research-hub/pkg/types"
)

// buildContent assembles the content service for cfg.Content.Mode. Direct
// mode checks for the conversion tool up front so a missing container
// runtime is reported before the shell starts.
func buildContent(ctx context.Context, cfg types.HubConfig, session *auth.Session, log io.Writer) (content.Service, error) {
	deps := content.Deps{Session: session, Log: log}
	if cfg.Content.Mode == types.ContentDirect {
		conv, err := convert.New(ctx, cfg.Content.Converter)
		if err != nil {
			return nil, fmt.Errorf("direct content mode: %w", err)
		}
		deps.Searcher = newSearchService(cfg.Search, log)
		deps.Converter = conv
		claude := newClaudeBackend(cfg)
		deps.Summarizer = summarize.New(claude, cfg.AI, log)
		deps.Assistant = claude
	}
	return content.New(cfg.Content, deps)
}

func newSearchService(cfg types.SearchConfig, log io.Writer) *search.Service {
	client := &http.Client{Timeout: cfg.Timeout}
	return search.NewService(search.DefaultBackends(cfg, client), cfg, true, log)
}

func newClaudeBackend(cfg types.HubConfig) *summarize.ClaudeBackend {
	return &summarize.ClaudeBackend{
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.Model,
		Client: &http.Client{Timeout: cfg.Content.Timeout},
	}
}

func newFetcher(cfg types.HubConfig, log io.Writer) *acquire.Fetcher {
	return acquire.NewFetcher(nil, cfg.Acquire, log)
}

func openLibrary(cfg types.HubConfig, log io.Writer) (*library.Store, error) {
	return library.NewStore(cfg.Library, log)
}

// newAuthSession restores the backend credential from the secrets directory.
func newAuthSession(log io.Writer) *auth.Session {
	return auth.NewSession(secretsDir, loadedSecrets, log)
}

// loginFunc binds auth.Login to the configured backend.
func loginFunc(cfg types.HubConfig, session *auth.Session) func(ctx context.Context, email, password string) error {
	client := &http.Client{Timeout: cfg.Content.Timeout}
	return func(ctx context.Context, email, password string) error {
		return auth.Login(ctx, client, cfg.Content.BaseURL, email, password, session)
	}
}
