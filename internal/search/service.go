// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Service answers free-text searches restricted by a source filter. It is
// the search half of the direct content service.
type Service struct {
	backends    []Backend
	cfg         types.SearchConfig
	recencyBias bool
	log         io.Writer
}

// NewService returns a Service over backends. Warnings about failed
// backends go to log (io.Discard when nil).
func NewService(backends []Backend, cfg types.SearchConfig, recencyBias bool, log io.Writer) *Service {
	if log == nil {
		log = io.Discard
	}
	return &Service{backends: backends, cfg: cfg, recencyBias: recencyBias, log: log}
}

// DefaultBackends builds the backends enabled in cfg. IEEE Xplore needs an
// API key and is left out without one.
func DefaultBackends(cfg types.SearchConfig, client *http.Client) []Backend {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	var backends []Backend
	if cfg.EnableArxiv {
		backends = append(backends, &ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnablePubMed {
		backends = append(backends, &PubMedBackend{Client: client, APIKey: cfg.NCBIAPIKey})
	}
	if cfg.EnableIEEE && cfg.IEEEAPIKey != "" {
		backends = append(backends, &IEEEBackend{Client: client, APIKey: cfg.IEEEAPIKey})
	}
	return backends
}

// BackendsFor returns the backends that serve filter. SourceAll selects
// every backend.
func (s *Service) BackendsFor(filter types.SourceFilter) []Backend {
	if filter == types.SourceAll || filter == "" {
		return s.backends
	}
	var out []Backend
	for _, b := range s.backends {
		if types.SourceFilter(b.Name()) == filter {
			out = append(out, b)
		}
	}
	return out
}

// Search runs a free-text query against the backends selected by filter.
func (s *Service) Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error) {
	if !filter.Valid() && filter != "" {
		return nil, fmt.Errorf("%w: unknown source filter %q", types.ErrValidation, filter)
	}
	backends := s.BackendsFor(filter)
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w for source %s", ErrNoBackends, filter)
	}
	out, err := Search(ctx, Query{FreeText: query}, backends, s.cfg, s.recencyBias, s.log)
	if err != nil {
		return nil, err
	}
	if out.DupsRemoved > 0 {
		fmt.Fprintf(s.log, "search: %d duplicates removed\n", out.DupsRemoved)
	}
	return out.Results, nil
}
