// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Export is the on-disk snapshot of the library.
type Export struct {
	Papers    []types.PaperResult   `json:"papers" yaml:"papers"`
	Documents []types.SavedDocument `json:"documents" yaml:"documents"`
}

const exportLimit = 100000

// ExportYAML writes the library to dir/index/export.yaml and returns the
// path. It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	exp, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(exp)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes the library to dir/index/export.json and returns the
// path. It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	exp, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, indexDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// export collects matching records. Documents are exported in full,
// including their extracted text.
func (s *Store) export(ctx context.Context, opts QueryOptions) (Export, error) {
	opts.MaxResults = exportLimit
	hits, err := s.Retrieve(ctx, opts)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}

	exp := Export{Papers: []types.PaperResult{}, Documents: []types.SavedDocument{}}
	for _, h := range hits {
		switch h.Kind {
		case KindPaper:
			exp.Papers = append(exp.Papers, *h.Paper)
		case KindDocument:
			doc, err := s.Document(ctx, h.ID)
			if err != nil {
				return Export{}, err
			}
			exp.Documents = append(exp.Documents, doc)
		}
	}
	return exp, nil
}
