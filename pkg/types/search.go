// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for research-hub.
// Workspace and PaperResult are the entities exposed to the view layer;
// File, Stage and IngestSnapshot describe the document ingestion job;
// HubConfig groups component settings.
package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SourceFilter restricts a paper search to one academic source.
type SourceFilter string

const (
	SourceAll             SourceFilter = "all"
	SourceArxiv           SourceFilter = "arxiv"
	SourceSemanticScholar SourceFilter = "semantic_scholar"
	SourcePubMed          SourceFilter = "pubmed"
	SourceIEEE            SourceFilter = "ieee"
)

// SourceFilters lists every accepted filter in display order.
var SourceFilters = []SourceFilter{SourceAll, SourceArxiv, SourceSemanticScholar, SourcePubMed, SourceIEEE}

// Valid reports whether f is one of the known filters.
func (f SourceFilter) Valid() bool {
	for _, known := range SourceFilters {
		if f == known {
			return true
		}
	}
	return false
}

// ParseSourceFilter accepts the canonical names plus the labels shown in the
// search screen ("All", "arXiv", "Semantic Scholar", "PubMed", "IEEE").
// An empty string means SourceAll.
func ParseSourceFilter(s string) (SourceFilter, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "", "all":
		return SourceAll, nil
	case "arxiv":
		return SourceArxiv, nil
	case "semantic_scholar", "semanticscholar", "s2":
		return SourceSemanticScholar, nil
	case "pubmed":
		return SourcePubMed, nil
	case "ieee", "ieee_xplore":
		return SourceIEEE, nil
	}
	return "", fmt.Errorf("%w: unknown source filter %q", ErrValidation, s)
}

// Citations is a citation count that may be unknown for sources that do not
// report one. It marshals as an integer or the string "unknown".
type Citations struct {
	Count int
	Known bool
}

// KnownCitations returns a known citation count.
func KnownCitations(n int) Citations { return Citations{Count: n, Known: true} }

func (c Citations) String() string {
	if !c.Known {
		return "unknown"
	}
	return strconv.Itoa(c.Count)
}

// MarshalJSON implements json.Marshaler.
func (c Citations) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return []byte(`"unknown"`), nil
	}
	return []byte(strconv.Itoa(c.Count)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Citations) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Citations{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = KnownCitations(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("citations: %w", err)
	}
	if n, err := strconv.Atoi(s); err == nil {
		*c = KnownCitations(n)
		return nil
	}
	*c = Citations{}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Citations) MarshalYAML() (any, error) {
	if !c.Known {
		return "unknown", nil
	}
	return c.Count, nil
}

// PaperResult is one candidate paper returned by a search. Results are
// immutable once returned; a new search replaces the whole set.
type PaperResult struct {
	// ID identifies the result within one search session ("r1", "r2", ...).
	// It is not stable across searches.
	ID string `json:"id" yaml:"id"`

	// Identifier is the canonical ID from the source (arXiv ID, DOI, PMID, ...).
	Identifier string `json:"identifier" yaml:"identifier"`

	Title    string    `json:"title" yaml:"title"`
	Authors  []string  `json:"authors" yaml:"authors"`
	Abstract string    `json:"abstract" yaml:"abstract"`
	Date     time.Time `json:"date" yaml:"date"`

	// Source names the backend(s) that returned the paper (e.g. "arxiv",
	// "arxiv,semantic_scholar" after a merge).
	Source string `json:"source" yaml:"source"`

	// Tags are topic labels in source order (arXiv categories, fields of study, index terms).
	Tags []string `json:"tags" yaml:"tags"`

	Citations Citations `json:"citations" yaml:"citations"`

	// RelevanceScore is a value between 0.0 and 1.0 used for ranking.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// PreferredAcquisitionID is the identifier to fetch the PDF with:
	// arXiv ID if available, then DOI, then URL.
	PreferredAcquisitionID string `json:"preferred_acquisition_id" yaml:"preferred_acquisition_id"`
}

// Clone returns a copy that shares no slices with p.
func (p PaperResult) Clone() PaperResult {
	p.Authors = slices.Clone(p.Authors)
	p.Tags = slices.Clone(p.Tags)
	return p
}

// Year returns the publication year, or "" when the date is unknown.
func (p PaperResult) Year() string {
	if p.Date.IsZero() {
		return ""
	}
	return strconv.Itoa(p.Date.Year())
}
