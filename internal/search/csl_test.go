// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/research-hub/pkg/types"
)

func TestToCSLItemArxiv(t *testing.T) {
	r := types.PaperResult{
		Identifier: "1706.03762",
		Title:      "Attention Is All You Need",
		Authors:    []string{"Ashish Vaswani", "Noam Shazeer"},
		Date:       time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
		Source:     "arxiv,semantic_scholar",
		Tags:       []string{"cs.CL", "cs.LG"},
	}

	item := toCSLItem(r)

	if item.Type != "article" {
		t.Errorf("Type = %q, want %q", item.Type, "article")
	}
	if item.URL != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("URL = %q", item.URL)
	}
	if item.Keyword != "cs.CL, cs.LG" {
		t.Errorf("Keyword = %q", item.Keyword)
	}
	if len(item.Author) != 2 || item.Author[0].Family != "Vaswani" {
		t.Errorf("Author = %+v", item.Author)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2017 {
		t.Errorf("Issued year should be 2017")
	}
	if item.DOI != "" {
		t.Errorf("DOI should be empty for arXiv IDs, got %q", item.DOI)
	}
}

func TestToCSLItemTypes(t *testing.T) {
	tests := []struct {
		name     string
		result   types.PaperResult
		wantType string
		wantDOI  string
		wantPMID string
	}{
		{"pubmed doi", types.PaperResult{Identifier: "10.1000/xyz", Source: "pubmed"}, "article-journal", "10.1000/xyz", ""},
		{"pubmed pmid", types.PaperResult{Identifier: "PMID:123", Source: "pubmed"}, "article-journal", "", "123"},
		{"ieee", types.PaperResult{Identifier: "10.1109/abc", Source: "ieee"}, "paper-conference", "10.1109/abc", ""},
		{"semantic scholar", types.PaperResult{Identifier: "abc123", Source: "semantic_scholar"}, "article", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := toCSLItem(tt.result)
			if item.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", item.Type, tt.wantType)
			}
			if item.DOI != tt.wantDOI {
				t.Errorf("DOI = %q, want %q", item.DOI, tt.wantDOI)
			}
			if item.PMID != tt.wantPMID {
				t.Errorf("PMID = %q, want %q", item.PMID, tt.wantPMID)
			}
		})
	}
}

func TestFormatCSL(t *testing.T) {
	out := SearchOutput{
		Results: []types.PaperResult{
			{
				Identifier: "1706.03762",
				Title:      "Attention Is All You Need",
				Authors:    []string{"Ashish Vaswani"},
				Date:       time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
				Source:     "arxiv",
			},
			{
				Identifier: "10.1109/5.771073",
				Title:      "Gradient-based learning",
				Authors:    []string{"LeCun"},
				Source:     "ieee",
			},
		},
	}

	var buf bytes.Buffer
	if err := FormatCSL(out, &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}
	s := buf.String()

	if !strings.Contains(s, "type: article") {
		t.Error("CSL output should contain type: article")
	}
	if !strings.Contains(s, "type: paper-conference") {
		t.Error("CSL output should contain type: paper-conference")
	}
	if !strings.Contains(s, "DOI: 10.1109/5.771073") {
		t.Error("CSL output should contain the DOI")
	}
	if !strings.Contains(s, "literal: LeCun") {
		t.Error("single-token author should use literal")
	}
	if strings.Count(s, "DOI:") != 1 {
		t.Errorf("expected exactly 1 DOI field, got %d", strings.Count(s, "DOI:"))
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Ashish Vaswani", CSLName{Given: "Ashish", Family: "Vaswani"}},
		{"Jean Paul Sartre", CSLName{Given: "Jean Paul", Family: "Sartre"}},
		{"OpenAI", CSLName{Literal: "OpenAI"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseAuthorName(tt.in); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
