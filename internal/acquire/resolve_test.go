// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType IdentifierType
		wantNorm string
	}{
		{"arxiv bare", "2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv prefixed", "arXiv:2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv lowercase prefix", "arxiv:2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv versioned", "2301.07041v2", TypeArxiv, "2301.07041v2"},
		{"arxiv five digit", "2301.12345", TypeArxiv, "2301.12345"},
		{"arxiv abs url", "https://arxiv.org/abs/2301.07041v1", TypeArxiv, "2301.07041v1"},
		{"arxiv pdf url", "https://arxiv.org/pdf/2301.07041.pdf", TypeArxiv, "2301.07041"},
		{"doi simple", "10.1145/1234567.1234568", TypeDOI, "10.1145/1234567.1234568"},
		{"doi nature", "10.1038/s41586-024-07487-w", TypeDOI, "10.1038/s41586-024-07487-w"},
		{"doi prefixed", "doi:10.1109/TII.2023.3341209", TypeDOI, "10.1109/TII.2023.3341209"},
		{"doi resolver url", "https://doi.org/10.1145/1234567", TypeDOI, "10.1145/1234567"},
		{"pmid", "PMID:37828701", TypePMID, "37828701"},
		{"pmid spaced", "pmid: 37828701", TypePMID, "37828701"},
		{"url https", "https://example.com/paper.pdf", TypeURL, "https://example.com/paper.pdf"},
		{"url http", "http://example.com/paper.pdf", TypeURL, "http://example.com/paper.pdf"},
		{"ftp is not a url", "ftp://example.com/paper.pdf", TypeUnknown, "ftp://example.com/paper.pdf"},
		{"unknown bare word", "not-an-id", TypeUnknown, "not-an-id"},
		{"unknown empty", "", TypeUnknown, ""},
		{"whitespace trimmed", "  2301.07041  ", TypeArxiv, "2301.07041"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			if gotType != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		idType   IdentifierType
		norm     string
		wantSlug string
	}{
		{"arxiv", TypeArxiv, "2301.07041", "2301.07041"},
		{"doi", TypeDOI, "10.1145/1234567.1234568", "10.1145-1234567.1234568"},
		{"pmid", TypePMID, "37828701", "pmid-37828701"},
		{"url with filename", TypeURL, "https://example.com/my-paper.pdf", "my-paper"},
		{"url no filename", TypeURL, "https://example.com/", urlHashSlug("https://example.com/")},
		{"unknown", TypeUnknown, "x", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.idType, tt.norm)
			if got != tt.wantSlug {
				t.Errorf("Slug(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.wantSlug)
			}
		})
	}
}

func TestPDFURL(t *testing.T) {
	tests := []struct {
		name    string
		idType  IdentifierType
		norm    string
		wantURL string
	}{
		{"arxiv", TypeArxiv, "2301.07041", arxivPDFBase + "2301.07041"},
		{"doi", TypeDOI, "10.1145/1234567", doiBase + "10.1145/1234567"},
		{"url passthrough", TypeURL, "https://example.com/paper.pdf", "https://example.com/paper.pdf"},
		{"pmid has none", TypePMID, "37828701", ""},
		{"unknown empty", TypeUnknown, "foo", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PDFURL(tt.idType, tt.norm)
			if got != tt.wantURL {
				t.Errorf("PDFURL(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.wantURL)
			}
		})
	}
}

func TestURLHashSlugStable(t *testing.T) {
	a := urlHashSlug("https://example.com/")
	if a != urlHashSlug("https://example.com/") {
		t.Error("hash slug not deterministic")
	}
	if a == urlHashSlug("https://example.org/") {
		t.Error("different URLs share a slug")
	}
	if len(a) != len("url-")+16 {
		t.Errorf("slug %q has unexpected length", a)
	}
}
