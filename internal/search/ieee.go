// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-hub/internal/httputil"
	"github.com/pdiddy/research-hub/pkg/types"
)

// ieeeAPIBase is the IEEE Xplore metadata search endpoint. Declared as a var
// so tests can substitute an httptest server.
var ieeeAPIBase = "https://ieeexploreapi.ieee.org/api/v1/search/articles"

// IEEEBackend queries the IEEE Xplore metadata API. An API key is required.
// IEEE and author index terms become tags.
type IEEEBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *IEEEBackend) Name() string { return string(types.SourceIEEE) }

// Search queries IEEE Xplore and returns results.
func (b *IEEEBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.PaperResult, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("IEEE Xplore API key not configured")
	}
	q := buildSemanticQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty IEEE Xplore query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"querytext":   {q},
		"max_records": {strconv.Itoa(maxResults)},
		"format":      {"json"},
		"apikey":      {b.APIKey},
	}
	if query.Author != "" {
		params.Set("author", query.Author)
	}
	if !query.DateFrom.IsZero() {
		params.Set("start_year", strconv.Itoa(query.DateFrom.Year()))
	}
	if !query.DateTo.IsZero() {
		params.Set("end_year", strconv.Itoa(query.DateTo.Year()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ieeeAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("IEEE Xplore API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("IEEE Xplore API returned HTTP %d", resp.StatusCode)
	}

	var ir ieeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("parsing IEEE Xplore response: %w", err)
	}

	total := len(ir.Articles)
	var results []types.PaperResult
	for i, a := range ir.Articles {
		r := types.PaperResult{
			Title:          strings.TrimSpace(a.Title),
			Abstract:       strings.TrimSpace(a.Abstract),
			Source:         b.Name(),
			Citations:      types.KnownCitations(int(a.CitingPaperCount)),
			RelevanceScore: positionScore(i, total),
		}
		for _, au := range a.Authors.Authors {
			if au.FullName != "" {
				r.Authors = append(r.Authors, au.FullName)
			}
		}
		r.Tags = mergeTags(append([]string(nil), a.IndexTerms.IEEETerms.Terms...), a.IndexTerms.AuthorTerms.Terms)
		if a.PublicationYear > 0 {
			r.Date = time.Date(int(a.PublicationYear), 1, 1, 0, 0, 0, 0, time.UTC)
		}

		switch {
		case a.DOI != "":
			r.Identifier = a.DOI
			r.PreferredAcquisitionID = a.DOI
		case a.ArticleNumber != "":
			r.Identifier = "IEEE:" + a.ArticleNumber
			r.PreferredAcquisitionID = a.PDFURL
		}
		if r.PreferredAcquisitionID == "" {
			r.PreferredAcquisitionID = a.HTMLURL
		}
		results = append(results, r)
	}
	return results, nil
}

// IEEE Xplore JSON structures.
type ieeeResponse struct {
	TotalRecords int           `json:"total_records"`
	Articles     []ieeeArticle `json:"articles"`
}

type ieeeArticle struct {
	DOI              string      `json:"doi"`
	Title            string      `json:"title"`
	Abstract         string      `json:"abstract"`
	ArticleNumber    string      `json:"article_number"`
	PDFURL           string      `json:"pdf_url"`
	HTMLURL          string      `json:"html_url"`
	PublicationYear  looseInt    `json:"publication_year"`
	CitingPaperCount looseInt    `json:"citing_paper_count"`
	Authors          ieeeAuthors `json:"authors"`
	IndexTerms       struct {
		IEEETerms   ieeeTerms `json:"ieee_terms"`
		AuthorTerms ieeeTerms `json:"author_terms"`
	} `json:"index_terms"`
}

type ieeeAuthors struct {
	Authors []struct {
		FullName string `json:"full_name"`
	} `json:"authors"`
}

type ieeeTerms struct {
	Terms []string `json:"terms"`
}

// looseInt accepts a JSON number or a numeric string; anything else is 0.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseInt(v)
	return nil
}
