// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/research-hub/internal/httputil"
	"github.com/pdiddy/research-hub/pkg/types"
)

// Lookup fetches bibliographic metadata for an arXiv ID or DOI from the
// arXiv API or CrossRef.
func (f *Fetcher) Lookup(ctx context.Context, identifier string) (types.PaperResult, error) {
	idType, normalized := Classify(identifier)
	p := types.PaperResult{
		Identifier:             normalized,
		PreferredAcquisitionID: normalized,
	}
	var err error
	switch idType {
	case TypeArxiv:
		p.Source = string(types.SourceArxiv)
		err = f.fetchArxivMetadata(ctx, normalized, &p)
	case TypeDOI:
		p.Source = "crossref"
		err = f.fetchCrossRefMetadata(ctx, normalized, &p)
	default:
		return types.PaperResult{}, fmt.Errorf("%w: no metadata source for %s identifier %q", types.ErrValidation, idType, identifier)
	}
	if err != nil {
		return types.PaperResult{}, err
	}
	return p, nil
}

func (f *Fetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := httputil.DoWithRetry(ctx, f.client, req, 2)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// fetchArxivMetadata retrieves metadata from the arXiv API.
func (f *Fetcher) fetchArxivMetadata(ctx context.Context, arxivID string, p *types.PaperResult) error {
	resp, err := f.get(ctx, fmt.Sprintf("%s?id_list=%s", arxivAPIBase, arxivID), "")
	if err != nil {
		return fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Items) == 0 {
		return fmt.Errorf("no entries found for arXiv ID %s", arxivID)
	}

	item := feed.Items[0]
	p.Title = strings.Join(strings.Fields(item.Title), " ")
	p.Abstract = strings.Join(strings.Fields(item.Description), " ")
	p.Tags = item.Categories
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
	}
	if item.PublishedParsed != nil {
		p.Date = item.PublishedParsed.UTC()
	}
	return nil
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title               []string         `json:"title"`
	Abstract            string           `json:"abstract"`
	Author              []crossrefAuthor `json:"author"`
	Created             crossrefDate     `json:"created"`
	Subject             []string         `json:"subject"`
	IsReferencedByCount *int             `json:"is-referenced-by-count"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// fetchCrossRefMetadata retrieves metadata from the CrossRef API.
func (f *Fetcher) fetchCrossRefMetadata(ctx context.Context, doi string, p *types.PaperResult) error {
	resp, err := f.get(ctx, crossrefAPIBase+doi, "application/json")
	if err != nil {
		return fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return fmt.Errorf("parsing CrossRef response: %w", err)
	}

	if len(cr.Message.Title) > 0 {
		p.Title = cr.Message.Title[0]
	}
	p.Abstract = stripJATS(cr.Message.Abstract)
	p.Tags = cr.Message.Subject
	if cr.Message.IsReferencedByCount != nil {
		p.Citations = types.KnownCitations(*cr.Message.IsReferencedByCount)
	}

	for _, a := range cr.Message.Author {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Given+" "+a.Family))
	}

	if len(cr.Message.Created.DateParts) > 0 && len(cr.Message.Created.DateParts[0]) >= 3 {
		parts := cr.Message.Created.DateParts[0]
		p.Date = time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
	}
	return nil
}

// stripJATS removes the JATS XML tags CrossRef wraps abstracts in.
func stripJATS(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
			b.WriteByte(' ')
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
