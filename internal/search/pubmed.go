// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
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

// PubMed E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// PubMedBackend queries PubMed through NCBI E-utilities: esearch resolves
// the query to PMIDs, esummary fetches the document summaries. Summaries
// carry no abstract and no citation count.
type PubMedBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return string(types.SourcePubMed) }

// Search queries PubMed and returns results in PubMed relevance order.
func (b *PubMedBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.PaperResult, error) {
	term := buildPubMedTerm(query)
	if term == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(maxResults)},
		"sort":    {"relevance"},
	}
	if !query.DateFrom.IsZero() || !query.DateTo.IsZero() {
		params.Set("datetype", "pdat")
		params.Set("mindate", pubmedDate(query.DateFrom, "1800/01/01"))
		params.Set("maxdate", pubmedDate(query.DateTo, "3000/12/31"))
	}

	var sr pubmedSearchResponse
	if err := b.getJSON(ctx, pubmedSearchBase, params, cfg, &sr); err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	ids := sr.Result.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	sumParams := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	var sum pubmedSummaryResponse
	if err := b.getJSON(ctx, pubmedSummaryBase, sumParams, cfg, &sum); err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	uids := sum.Result.UIDs()
	if len(uids) == 0 {
		uids = ids
	}
	total := len(uids)
	var results []types.PaperResult
	for i, uid := range uids {
		doc, ok := sum.Result.Docs[uid]
		if !ok {
			continue
		}
		r := types.PaperResult{
			Identifier:             "PMID:" + uid,
			Title:                  strings.TrimSuffix(strings.TrimSpace(doc.Title), "."),
			Source:                 b.Name(),
			Tags:                   doc.PubType,
			RelevanceScore:         positionScore(i, total),
			PreferredAcquisitionID: "https://pubmed.ncbi.nlm.nih.gov/" + uid + "/",
		}
		for _, a := range doc.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}
		r.Date = parsePubMedDate(doc.SortPubDate, doc.PubDate)
		for _, id := range doc.ArticleIDs {
			if id.IDType == "doi" && id.Value != "" {
				r.Identifier = id.Value
				r.PreferredAcquisitionID = id.Value
				break
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (b *PubMedBackend) getJSON(ctx context.Context, base string, params url.Values, cfg types.SearchConfig, v any) error {
	params.Set("tool", "research-hub")
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// buildPubMedTerm combines query fields using PubMed field tags.
func buildPubMedTerm(q Query) string {
	var parts []string
	if t := strings.TrimSpace(q.FreeText); t != "" {
		parts = append(parts, t)
	}
	if q.Author != "" {
		parts = append(parts, q.Author+"[Author]")
	}
	for _, kw := range q.Keywords {
		parts = append(parts, kw+"[Title/Abstract]")
	}
	return strings.Join(parts, " AND ")
}

func pubmedDate(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.Format("2006/01/02")
}

// parsePubMedDate reads the sortable date ("2023/01/05 00:00") and falls
// back to the display date ("2023 Jan 5", "2023 Jan", "2023").
func parsePubMedDate(sortDate, display string) time.Time {
	if len(sortDate) >= 10 {
		if t, err := time.Parse("2006/01/02", sortDate[:10]); err == nil {
			return t
		}
	}
	for _, layout := range []string{"2006 Jan 2", "2006 Jan", "2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(display)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// E-utilities JSON structures.
type pubmedSearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result pubmedSummaryResult `json:"result"`
}

// pubmedSummaryResult mixes a "uids" array with one object per PMID keyed
// by the PMID itself.
type pubmedSummaryResult struct {
	uids []string
	Docs map[string]pubmedDoc
}

func (r pubmedSummaryResult) UIDs() []string { return r.uids }

func (r *pubmedSummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Docs = make(map[string]pubmedDoc, len(raw))
	for key, msg := range raw {
		if key == "uids" {
			if err := json.Unmarshal(msg, &r.uids); err != nil {
				return fmt.Errorf("uids: %w", err)
			}
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(msg, &doc); err != nil {
			return fmt.Errorf("document %s: %w", key, err)
		}
		r.Docs[key] = doc
	}
	return nil
}

type pubmedDoc struct {
	UID         string            `json:"uid"`
	Title       string            `json:"title"`
	PubDate     string            `json:"pubdate"`
	SortPubDate string            `json:"sortpubdate"`
	Source      string            `json:"source"`
	PubType     []string          `json:"pubtype"`
	Authors     []pubmedAuthor    `json:"authors"`
	ArticleIDs  []pubmedArticleID `json:"articleids"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}

type pubmedArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
