package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/research-hub/internal/httputil"
	"github.com/pdiddy/research-hub/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

// --- mock backend ---

type mockBackend struct {
	name    string
	results []types.PaperResult
	err     error

	mu    sync.Mutex
	calls []time.Time
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, _ Query, _ types.SearchConfig) ([]types.PaperResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, time.Now())
	m.mu.Unlock()
	return m.results, m.err
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxResults:        20,
		InterBackendDelay: 0,
		RecencyBiasWindow: 2 * 365 * 24 * time.Hour,
	}
}

// --- Query ---

func TestQueryIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"empty", Query{}, true},
		{"whitespace", Query{FreeText: "   "}, true},
		{"free text", Query{FreeText: "attention"}, false},
		{"author only", Query{Author: "Smith"}, false},
		{"keywords only", Query{Keywords: []string{"ml"}}, false},
		{"date only is empty", Query{DateFrom: time.Now()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Deduplication ---

func TestDeduplicateByIdentifier(t *testing.T) {
	results := []types.PaperResult{
		{Identifier: "2301.07041", Title: "Paper A", Source: "arxiv", RelevanceScore: 0.9},
		{Identifier: "2301.07041", Title: "Paper A (from S2)", Source: "semantic_scholar", RelevanceScore: 0.8},
		{Identifier: "2301.99999", Title: "Paper B", Source: "arxiv", RelevanceScore: 0.7},
	}

	deduped, removed := deduplicate(results)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
	if deduped[0].RelevanceScore != 0.9 {
		t.Errorf("merged score = %f, want 0.9", deduped[0].RelevanceScore)
	}
	if !strings.Contains(deduped[0].Source, "semantic_scholar") {
		t.Errorf("merged source = %q, should contain both backends", deduped[0].Source)
	}
}

func TestDeduplicateIdentifierCaseInsensitive(t *testing.T) {
	results := []types.PaperResult{
		{Identifier: "10.1109/ABC.2020", Title: "One", Source: "ieee"},
		{Identifier: "10.1109/abc.2020", Title: "Other title", Source: "semantic_scholar"},
	}
	deduped, removed := deduplicate(results)
	if removed != 1 || len(deduped) != 1 {
		t.Errorf("removed = %d, len = %d, want 1 and 1", removed, len(deduped))
	}
}

func TestDeduplicateByTitle(t *testing.T) {
	results := []types.PaperResult{
		{Identifier: "arxiv-id-1", Title: "Attention Is All You Need", Source: "arxiv"},
		{Identifier: "doi-10.123", Title: "attention is all you need!", Source: "semantic_scholar"},
	}

	deduped, removed := deduplicate(results)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 1 {
		t.Fatalf("len(deduped) = %d, want 1", len(deduped))
	}
}

func TestDeduplicateNearTitle(t *testing.T) {
	results := []types.PaperResult{
		{Identifier: "2402.01680", Title: "Large Language Model based Multi-Agents: A Survey", Source: "arxiv"},
		{Identifier: "10.1/xyz", Title: "Large Language Model based Multi Agent: A Survey", Source: "pubmed"},
		{Identifier: "10.1/other", Title: "Large Language Models for Robotics: A Survey", Source: "ieee"},
	}

	deduped, removed := deduplicate(results)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
	if deduped[0].Source != "arxiv,pubmed" {
		t.Errorf("Source = %q, want %q", deduped[0].Source, "arxiv,pubmed")
	}
}

func TestDeduplicateShortTitlesNeedExactMatch(t *testing.T) {
	results := []types.PaperResult{
		{Identifier: "a", Title: "Paper A", Source: "arxiv"},
		{Identifier: "b", Title: "Paper B", Source: "arxiv"},
	}
	deduped, removed := deduplicate(results)
	if removed != 0 || len(deduped) != 2 {
		t.Errorf("short titles one edit apart must not merge: removed = %d", removed)
	}
}

func TestDeduplicateNoDuplicates(t *testing.T) {
	results := []types.PaperResult{
		{Identifier: "2301.07041", Title: "Paper A", Source: "arxiv"},
		{Identifier: "2301.99999", Title: "Paper B", Source: "arxiv"},
	}

	deduped, removed := deduplicate(results)
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if len(deduped) != 2 {
		t.Errorf("len(deduped) = %d, want 2", len(deduped))
	}
}

// --- Ranking ---

func TestApplyRecencyBias(t *testing.T) {
	now := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	window := 2 * 365 * 24 * time.Hour
	results := []types.PaperResult{
		{Title: "Recent", Date: now.Add(-30 * 24 * time.Hour), RelevanceScore: 0.5},
		{Title: "Old", Date: now.Add(-5 * 365 * 24 * time.Hour), RelevanceScore: 0.5},
		{Title: "No date", RelevanceScore: 0.5},
		{Title: "Top", Date: now, RelevanceScore: 0.95},
	}

	applyRecencyBias(results, window, now)

	if results[0].RelevanceScore <= 0.5 {
		t.Errorf("recent paper should be boosted, got %f", results[0].RelevanceScore)
	}
	if results[1].RelevanceScore != 0.5 {
		t.Errorf("old paper should not be boosted, got %f", results[1].RelevanceScore)
	}
	if results[2].RelevanceScore != 0.5 {
		t.Errorf("no-date paper should not be boosted, got %f", results[2].RelevanceScore)
	}
	if results[3].RelevanceScore != 1.0 {
		t.Errorf("score should cap at 1.0, got %f", results[3].RelevanceScore)
	}
}

func TestPositionScore(t *testing.T) {
	if got := positionScore(0, 1); got != 1.0 {
		t.Errorf("single result score = %f, want 1.0", got)
	}
	if got := positionScore(0, 5); got != 1.0 {
		t.Errorf("first score = %f, want 1.0", got)
	}
	if got := positionScore(4, 5); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("last score = %f, want 0.1", got)
	}
}

// --- Search integration ---

func TestSearchEmptyQuery(t *testing.T) {
	var buf bytes.Buffer
	_, err := Search(context.Background(), Query{}, []Backend{&mockBackend{name: "mock"}}, testCfg(), false, &buf)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected empty query error, got: %v", err)
	}
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("empty query should be a validation error")
	}
}

func TestSearchNoBackends(t *testing.T) {
	var buf bytes.Buffer
	_, err := Search(context.Background(), Query{FreeText: "test"}, nil, testCfg(), false, &buf)
	if !errors.Is(err, ErrNoBackends) {
		t.Errorf("expected no backends error, got: %v", err)
	}
}

func TestSearchContinuesAfterBackendFailure(t *testing.T) {
	failing := &mockBackend{name: "failing", err: fmt.Errorf("network error")}
	working := &mockBackend{
		name: "working",
		results: []types.PaperResult{
			{Identifier: "2301.07041", Title: "Paper A", Source: "working", RelevanceScore: 0.9},
		},
	}

	var buf bytes.Buffer
	out, err := Search(context.Background(), Query{FreeText: "test"}, []Backend{failing, working}, testCfg(), false, &buf)
	if err != nil {
		t.Fatalf("Search should not fail entirely: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("len(Results) = %d, want 1", len(out.Results))
	}
	if len(out.BackendErrors) != 1 {
		t.Errorf("len(BackendErrors) = %d, want 1", len(out.BackendErrors))
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Error("output should contain warning about failed backend")
	}
}

func TestSearchAllBackendsFailed(t *testing.T) {
	b1 := &mockBackend{name: "b1", err: fmt.Errorf("timeout")}
	b2 := &mockBackend{name: "b2", err: fmt.Errorf("HTTP 503")}

	out, err := Search(context.Background(), Query{FreeText: "test"}, []Backend{b1, b2}, testCfg(), false, nil)
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Fatalf("expected ErrAllBackendsFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 503") || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error should carry every backend failure, got %q", err)
	}
	if len(out.BackendErrors) != 2 {
		t.Errorf("len(BackendErrors) = %d, want 2", len(out.BackendErrors))
	}
}

func TestSearchDedupAndRank(t *testing.T) {
	backend1 := &mockBackend{
		name: "b1",
		results: []types.PaperResult{
			{Identifier: "2301.07041", Title: "Paper A", Source: "b1", RelevanceScore: 0.9},
			{Identifier: "2301.99999", Title: "Paper C", Source: "b1", RelevanceScore: 0.6},
		},
	}
	backend2 := &mockBackend{
		name: "b2",
		results: []types.PaperResult{
			{Identifier: "2301.07041", Title: "Paper A (dup)", Source: "b2", RelevanceScore: 0.8},
			{Identifier: "2302.00001", Title: "Paper B", Source: "b2", RelevanceScore: 0.95},
		},
	}

	var buf bytes.Buffer
	out, err := Search(context.Background(), Query{FreeText: "test"}, []Backend{backend1, backend2}, testCfg(), false, &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if out.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", out.DupsRemoved)
	}
	if len(out.Results) != 3 {
		t.Errorf("len(Results) = %d, want 3", len(out.Results))
	}
	for i := 1; i < len(out.Results); i++ {
		if out.Results[i].RelevanceScore > out.Results[i-1].RelevanceScore {
			t.Errorf("results not sorted: [%d].Score=%f > [%d].Score=%f",
				i, out.Results[i].RelevanceScore, i-1, out.Results[i-1].RelevanceScore)
		}
	}
}

func TestSearchMaxResults(t *testing.T) {
	var results []types.PaperResult
	for i := 0; i < 30; i++ {
		results = append(results, types.PaperResult{
			Identifier:     fmt.Sprintf("id-%d", i),
			Title:          fmt.Sprintf("Paper %d", i),
			Source:         "mock",
			RelevanceScore: 1.0 - float64(i)/30.0,
		})
	}

	cfg := testCfg()
	cfg.MaxResults = 10
	var buf bytes.Buffer
	out, err := Search(context.Background(), Query{FreeText: "test"}, []Backend{&mockBackend{name: "mock", results: results}}, cfg, false, &buf)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results) != 10 {
		t.Errorf("len(Results) = %d, want 10", len(out.Results))
	}
}

func TestSearchSpacesBackendCalls(t *testing.T) {
	cfg := testCfg()
	cfg.InterBackendDelay = 20 * time.Millisecond
	backends := []*mockBackend{{name: "b1"}, {name: "b2"}, {name: "b3"}}

	start := time.Now()
	_, err := Search(context.Background(), Query{FreeText: "test"},
		[]Backend{backends[0], backends[1], backends[2]}, cfg, false, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	var last time.Time
	for _, b := range backends {
		if len(b.calls) != 1 {
			t.Fatalf("backend %s called %d times, want 1", b.name, len(b.calls))
		}
		if b.calls[0].After(last) {
			last = b.calls[0]
		}
	}
	if gap := last.Sub(start); gap < 35*time.Millisecond {
		t.Errorf("three calls finished within %v, want at least two delays", gap)
	}
}

func TestSearchCancelledWhileWaiting(t *testing.T) {
	cfg := testCfg()
	cfg.InterBackendDelay = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Only the first backend to reach the limiter runs before the deadline.
	b1 := &mockBackend{name: "b1", results: []types.PaperResult{{Identifier: "x", Title: "X", Source: "b1"}}}
	b2 := &mockBackend{name: "b2", results: []types.PaperResult{{Identifier: "y", Title: "Y", Source: "b2"}}}

	out, err := Search(ctx, Query{FreeText: "test"}, []Backend{b1, b2}, cfg, false, nil)
	if err != nil {
		t.Fatalf("one backend ran, Search should succeed: %v", err)
	}
	if len(out.Results) != 1 || len(out.BackendErrors) != 1 {
		t.Errorf("Results = %d, BackendErrors = %d, want 1 and 1", len(out.Results), len(out.BackendErrors))
	}
}

// --- Service ---

func TestServiceBackendsFor(t *testing.T) {
	arxiv := &mockBackend{name: "arxiv"}
	s2 := &mockBackend{name: "semantic_scholar"}
	svc := NewService([]Backend{arxiv, s2}, testCfg(), false, nil)

	if got := svc.BackendsFor(types.SourceAll); len(got) != 2 {
		t.Errorf("all: %d backends, want 2", len(got))
	}
	if got := svc.BackendsFor(types.SourceArxiv); len(got) != 1 || got[0].Name() != "arxiv" {
		t.Errorf("arxiv: got %v", got)
	}
	if got := svc.BackendsFor(types.SourcePubMed); len(got) != 0 {
		t.Errorf("pubmed: %d backends, want 0", len(got))
	}
}

func TestServiceSearchFilters(t *testing.T) {
	arxiv := &mockBackend{name: "arxiv", results: []types.PaperResult{{Identifier: "2301.07041", Title: "From arXiv", Source: "arxiv"}}}
	s2 := &mockBackend{name: "semantic_scholar", results: []types.PaperResult{{Identifier: "abc", Title: "From S2", Source: "semantic_scholar"}}}
	svc := NewService([]Backend{arxiv, s2}, testCfg(), false, nil)

	results, err := svc.Search(context.Background(), "agents", types.SourceSemanticScholar)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "From S2" {
		t.Errorf("results = %+v", results)
	}
	if len(arxiv.calls) != 0 {
		t.Error("arxiv backend should not be called for semantic_scholar filter")
	}

	_, err = svc.Search(context.Background(), "agents", types.SourceIEEE)
	if !errors.Is(err, ErrNoBackends) {
		t.Errorf("ieee filter with no backend: got %v", err)
	}

	_, err = svc.Search(context.Background(), "agents", types.SourceFilter("scopus"))
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("unknown filter: got %v", err)
	}
}

func TestDefaultBackends(t *testing.T) {
	cfg := types.DefaultConfig().Search
	names := func(bs []Backend) []string {
		var out []string
		for _, b := range bs {
			out = append(out, b.Name())
		}
		return out
	}

	got := names(DefaultBackends(cfg, nil))
	want := []string{"arxiv", "semantic_scholar", "pubmed"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("without IEEE key: %v, want %v", got, want)
	}

	cfg.IEEEAPIKey = "key"
	cfg.EnablePubMed = false
	got = names(DefaultBackends(cfg, nil))
	want = []string{"arxiv", "semantic_scholar", "ieee"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("with IEEE key: %v, want %v", got, want)
	}
}

// --- arXiv backend ---

const sampleArxivSearchXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>arXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v1</id>
    <title>Attention Is All
      You Need</title>
    <summary>We propose a new architecture based solely on attention mechanisms.</summary>
    <published>2017-06-12T17:57:34Z</published>
    <updated>2017-06-12T17:57:34Z</updated>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce BERT.</summary>
    <published>2018-10-11T00:00:00Z</published>
    <updated>2018-10-11T00:00:00Z</updated>
    <author><name>Jacob Devlin</name></author>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func TestArxivBackendSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, sampleArxivSearchXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	b := &ArxivBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{FreeText: "attention"}, testCfg())
	if err != nil {
		t.Fatalf("ArxivBackend.Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	r := results[0]
	if r.Identifier != "1706.03762" {
		t.Errorf("Identifier = %q, want %q", r.Identifier, "1706.03762")
	}
	if r.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", r.Title)
	}
	if len(r.Authors) != 2 {
		t.Errorf("len(Authors) = %d, want 2", len(r.Authors))
	}
	if r.Source != "arxiv" {
		t.Errorf("Source = %q, want %q", r.Source, "arxiv")
	}
	if strings.Join(r.Tags, ",") != "cs.CL,cs.LG" {
		t.Errorf("Tags = %v", r.Tags)
	}
	if r.Citations.Known {
		t.Errorf("arXiv citations should be unknown, got %+v", r.Citations)
	}
	if r.Date.Year() != 2017 || r.Date.Month() != time.June {
		t.Errorf("Date = %v", r.Date)
	}
	if r.PreferredAcquisitionID != "1706.03762" {
		t.Errorf("PreferredAcquisitionID = %q", r.PreferredAcquisitionID)
	}
	if r.RelevanceScore != 1.0 || results[1].RelevanceScore >= r.RelevanceScore {
		t.Errorf("RelevanceScore = %f, %f", r.RelevanceScore, results[1].RelevanceScore)
	}
}

func TestArxivBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	b := &ArxivBackend{Client: ts.Client()}
	_, err := b.Search(context.Background(), Query{FreeText: "attention"}, testCfg())
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("expected HTTP 500 error, got %v", err)
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/1706.03762v5", "1706.03762"},
		{"http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"https://arxiv.org/abs/2301.07041v2", "2301.07041"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := extractArxivID(tt.input)
			if got != tt.want {
				t.Errorf("extractArxivID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"free text", Query{FreeText: "attention mechanisms"}, "all:attention+mechanisms"},
		{"author", Query{Author: "Vaswani"}, "au:Vaswani"},
		{"combined", Query{FreeText: "attention", Author: "Vaswani"}, "all:attention+AND+au:Vaswani"},
		{"keywords", Query{Keywords: []string{"transformers", "nlp"}}, "all:transformers+AND+all:nlp"},
		{"empty", Query{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildArxivQuery(tt.query)
			if got != tt.want {
				t.Errorf("buildArxivQuery = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- PubMed backend ---

const samplePubMedSearchJSON = `{"header":{},"esearchresult":{"count":"2","retmax":"2","idlist":["38000001","38000002"]}}`

const samplePubMedSummaryJSON = `{"header":{},"result":{
  "uids":["38000001","38000002"],
  "38000001":{"uid":"38000001","title":"Agentic AI in clinical decision support.","pubdate":"2024 Jan 5","sortpubdate":"2024/01/05 00:00",
    "authors":[{"name":"Smith J","authtype":"Author"},{"name":"Doe A","authtype":"Author"}],
    "pubtype":["Journal Article","Review"],
    "articleids":[{"idtype":"pubmed","value":"38000001"},{"idtype":"doi","value":"10.1000/cds.2024"}]},
  "38000002":{"uid":"38000002","title":"Tool use by language models","pubdate":"2023","sortpubdate":"",
    "authors":[],"pubtype":["Journal Article"],"articleids":[{"idtype":"pubmed","value":"38000002"}]}
}}`

func TestPubMedBackendSearch(t *testing.T) {
	var searchQuery, summaryQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch", func(w http.ResponseWriter, r *http.Request) {
		searchQuery = r.URL.RawQuery
		fmt.Fprint(w, samplePubMedSearchJSON)
	})
	mux.HandleFunc("/esummary", func(w http.ResponseWriter, r *http.Request) {
		summaryQuery = r.URL.RawQuery
		fmt.Fprint(w, samplePubMedSummaryJSON)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	oldS, oldSum := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldS, oldSum }()

	b := &PubMedBackend{Client: ts.Client(), APIKey: "ncbi"}
	results, err := b.Search(context.Background(), Query{FreeText: "agentic ai"}, testCfg())
	if err != nil {
		t.Fatalf("PubMedBackend.Search: %v", err)
	}
	if !strings.Contains(searchQuery, "term=agentic+ai") || !strings.Contains(searchQuery, "api_key=ncbi") {
		t.Errorf("esearch query = %q", searchQuery)
	}
	if !strings.Contains(summaryQuery, "id=38000001%2C38000002") {
		t.Errorf("esummary query = %q", summaryQuery)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	r0 := results[0]
	if r0.Identifier != "10.1000/cds.2024" {
		t.Errorf("Identifier = %q, want DOI", r0.Identifier)
	}
	if r0.Title != "Agentic AI in clinical decision support" {
		t.Errorf("Title = %q", r0.Title)
	}
	if !r0.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", r0.Date)
	}
	if strings.Join(r0.Tags, ",") != "Journal Article,Review" {
		t.Errorf("Tags = %v", r0.Tags)
	}
	if r0.Citations.Known {
		t.Error("PubMed citations should be unknown")
	}

	r1 := results[1]
	if r1.Identifier != "PMID:38000002" {
		t.Errorf("Identifier = %q, want PMID", r1.Identifier)
	}
	if r1.Date.Year() != 2023 {
		t.Errorf("Date = %v, want 2023 from display date", r1.Date)
	}
}

func TestPubMedBackendNoHits(t *testing.T) {
	summaryCalled := false
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"count":"0","idlist":[]}}`)
	})
	mux.HandleFunc("/esummary", func(w http.ResponseWriter, _ *http.Request) {
		summaryCalled = true
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	oldS, oldSum := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldS, oldSum }()

	b := &PubMedBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{FreeText: "nothing"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 || summaryCalled {
		t.Errorf("results = %d, summaryCalled = %v", len(results), summaryCalled)
	}
}

func TestBuildPubMedTerm(t *testing.T) {
	q := Query{FreeText: "agents", Author: "Smith J", Keywords: []string{"triage"}}
	want := "agents AND Smith J[Author] AND triage[Title/Abstract]"
	if got := buildPubMedTerm(q); got != want {
		t.Errorf("buildPubMedTerm = %q, want %q", got, want)
	}
}

// --- IEEE Xplore backend ---

const sampleIEEEJSON = `{"total_records":2,"articles":[
  {"doi":"10.1109/TPAMI.2024.1","title":"Multi-Agent Reinforcement Learning","abstract":"A survey.",
   "article_number":"1001","publication_year":"2024","citing_paper_count":42,
   "authors":{"authors":[{"full_name":"Ada Lovelace"}]},
   "index_terms":{"ieee_terms":{"terms":["Reinforcement learning","Multi-agent systems"]},"author_terms":{"terms":["MARL","multi-agent systems"]}}},
  {"title":"No DOI Paper","article_number":"2002","publication_year":2021,"citing_paper_count":"7",
   "pdf_url":"https://ieeexplore.ieee.org/stamp/stamp.jsp?arnumber=2002","authors":{"authors":[]}}
]}`

func TestIEEEBackendSearch(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, sampleIEEEJSON)
	}))
	defer ts.Close()

	old := ieeeAPIBase
	ieeeAPIBase = ts.URL
	defer func() { ieeeAPIBase = old }()

	b := &IEEEBackend{Client: ts.Client(), APIKey: "secret"}
	results, err := b.Search(context.Background(), Query{FreeText: "marl"}, testCfg())
	if err != nil {
		t.Fatalf("IEEEBackend.Search: %v", err)
	}
	if got.URL.Query().Get("apikey") != "secret" || got.URL.Query().Get("querytext") != "marl" {
		t.Errorf("request query = %q", got.URL.RawQuery)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	r0 := results[0]
	if r0.Identifier != "10.1109/TPAMI.2024.1" || r0.Citations != types.KnownCitations(42) {
		t.Errorf("r0 = %+v", r0)
	}
	if strings.Join(r0.Tags, "|") != "Reinforcement learning|Multi-agent systems|MARL" {
		t.Errorf("Tags = %v", r0.Tags)
	}
	if r0.Year() != "2024" {
		t.Errorf("Year = %q", r0.Year())
	}

	r1 := results[1]
	if r1.Identifier != "IEEE:2002" || r1.Citations.Count != 7 || r1.Year() != "2021" {
		t.Errorf("r1 = %+v", r1)
	}
	if !strings.HasSuffix(r1.PreferredAcquisitionID, "arnumber=2002") {
		t.Errorf("PreferredAcquisitionID = %q", r1.PreferredAcquisitionID)
	}
}

func TestIEEEBackendRequiresKey(t *testing.T) {
	b := &IEEEBackend{Client: http.DefaultClient}
	if _, err := b.Search(context.Background(), Query{FreeText: "x"}, testCfg()); err == nil {
		t.Error("expected error without API key")
	}
}

// --- Output formatting ---

func TestFormatTable(t *testing.T) {
	out := SearchOutput{
		Results: []types.PaperResult{
			{Title: "Paper A", Authors: []string{"Smith"}, Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Source: "arxiv", RelevanceScore: 0.95},
			{Title: "Paper B", Authors: []string{"Jones", "Doe"}, Date: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), Source: "semantic_scholar", Citations: types.KnownCitations(12), RelevanceScore: 0.80},
		},
		DupsRemoved: 1,
	}

	var buf bytes.Buffer
	FormatTable(out, &buf)
	s := buf.String()

	for _, want := range []string{"Paper A", "Paper B", "unknown", "12", "Jones et al.", "1 duplicates removed"} {
		if !strings.Contains(s, want) {
			t.Errorf("table should contain %q", want)
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(SearchOutput{}, &buf)
	if !strings.Contains(buf.String(), "No results") {
		t.Error("empty output should say 'No results'")
	}
}

func TestFormatJSON(t *testing.T) {
	out := SearchOutput{
		Results: []types.PaperResult{
			{Identifier: "2301.07041", Title: "Paper A", Source: "arxiv", RelevanceScore: 0.9},
		},
	}

	var buf bytes.Buffer
	if err := FormatJSON(out, &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"citations": "unknown"`) {
		t.Errorf("unknown citations should marshal as \"unknown\": %s", buf.String())
	}

	var parsed []types.PaperResult
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(parsed) != 1 {
		t.Errorf("len(parsed) = %d, want 1", len(parsed))
	}
	if parsed[0].Identifier != "2301.07041" {
		t.Errorf("Identifier = %q", parsed[0].Identifier)
	}
}

// --- Helper functions ---

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Attention Is All You Need", "attention is all you need"},
		{"attention is all you need!", "attention is all you need"},
		{"  BERT:  Pre-training  ", "bert pretraining"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := normalizeTitle(tt.input)
			if got != tt.want {
				t.Errorf("normalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsArxivID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2301.07041", true},
		{"1706.03762", true},
		{"10.1234/foo", false},
		{"short", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isArxivID(tt.input); got != tt.want {
				t.Errorf("isArxivID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMergeInto(t *testing.T) {
	dst := types.PaperResult{
		Identifier:             "2301.07041",
		Title:                  "Paper A",
		Source:                 "arxiv",
		Tags:                   []string{"cs.AI"},
		RelevanceScore:         0.8,
		PreferredAcquisitionID: "2301.07041",
	}
	src := types.PaperResult{
		Identifier:             "2301.07041",
		Title:                  "Paper A (extended)",
		Authors:                []string{"Smith", "Jones"},
		Abstract:               "An abstract.",
		Source:                 "semantic_scholar",
		Tags:                   []string{"Computer Science", "cs.ai"},
		Citations:              types.KnownCitations(9),
		RelevanceScore:         0.9,
		PreferredAcquisitionID: "10.1/xyz",
		Date:                   time.Date(2023, 1, 17, 0, 0, 0, 0, time.UTC),
	}

	mergeInto(&dst, src)

	if len(dst.Authors) != 2 {
		t.Errorf("Authors should be filled from src, got %v", dst.Authors)
	}
	if dst.Abstract != "An abstract." {
		t.Errorf("Abstract should be filled from src")
	}
	if !dst.Date.Equal(time.Date(2023, 1, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date should be filled from src")
	}
	if math.Abs(dst.RelevanceScore-0.9) > 0.001 {
		t.Errorf("RelevanceScore should be max(0.8, 0.9) = 0.9, got %f", dst.RelevanceScore)
	}
	if !strings.Contains(dst.Source, "semantic_scholar") {
		t.Errorf("Source should contain both backends, got %q", dst.Source)
	}
	if strings.Join(dst.Tags, ",") != "cs.AI,Computer Science" {
		t.Errorf("Tags = %v", dst.Tags)
	}
	if dst.Citations != types.KnownCitations(9) {
		t.Errorf("Citations should be taken from src, got %+v", dst.Citations)
	}
	if dst.PreferredAcquisitionID != "2301.07041" {
		t.Errorf("arXiv acquisition ID should be kept, got %q", dst.PreferredAcquisitionID)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 20); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Überraschungsmomente der Forschung", 10); got != "Überras..." {
		t.Errorf("truncate = %q", got)
	}
}
