// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs and returns unified, deduplicated
// paper results. Each API is a Backend; Search fans a query out to a set of
// backends, merges duplicates and ranks what is left.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Backend searches a single academic API. Name returns the source filter
// value the backend answers to ("arxiv", "semantic_scholar", ...).
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.PaperResult, error)
}

// Query holds the search parameters.
type Query struct {
	FreeText string
	Author   string
	Keywords []string
	DateFrom time.Time
	DateTo   time.Time
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == "" && q.Author == "" && len(q.Keywords) == 0
}

// SearchOutput holds the results and dedup statistics.
type SearchOutput struct {
	Results       []types.PaperResult
	DupsRemoved   int
	BackendErrors []string
}

var (
	// ErrEmptyQuery is returned for a query with no searchable terms.
	ErrEmptyQuery = fmt.Errorf("%w: query is empty: provide a research question or structured parameters", types.ErrValidation)

	// ErrNoBackends is returned when no backend serves the requested source.
	ErrNoBackends = errors.New("no search backends configured")

	// ErrAllBackendsFailed is returned when every backend in the fan-out failed.
	ErrAllBackendsFailed = errors.New("all search backends failed")
)

// Search fans out the query to all backends concurrently, deduplicates
// results, ranks them, and returns the top N. Backend calls are spaced by
// cfg.InterBackendDelay through a shared rate limiter. A failing backend is
// reported on w and skipped; Search only fails when every backend failed.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, recencyBias bool, w io.Writer) (SearchOutput, error) {
	if query.IsEmpty() {
		return SearchOutput{}, ErrEmptyQuery
	}
	if len(backends) == 0 {
		return SearchOutput{}, ErrNoBackends
	}
	if w == nil {
		w = io.Discard
	}

	type backendResult struct {
		results []types.PaperResult
		err     error
		name    string
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.InterBackendDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.InterBackendDelay), 1)
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			if err := limiter.Wait(ctx); err != nil {
				ch <- backendResult{err: err, name: b.Name()}
				return
			}
			results, err := b.Search(ctx, query, cfg)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.PaperResult
	var backendErrors []string
	var errs []error
	for br := range ch {
		if br.err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", br.name, br.err))
			errs = append(errs, fmt.Errorf("%s: %w", br.name, br.err))
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		all = append(all, br.results...)
	}
	if len(errs) == len(backends) {
		return SearchOutput{BackendErrors: backendErrors}, fmt.Errorf("%w: %w", ErrAllBackendsFailed, errors.Join(errs...))
	}

	deduped, removed := deduplicate(all)

	if recencyBias && cfg.RecencyBiasWindow > 0 {
		applyRecencyBias(deduped, cfg.RecencyBiasWindow, time.Now())
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	if cfg.MaxResults > 0 && len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}

	return SearchOutput{
		Results:       deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// deduplicate merges results that share an identifier, a normalized title,
// or a near-identical normalized title.
func deduplicate(results []types.PaperResult) ([]types.PaperResult, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.PaperResult
	var titles []string // normalized title per deduped entry
	removed := 0

	for _, r := range results {
		key := dedupKey(r)
		if idx, ok := seen[key]; ok && key != "" {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}

		norm := normalizeTitle(r.Title)
		titleKey := "title:" + norm
		if norm != "" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
			if idx := nearDuplicate(titles, norm); idx >= 0 {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		titles = append(titles, norm)
		if key != "" {
			seen[key] = idx
		}
		if norm != "" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// Titles shorter than minFuzzyTitle runes only merge on an exact match.
const (
	minFuzzyTitle   = 16
	maxTitleEditGap = 2
)

// nearDuplicate returns the index of a title within maxTitleEditGap edits
// of norm, or -1.
func nearDuplicate(titles []string, norm string) int {
	n := utf8.RuneCountInString(norm)
	if n < minFuzzyTitle {
		return -1
	}
	for i, t := range titles {
		m := utf8.RuneCountInString(t)
		if m < minFuzzyTitle || abs(m-n) > maxTitleEditGap {
			continue
		}
		if levenshtein.ComputeDistance(t, norm) <= maxTitleEditGap {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// dedupKey returns a key for identifier-based dedup.
func dedupKey(r types.PaperResult) string {
	if r.Identifier != "" {
		return "id:" + strings.ToLower(r.Identifier)
	}
	return ""
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.PaperResult, src types.PaperResult) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.Date.IsZero() && !src.Date.IsZero() {
		dst.Date = src.Date
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if src.Citations.Known && (!dst.Citations.Known || src.Citations.Count > dst.Citations.Count) {
		dst.Citations = src.Citations
	}
	dst.Tags = mergeTags(dst.Tags, src.Tags)
	// Prefer arXiv ID for acquisition.
	if isArxivID(src.PreferredAcquisitionID) && !isArxivID(dst.PreferredAcquisitionID) {
		dst.PreferredAcquisitionID = src.PreferredAcquisitionID
	}
	if dst.PreferredAcquisitionID == "" {
		dst.PreferredAcquisitionID = src.PreferredAcquisitionID
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// mergeTags appends tags from src not already in dst (case-insensitive).
func mergeTags(dst, src []string) []string {
	have := make(map[string]bool, len(dst))
	for _, t := range dst {
		have[strings.ToLower(t)] = true
	}
	for _, t := range src {
		if !have[strings.ToLower(t)] {
			dst = append(dst, t)
			have[strings.ToLower(t)] = true
		}
	}
	return dst
}

// isArxivID returns true if the string looks like an arXiv ID (e.g. "2301.07041").
func isArxivID(s string) bool {
	if len(s) < 9 {
		return false
	}
	return s[4] == '.' && s[0] >= '0' && s[0] <= '9'
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// applyRecencyBias boosts scores for papers published within the window.
func applyRecencyBias(results []types.PaperResult, window time.Duration, now time.Time) {
	for i := range results {
		if results[i].Date.IsZero() {
			continue
		}
		age := now.Sub(results[i].Date)
		if age <= window {
			boost := 0.2 * (1.0 - float64(age)/float64(window))
			results[i].RelevanceScore = math.Min(1.0, results[i].RelevanceScore+boost)
		}
	}
}

// positionScore is the relevance assigned to the i-th of total results
// when a backend only returns a ranking: 1.0 for the first, 0.1 for the last.
func positionScore(i, total int) float64 {
	if total > 1 {
		return 1.0 - float64(i)/float64(total-1)*0.9
	}
	return 1.0
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out SearchOutput, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-9s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Citations", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 122))

	for i, r := range out.Results {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-9s  %-6.2f  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.Year(), r.Citations, r.RelevanceScore, r.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out SearchOutput, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
