// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papersearch holds one search session: the current query, the
// result set it produced, and the set of selected results.
//
// Every successful search replaces the result set and clears the selection,
// so the selection only ever refers to results that are on screen. A failed
// search leaves the session untouched.
package papersearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pdiddy/research-hub/pkg/types"
)

var (
	// ErrSearchFailed wraps a ContentService search failure.
	ErrSearchFailed = fmt.Errorf("%w: search failed", types.ErrCollaborator)

	// ErrEmptyQuery rejects a search with no terms.
	ErrEmptyQuery = fmt.Errorf("%w: search query is empty", types.ErrValidation)

	// ErrUnknownResult rejects a selection of an ID not in the current results.
	ErrUnknownResult = fmt.Errorf("%w: result is not in the current result set", types.ErrValidation)
)

// Searcher is the search half of the ContentService.
type Searcher interface {
	Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error)
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Query    string
	Filter   types.SourceFilter
	Results  []types.PaperResult
	Selected []string
}

// Options configures a Session.
type Options struct {
	// OnImport receives the imported papers, in result order, each time
	// ImportSelected reports a non-zero count.
	OnImport func([]types.PaperResult)

	// Log receives one line per transition. Defaults to io.Discard.
	Log io.Writer
}

// Session is a paper search session. Safe for concurrent use.
type Session struct {
	searcher Searcher
	onImport func([]types.PaperResult)
	log      io.Writer

	mu        sync.Mutex
	query     string
	filter    types.SourceFilter
	results   []types.PaperResult
	index     map[string]int
	selected  map[string]bool
	observers []func(Snapshot)
}

// New returns an empty session backed by searcher.
func New(searcher Searcher, opts Options) *Session {
	s := &Session{
		searcher: searcher,
		onImport: opts.OnImport,
		log:      opts.Log,
		filter:   types.SourceAll,
		index:    map[string]int{},
		selected: map[string]bool{},
	}
	if s.log == nil {
		s.log = io.Discard
	}
	return s
}

// OnChange registers fn to receive a snapshot after every transition.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Search queries the ContentService and, on success, replaces the result
// set and clears the selection, even when the query repeats the previous
// one. On failure nothing changes.
//
// The lock is not held across the collaborator call. When two searches
// overlap, each one replaces the results as it completes.
func (s *Session) Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if filter == "" {
		filter = types.SourceAll
	}
	if !filter.Valid() {
		return nil, fmt.Errorf("%w: unknown source filter %q", types.ErrValidation, filter)
	}

	results, err := s.searcher.Search(ctx, query, filter)
	if err != nil {
		fmt.Fprintf(s.log, "warning: search %q failed: %v\n", query, err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	results = assignIDs(results)

	s.mu.Lock()
	s.query = query
	s.filter = filter
	s.results = results
	s.index = make(map[string]int, len(results))
	for i, r := range results {
		s.index[r.ID] = i
	}
	s.selected = map[string]bool{}
	fmt.Fprintf(s.log, "search: %q (%s) -> %d results\n", query, filter, len(results))
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return cloneResults(results), nil
}

// assignIDs gives every result a session-unique ID. Results keep an ID the
// service supplied unless it is empty or repeats an earlier one.
func assignIDs(in []types.PaperResult) []types.PaperResult {
	out := make([]types.PaperResult, len(in))
	seen := make(map[string]bool, len(in))
	next := 1
	for i, r := range in {
		if r.ID == "" || seen[r.ID] {
			for {
				candidate := "r" + strconv.Itoa(next)
				next++
				if !seen[candidate] && !suppliedLater(in[i+1:], candidate) {
					r.ID = candidate
					break
				}
			}
		}
		seen[r.ID] = true
		out[i] = r.Clone()
	}
	return out
}

func suppliedLater(rest []types.PaperResult, id string) bool {
	for _, r := range rest {
		if r.ID == id {
			return true
		}
	}
	return false
}

// ToggleSelect flips the selection of id. Toggling twice restores the
// original membership.
func (s *Session) ToggleSelect(id string) error {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("select %s: %w", id, ErrUnknownResult)
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return nil
}

// ImportSelected reports how many results are selected, hands them to the
// OnImport hook, and clears the selection.
func (s *Session) ImportSelected() int {
	s.mu.Lock()
	papers := s.selectedPapersLocked()
	n := len(papers)
	s.selected = map[string]bool{}
	fmt.Fprintf(s.log, "search: imported %d papers\n", n)
	snap, obs := s.notifyLocked()
	onImport := s.onImport
	s.mu.Unlock()

	if n > 0 && onImport != nil {
		onImport(papers)
	}
	emit(obs, snap)
	return n
}

// Results returns the current result set.
func (s *Session) Results() []types.PaperResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneResults(s.results)
}

// Result returns the current result with the given ID.
func (s *Session) Result(id string) (types.PaperResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return types.PaperResult{}, fmt.Errorf("result %s: %w", id, ErrUnknownResult)
	}
	return s.results[i].Clone(), nil
}

// Selected returns the selected IDs in result order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIDsLocked()
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[id]
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Query:    s.query,
		Filter:   s.filter,
		Results:  cloneResults(s.results),
		Selected: s.selectedIDsLocked(),
	}
}

func (s *Session) selectedIDsLocked() []string {
	var ids []string
	for _, r := range s.results {
		if s.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (s *Session) selectedPapersLocked() []types.PaperResult {
	var papers []types.PaperResult
	for _, r := range s.results {
		if s.selected[r.ID] {
			papers = append(papers, r.Clone())
		}
	}
	return papers
}

func (s *Session) notifyLocked() (Snapshot, []func(Snapshot)) {
	if len(s.observers) == 0 {
		return Snapshot{}, nil
	}
	obs := make([]func(Snapshot), len(s.observers))
	copy(obs, s.observers)
	return s.snapshotLocked(), obs
}

func emit(obs []func(Snapshot), snap Snapshot) {
	for _, fn := range obs {
		fn(snap)
	}
}

func cloneResults(in []types.PaperResult) []types.PaperResult {
	if in == nil {
		return nil
	}
	out := make([]types.PaperResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// IsSearchFailure reports whether err came from the ContentService rather
// than from input validation.
func IsSearchFailure(err error) bool {
	return errors.Is(err, ErrSearchFailed)
}
