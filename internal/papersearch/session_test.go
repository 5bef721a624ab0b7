// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papersearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-hub/pkg/types"
)

// --- fake searcher ---

type fakeSearcher struct {
	results map[string][]types.PaperResult
	err     error
	calls   []types.SourceFilter
}

func (f *fakeSearcher) Search(_ context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error) {
	f.calls = append(f.calls, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func papers(titles ...string) []types.PaperResult {
	out := make([]types.PaperResult, len(titles))
	for i, t := range titles {
		out[i] = types.PaperResult{Title: t, Source: "arxiv"}
	}
	return out
}

func newFakeSession(t *testing.T) (*Session, *fakeSearcher) {
	t.Helper()
	f := &fakeSearcher{results: map[string][]types.PaperResult{
		"agentic ai": papers("AI Agents vs. Agentic AI", "ReAct", "Toolformer"),
		"robotics":   papers("RT-2", "PaLM-E"),
	}}
	return New(f, Options{}), f
}

func TestSearchAssignsSessionIDs(t *testing.T) {
	s, _ := newFakeSession(t)

	results, err := s.Search(context.Background(), "agentic ai", types.SourceAll)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "r1", results[0].ID)
	assert.Equal(t, "r2", results[1].ID)
	assert.Equal(t, "r3", results[2].ID)
	assert.Equal(t, "AI Agents vs. Agentic AI", results[0].Title)
}

func TestAssignIDsKeepsSuppliedUniqueIDs(t *testing.T) {
	in := []types.PaperResult{{ID: "x"}, {ID: ""}, {ID: "x"}, {ID: "r1"}}
	out := assignIDs(in)

	seen := map[string]bool{}
	for _, r := range out {
		require.NotEmpty(t, r.ID)
		require.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, "x", out[0].ID)
	assert.Equal(t, "r1", out[3].ID)
}

func TestSearchClearsSelection(t *testing.T) {
	s, _ := newFakeSession(t)
	ctx := context.Background()

	_, err := s.Search(ctx, "agentic ai", types.SourceAll)
	require.NoError(t, err)
	require.NoError(t, s.ToggleSelect("r1"))
	require.NoError(t, s.ToggleSelect("r3"))
	require.Equal(t, []string{"r1", "r3"}, s.Selected())

	_, err = s.Search(ctx, "robotics", types.SourceAll)
	require.NoError(t, err)
	assert.Empty(t, s.Selected())
	assert.False(t, s.IsSelected("r1"))
}

func TestSearchSameQueryStillReplaces(t *testing.T) {
	s, f := newFakeSession(t)
	ctx := context.Background()

	_, err := s.Search(ctx, "agentic ai", types.SourceAll)
	require.NoError(t, err)
	require.NoError(t, s.ToggleSelect("r2"))

	_, err = s.Search(ctx, "agentic ai", types.SourceAll)
	require.NoError(t, err)
	assert.Empty(t, s.Selected())
	assert.Len(t, f.calls, 2)
}

func TestSearchFailureKeepsState(t *testing.T) {
	s, f := newFakeSession(t)
	ctx := context.Background()

	_, err := s.Search(ctx, "agentic ai", types.SourceArxiv)
	require.NoError(t, err)
	require.NoError(t, s.ToggleSelect("r2"))
	before := s.Snapshot()

	f.err = errors.New("upstream 503")
	_, err = s.Search(ctx, "robotics", types.SourceAll)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.ErrorIs(t, err, types.ErrCollaborator)
	assert.True(t, IsSearchFailure(err))
	assert.Contains(t, err.Error(), "upstream 503")

	assert.Equal(t, before, s.Snapshot())
}

func TestSearchValidation(t *testing.T) {
	s, f := newFakeSession(t)

	_, err := s.Search(context.Background(), "   ", types.SourceAll)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.Search(context.Background(), "agentic ai", types.SourceFilter("scopus"))
	assert.ErrorIs(t, err, types.ErrValidation)

	assert.Empty(t, f.calls)
}

func TestSearchDefaultsFilter(t *testing.T) {
	s, f := newFakeSession(t)
	_, err := s.Search(context.Background(), "agentic ai", "")
	require.NoError(t, err)
	assert.Equal(t, []types.SourceFilter{types.SourceAll}, f.calls)
	assert.Equal(t, types.SourceAll, s.Snapshot().Filter)
}

func TestToggleSelectInvolution(t *testing.T) {
	s, _ := newFakeSession(t)
	_, err := s.Search(context.Background(), "agentic ai", types.SourceAll)
	require.NoError(t, err)

	for _, id := range []string{"r1", "r2"} {
		before := s.IsSelected(id)
		require.NoError(t, s.ToggleSelect(id))
		assert.NotEqual(t, before, s.IsSelected(id))
		require.NoError(t, s.ToggleSelect(id))
		assert.Equal(t, before, s.IsSelected(id))
	}
}

func TestToggleSelectUnknown(t *testing.T) {
	s, _ := newFakeSession(t)

	err := s.ToggleSelect("r1")
	assert.ErrorIs(t, err, ErrUnknownResult)

	_, err = s.Search(context.Background(), "robotics", types.SourceAll)
	require.NoError(t, err)
	err = s.ToggleSelect("r9")
	assert.ErrorIs(t, err, ErrUnknownResult)
	assert.Empty(t, s.Selected())
}

func TestImportSelected(t *testing.T) {
	var imported []types.PaperResult
	f := &fakeSearcher{results: map[string][]types.PaperResult{
		"agentic ai": papers("A", "B", "C"),
	}}
	s := New(f, Options{OnImport: func(p []types.PaperResult) { imported = p }})

	results, err := s.Search(context.Background(), "agentic ai", types.SourceAll)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	require.NoError(t, s.ToggleSelect("r3"))
	require.NoError(t, s.ToggleSelect("r1"))

	assert.Equal(t, 2, s.ImportSelected())
	assert.Empty(t, s.Selected())
	require.Len(t, imported, 2)
	assert.Equal(t, "A", imported[0].Title)
	assert.Equal(t, "C", imported[1].Title)

	// Results survive an import.
	assert.Len(t, s.Results(), 3)

	imported = nil
	assert.Equal(t, 0, s.ImportSelected())
	assert.Nil(t, imported)
}

func TestObserverReceivesEveryTransition(t *testing.T) {
	s, _ := newFakeSession(t)
	var snaps []Snapshot
	s.OnChange(func(snap Snapshot) { snaps = append(snaps, snap) })

	_, err := s.Search(context.Background(), "robotics", types.SourceAll)
	require.NoError(t, err)
	require.NoError(t, s.ToggleSelect("r1"))
	s.ImportSelected()

	require.Len(t, snaps, 3)
	assert.Len(t, snaps[0].Results, 2)
	assert.Equal(t, []string{"r1"}, snaps[1].Selected)
	assert.Empty(t, snaps[2].Selected)
}

func TestSelectionAlwaysSubsetOfResults(t *testing.T) {
	s, _ := newFakeSession(t)
	ctx := context.Background()
	queries := []string{"agentic ai", "robotics", "agentic ai"}

	for _, q := range queries {
		_, err := s.Search(ctx, q, types.SourceAll)
		require.NoError(t, err)
		for _, r := range s.Results() {
			require.NoError(t, s.ToggleSelect(r.ID))
		}
		ids := map[string]bool{}
		for _, r := range s.Results() {
			ids[r.ID] = true
		}
		for _, id := range s.Selected() {
			assert.True(t, ids[id], "selected id %s not in results", id)
		}
	}
}

func TestReturnedResultsDoNotAliasSession(t *testing.T) {
	f := &fakeSearcher{results: map[string][]types.PaperResult{
		"agents": {{Title: "ReAct", Authors: []string{"Yao"}, Tags: []string{"cs.CL"}}},
	}}
	var observed Snapshot
	s := New(f, Options{})
	s.OnChange(func(snap Snapshot) { observed = snap })

	res, err := s.Search(context.Background(), "agents", types.SourceAll)
	require.NoError(t, err)
	res[0].Tags[0] = "edited"
	res[0].Authors[0] = "edited"

	one, err := s.Result("r1")
	require.NoError(t, err)
	one.Tags[0] = "edited"

	require.Len(t, observed.Results, 1)
	observed.Results[0].Authors[0] = "edited"

	// The searcher's own slices are not retained either.
	f.results["agents"][0].Tags[0] = "edited"

	got := s.Results()[0]
	assert.Equal(t, []string{"cs.CL"}, got.Tags)
	assert.Equal(t, []string{"Yao"}, got.Authors)
}
