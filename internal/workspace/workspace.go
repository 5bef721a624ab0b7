// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace owns the collection of workspaces and the two-step
// delete confirmation attached to each of them.
//
// A delete intent on an idle workspace arms it for a fixed window; a second
// intent inside the window deletes it. If the window lapses first the
// workspace silently returns to idle. Every workspace has its own deadline.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-hub/internal/armed"
	"github.com/pdiddy/research-hub/internal/clock"
	"github.com/pdiddy/research-hub/pkg/types"
)

var (
	// ErrEmptyName rejects a create whose trimmed name is empty.
	ErrEmptyName = fmt.Errorf("%w: workspace name is required", types.ErrValidation)

	// ErrNotFound is returned by operations that need an existing workspace.
	ErrNotFound = errors.New("workspace not found")

	// ErrNegativeCount rejects a paper count decrement.
	ErrNegativeCount = fmt.Errorf("%w: paper count increment must not be negative", types.ErrValidation)
)

// DeleteOutcome is the result of a delete intent.
type DeleteOutcome int

const (
	// OutcomeArmed means the first intent armed the workspace for confirmation.
	OutcomeArmed DeleteOutcome = iota + 1
	// OutcomeDeleted means a confirming intent removed the workspace.
	OutcomeDeleted
)

func (o DeleteOutcome) String() string {
	switch o {
	case OutcomeArmed:
		return "armed"
	case OutcomeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the store handed to observers.
type Snapshot struct {
	Workspaces []types.Workspace
	// Armed lists the IDs currently awaiting delete confirmation, in list order.
	Armed []string
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	// Clock timestamps new workspaces and evaluates confirm deadlines.
	Clock clock.Clock

	// ConfirmWindow is how long a delete intent stays armed (default 2.5s).
	ConfirmWindow time.Duration

	// NewID generates workspace IDs (default: UUIDv7).
	NewID func() (string, error)

	// Log receives one line per mutation. Defaults to io.Discard.
	Log io.Writer
}

type entry struct {
	ws    types.Workspace
	armed armed.Flag
}

// Store holds workspaces in insertion order. Safe for concurrent use;
// mutations are serialized and observers run after the lock is released.
type Store struct {
	mu        sync.Mutex
	entries   []*entry
	clock     clock.Clock
	window    time.Duration
	newID     func() (string, error)
	log       io.Writer
	observers []func(Snapshot)
}

// NewStore returns an empty Store.
func NewStore(opts Options) *Store {
	s := &Store{
		clock:  opts.Clock,
		window: opts.ConfirmWindow,
		newID:  opts.NewID,
		log:    opts.Log,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.window <= 0 {
		s.window = types.DefaultDeleteConfirmWindow
	}
	if s.newID == nil {
		s.newID = newUUIDv7
	}
	if s.log == nil {
		s.log = io.Discard
	}
	return s
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// OnChange registers fn to receive a snapshot after every transition.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// List returns the workspaces in insertion order.
func (s *Store) List() []types.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *Store) listLocked() []types.Workspace {
	out := make([]types.Workspace, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ws
	}
	return out
}

// Snapshot returns the current workspaces and armed IDs.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	now := s.clock.Now()
	snap := Snapshot{Workspaces: s.listLocked()}
	for _, e := range s.entries {
		if e.armed.Armed(now) {
			snap.Armed = append(snap.Armed, e.ws.ID)
		}
	}
	return snap
}

// Get returns the workspace with the given ID.
func (s *Store) Get(id string) (types.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i].ws, true
	}
	return types.Workspace{}, false
}

// Create appends a new workspace. The name is trimmed and must be non-empty;
// an empty description becomes types.DefaultDescription.
func (s *Store) Create(name, description string) (types.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Workspace{}, ErrEmptyName
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = types.DefaultDescription
	}

	s.mu.Lock()
	id, err := s.uniqueIDLocked()
	if err != nil {
		s.mu.Unlock()
		return types.Workspace{}, err
	}
	ws := types.Workspace{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}
	s.entries = append(s.entries, &entry{ws: ws})
	fmt.Fprintf(s.log, "workspace: created %s (%q)\n", ws.ID, ws.Name)
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return ws, nil
}

func (s *Store) uniqueIDLocked() (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generating workspace id: %w", err)
		}
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("generating workspace id: no unique id after 3 attempts")
}

// Delete removes the workspace immediately, bypassing confirmation. It
// reports whether a workspace was removed; false means it was already gone.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(i)
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return true
}

// DeleteIntent runs one step of the two-step delete. The first intent arms
// the workspace; a second intent before the window lapses deletes it. An
// intent after the window lapsed counts as a new first intent.
func (s *Store) DeleteIntent(id string) (DeleteOutcome, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return 0, fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	now := s.clock.Now()
	e := s.entries[i]
	var outcome DeleteOutcome
	if e.armed.Armed(now) {
		s.removeLocked(i)
		outcome = OutcomeDeleted
	} else {
		e.armed.Arm(now, s.window)
		fmt.Fprintf(s.log, "workspace: %s armed for delete\n", id)
		outcome = OutcomeArmed
	}
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return outcome, nil
}

// IsArmed reports whether the workspace is awaiting delete confirmation.
func (s *Store) IsArmed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	return i >= 0 && s.entries[i].armed.Armed(s.clock.Now())
}

// Sweep disarms workspaces whose confirmation window has lapsed and
// notifies observers if any did. It returns the number disarmed. Armed
// state is always evaluated lazily, so Sweep only matters to observers
// that want to redraw when a window lapses.
func (s *Store) Sweep() int {
	s.mu.Lock()
	now := s.clock.Now()
	n := 0
	for _, e := range s.entries {
		if e.armed.Expired(now) {
			e.armed.Disarm()
			n++
		}
	}
	if n == 0 {
		s.mu.Unlock()
		return 0
	}
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return n
}

// AddPapers increments the paper count of a workspace by n.
func (s *Store) AddPapers(id string, n int) (types.Workspace, error) {
	if n < 0 {
		return types.Workspace{}, ErrNegativeCount
	}
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return types.Workspace{}, fmt.Errorf("add papers to %s: %w", id, ErrNotFound)
	}
	s.entries[i].ws.PaperCount += n
	ws := s.entries[i].ws
	fmt.Fprintf(s.log, "workspace: %s +%d papers (total %d)\n", id, n, ws.PaperCount)
	snap, obs := s.notifyLocked()
	s.mu.Unlock()

	emit(obs, snap)
	return ws, nil
}

func (s *Store) indexLocked(id string) int {
	for i, e := range s.entries {
		if e.ws.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(i int) {
	id := s.entries[i].ws.ID
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	fmt.Fprintf(s.log, "workspace: deleted %s\n", id)
}

func (s *Store) notifyLocked() (Snapshot, []func(Snapshot)) {
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
