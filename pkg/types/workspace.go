// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"time"
)

// Error taxonomy shared by all components. Component errors wrap one of
// these so callers can classify with errors.Is.
var (
	// ErrValidation marks bad input rejected without any state change.
	ErrValidation = errors.New("validation error")

	// ErrCollaborator marks a failed ContentService call. The component
	// has rolled back to its pre-call state.
	ErrCollaborator = errors.New("collaborator failure")
)

// DefaultDescription replaces an empty workspace description.
const DefaultDescription = "No description"

// Workspace is a named container for a researcher's imported papers.
type Workspace struct {
	// ID is a time-ordered UUID assigned at creation. Immutable.
	ID string `json:"id" yaml:"id"`

	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	// PaperCount only grows, through imports.
	PaperCount int `json:"paper_count" yaml:"paper_count"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// CreatedDate formats CreatedAt as M/D/YYYY.
func (w Workspace) CreatedDate() string {
	return w.CreatedAt.Format("1/2/2006")
}
