// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// MIMEPDF is the only MIME type the ingestion pipeline accepts.
const MIMEPDF = "application/pdf"

// File is an uploaded document: an opaque payload plus its declared name
// and MIME type.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// BaseName returns the file name without a trailing ".pdf".
func (f File) BaseName() string {
	if strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
		return f.Name[:len(f.Name)-len(".pdf")]
	}
	return f.Name
}

// Stage is the lifecycle position of the ingestion job.
type Stage string

const (
	StageEmpty       Stage = "empty"
	StageUploading   Stage = "uploading"
	StageExtracted   Stage = "extracted"
	StageSummarizing Stage = "summarizing"
	StageSummarized  Stage = "summarized"
)

// HasText reports whether the stage carries extracted text.
func (s Stage) HasText() bool {
	return s == StageExtracted || s == StageSummarizing || s == StageSummarized
}

// Section is the result pane the view should show.
type Section string

const (
	SectionNone    Section = "none"
	SectionText    Section = "text"
	SectionSummary Section = "summary"
)

// IngestSnapshot is a read-only view of the ingestion pipeline.
type IngestSnapshot struct {
	Stage         Stage   `json:"stage"`
	Generation    uint64  `json:"generation"`
	FileName      string  `json:"file_name,omitempty"`
	MIMEType      string  `json:"mime_type,omitempty"`
	ExtractedText string  `json:"extracted_text,omitempty"`
	Summary       string  `json:"summary,omitempty"`
	Saved         bool    `json:"saved"`
	ActiveSection Section `json:"active_section"`

	// LastError holds the message of the most recent collaborator failure
	// for the current job, cleared by the next successful transition.
	LastError string `json:"last_error,omitempty"`
}

// SavedDocument is the artifact handed to the library when a job is saved.
type SavedDocument struct {
	// ID is derived from the file contents, so saving the same document
	// again updates the existing record.
	ID            string    `json:"id" yaml:"id"`
	FileName      string    `json:"file_name" yaml:"file_name"`
	ExtractedText string    `json:"extracted_text" yaml:"extracted_text"`
	Summary       string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	SavedAt       time.Time `json:"saved_at" yaml:"saved_at"`
}
