// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest runs one uploaded document through extraction and
// summarization.
//
// The pipeline holds at most one job. Uploading a new file supersedes the
// current job immediately; it does not wait for in-flight collaborator
// calls. Every job gets a new generation number, and completions carry the
// generation they were started for. A completion whose generation no longer
// matches is dropped, so a slow extraction for an old file can never
// overwrite the state of a newer one.
//
//	empty --Upload--> uploading --extracted--> extracted --GenerateSummary--> summarizing --done--> summarized
//	                      |                        ^                               |
//	                      +--failed--> empty       +-----------failed--------------+
package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/research-hub/internal/armed"
	"github.com/pdiddy/research-hub/internal/clock"
	"github.com/pdiddy/research-hub/pkg/types"
)

var (
	// ErrUnsupportedFileType rejects uploads that are not PDFs.
	ErrUnsupportedFileType = fmt.Errorf("%w: unsupported file type", types.ErrValidation)

	// ErrInvalidTransition rejects an operation the current stage does not allow.
	ErrInvalidTransition = fmt.Errorf("%w: operation not allowed in current stage", types.ErrValidation)

	// ErrEmptyResult marks a collaborator call that succeeded with no text.
	ErrEmptyResult = errors.New("content service returned no text")
)

// UnsupportedFileTypeError reports the rejected file and its declared type.
type UnsupportedFileTypeError struct {
	Name     string
	MIMEType string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s: only PDF files are accepted", e.MIMEType, e.Name)
}

// Unwrap lets errors.Is match ErrUnsupportedFileType and types.ErrValidation.
func (e *UnsupportedFileTypeError) Unwrap() error { return ErrUnsupportedFileType }

// Extractor turns a PDF into text.
type Extractor interface {
	ExtractText(ctx context.Context, file types.File) (string, error)
}

// Summarizer turns extracted text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Service is the part of the ContentService the pipeline depends on.
type Service interface {
	Extractor
	Summarizer
}

// Archiver stores saved documents. Saving is best effort: an archive
// failure is logged and never fails Save.
type Archiver interface {
	SaveDocument(ctx context.Context, doc types.SavedDocument) error
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	Clock clock.Clock

	// SaveAckWindow is how long Saved stays true after Save (default 3s).
	SaveAckWindow time.Duration

	// Archiver, if set, receives every saved document.
	Archiver Archiver

	// Log receives one line per transition. Defaults to io.Discard.
	Log io.Writer
}

// Pipeline is a single-slot ingestion pipeline. Safe for concurrent use.
type Pipeline struct {
	svc      Service
	archiver Archiver
	clock    clock.Clock
	window   time.Duration
	log      io.Writer

	inflight sync.WaitGroup

	mu        sync.Mutex
	gen       uint64
	stage     types.Stage
	file      types.File
	text      string
	summary   string
	saved     armed.Flag
	section   types.Section
	lastErr   string
	observers []func(types.IngestSnapshot)
}

// New returns an empty pipeline backed by svc.
func New(svc Service, opts Options) *Pipeline {
	p := &Pipeline{
		svc:      svc,
		archiver: opts.Archiver,
		clock:    opts.Clock,
		window:   opts.SaveAckWindow,
		log:      opts.Log,
		stage:    types.StageEmpty,
		section:  types.SectionNone,
	}
	if p.clock == nil {
		p.clock = clock.Real{}
	}
	if p.window <= 0 {
		p.window = types.DefaultSaveAckWindow
	}
	if p.log == nil {
		p.log = io.Discard
	}
	return p
}

// OnChange registers fn to receive a snapshot after every transition.
func (p *Pipeline) OnChange(fn func(types.IngestSnapshot)) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// isPDF reports whether a declared MIME type is application/pdf, ignoring
// case and parameters.
func isPDF(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType == types.MIMEPDF
}

// Upload starts a new job for file, discarding the current one, and begins
// extraction in the background. Non-PDF files are rejected with an
// *UnsupportedFileTypeError and leave the pipeline untouched.
//
// Extraction runs with ctx's values but not its cancellation: once started
// it completes and is then kept or discarded by generation.
func (p *Pipeline) Upload(ctx context.Context, file types.File) error {
	if !isPDF(file.MIMEType) {
		return &UnsupportedFileTypeError{Name: file.Name, MIMEType: file.MIMEType}
	}

	p.mu.Lock()
	p.resetLocked()
	p.stage = types.StageUploading
	p.file = file
	gen := p.gen
	fmt.Fprintf(p.log, "ingest: gen %d uploading %s (%d bytes)\n", gen, file.Name, len(file.Data))
	snap, obs := p.notifyLocked()
	p.inflight.Add(1)
	p.mu.Unlock()

	emit(obs, snap)

	go func() {
		defer p.inflight.Done()
		text, err := p.svc.ExtractText(context.WithoutCancel(ctx), file)
		p.completeExtraction(gen, text, err)
	}()
	return nil
}

func (p *Pipeline) completeExtraction(gen uint64, text string, err error) {
	p.mu.Lock()
	if gen != p.gen || p.stage != types.StageUploading {
		fmt.Fprintf(p.log, "ingest: discarded stale extraction for gen %d (current gen %d)\n", gen, p.gen)
		p.mu.Unlock()
		return
	}
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResult
	}
	if err != nil {
		msg := fmt.Errorf("%w: extracting %s: %w", types.ErrCollaborator, p.file.Name, err).Error()
		fmt.Fprintf(p.log, "warning: ingest: gen %d %s\n", gen, msg)
		p.resetLocked()
		p.lastErr = msg
	} else {
		p.stage = types.StageExtracted
		p.text = text
		p.section = types.SectionText
		p.lastErr = ""
		fmt.Fprintf(p.log, "ingest: gen %d extracted %d chars\n", gen, len(text))
	}
	snap, obs := p.notifyLocked()
	p.mu.Unlock()

	emit(obs, snap)
}

// GenerateSummary starts summarizing the extracted text in the background.
// It is allowed once text has been extracted and no summary is in flight;
// a previous summary is cleared.
func (p *Pipeline) GenerateSummary(ctx context.Context) error {
	p.mu.Lock()
	if p.stage != types.StageExtracted && p.stage != types.StageSummarized {
		stage := p.stage
		p.mu.Unlock()
		return fmt.Errorf("generate summary in stage %s: %w", stage, ErrInvalidTransition)
	}
	p.stage = types.StageSummarizing
	p.summary = ""
	p.section = types.SectionSummary
	p.lastErr = ""
	gen, text := p.gen, p.text
	fmt.Fprintf(p.log, "ingest: gen %d summarizing\n", gen)
	snap, obs := p.notifyLocked()
	p.inflight.Add(1)
	p.mu.Unlock()

	emit(obs, snap)

	go func() {
		defer p.inflight.Done()
		summary, err := p.svc.Summarize(context.WithoutCancel(ctx), text)
		p.completeSummary(gen, summary, err)
	}()
	return nil
}

func (p *Pipeline) completeSummary(gen uint64, summary string, err error) {
	p.mu.Lock()
	if gen != p.gen || p.stage != types.StageSummarizing {
		fmt.Fprintf(p.log, "ingest: discarded stale summary for gen %d (current gen %d)\n", gen, p.gen)
		p.mu.Unlock()
		return
	}
	if err == nil && strings.TrimSpace(summary) == "" {
		err = ErrEmptyResult
	}
	if err != nil {
		msg := fmt.Errorf("%w: summarizing %s: %w", types.ErrCollaborator, p.file.Name, err).Error()
		fmt.Fprintf(p.log, "warning: ingest: gen %d %s\n", gen, msg)
		p.stage = types.StageExtracted
		p.section = types.SectionText
		p.lastErr = msg
	} else {
		p.stage = types.StageSummarized
		p.summary = summary
		p.lastErr = ""
		fmt.Fprintf(p.log, "ingest: gen %d summarized (%d chars)\n", gen, len(summary))
	}
	snap, obs := p.notifyLocked()
	p.mu.Unlock()

	emit(obs, snap)
}

// Save marks the current document as saved for the acknowledgement window
// and hands it to the archiver. It succeeds in any stage that has extracted
// text and may be repeated.
func (p *Pipeline) Save(ctx context.Context) error {
	p.mu.Lock()
	if !p.stage.HasText() {
		stage := p.stage
		p.mu.Unlock()
		return fmt.Errorf("save in stage %s: %w", stage, ErrInvalidTransition)
	}
	now := p.clock.Now()
	p.saved.Arm(now, p.window)
	doc := types.SavedDocument{
		ID:            documentID(p.file),
		FileName:      p.file.Name,
		ExtractedText: p.text,
		Summary:       p.summary,
		SavedAt:       now,
	}
	gen := p.gen
	fmt.Fprintf(p.log, "ingest: gen %d saved %s\n", gen, doc.FileName)
	snap, obs := p.notifyLocked()
	archiver := p.archiver
	p.mu.Unlock()

	if archiver != nil {
		if err := archiver.SaveDocument(ctx, doc); err != nil {
			fmt.Fprintf(p.log, "warning: ingest: archiving %s: %v\n", doc.FileName, err)
		}
	}
	emit(obs, snap)
	return nil
}

// documentID derives a stable ID from the file name and contents.
func documentID(f types.File) string {
	h := sha256.New()
	h.Write([]byte(f.Name))
	h.Write([]byte{0})
	h.Write(f.Data)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// Clear discards the current job. In-flight collaborator calls are not
// cancelled; their results are dropped when they arrive.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	p.resetLocked()
	fmt.Fprintf(p.log, "ingest: cleared (gen %d)\n", p.gen)
	snap, obs := p.notifyLocked()
	p.mu.Unlock()

	emit(obs, snap)
}

// resetLocked returns to the empty stage under a new generation.
func (p *Pipeline) resetLocked() {
	p.gen++
	p.stage = types.StageEmpty
	p.file = types.File{}
	p.text = ""
	p.summary = ""
	p.saved.Disarm()
	p.section = types.SectionNone
	p.lastErr = ""
}

// Sweep clears a lapsed save acknowledgement and notifies observers. It
// reports whether anything changed. Saved is always evaluated lazily, so
// Sweep only matters to observers that redraw on lapse.
func (p *Pipeline) Sweep() bool {
	p.mu.Lock()
	if !p.saved.Expired(p.clock.Now()) {
		p.mu.Unlock()
		return false
	}
	p.saved.Disarm()
	snap, obs := p.notifyLocked()
	p.mu.Unlock()

	emit(obs, snap)
	return true
}

// ShowSection switches the active result pane. The summary pane is only
// available once summarizing has started.
func (p *Pipeline) ShowSection(section types.Section) error {
	p.mu.Lock()
	ok := false
	switch section {
	case types.SectionText:
		ok = p.stage.HasText()
	case types.SectionSummary:
		ok = p.stage == types.StageSummarizing || p.stage == types.StageSummarized
	case types.SectionNone:
		ok = true
	}
	if !ok {
		stage := p.stage
		p.mu.Unlock()
		return fmt.Errorf("show %s in stage %s: %w", section, stage, ErrInvalidTransition)
	}
	p.section = section
	snap, obs := p.notifyLocked()
	p.mu.Unlock()

	emit(obs, snap)
	return nil
}

// DownloadText returns a download file name ("<name>_text.txt") and the
// extracted text of the current job.
func (p *Pipeline) DownloadText() (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stage.HasText() {
		return "", "", fmt.Errorf("download text in stage %s: %w", p.stage, ErrInvalidTransition)
	}
	base := p.file.BaseName()
	if base == "" {
		base = "extracted"
	}
	return base + "_text.txt", p.text, nil
}

// Snapshot returns the current state. Saved reflects the acknowledgement
// window at the time of the call.
func (p *Pipeline) Snapshot() types.IngestSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pipeline) snapshotLocked() types.IngestSnapshot {
	return types.IngestSnapshot{
		Stage:         p.stage,
		Generation:    p.gen,
		FileName:      p.file.Name,
		MIMEType:      p.file.MIMEType,
		ExtractedText: p.text,
		Summary:       p.summary,
		Saved:         p.saved.Armed(p.clock.Now()),
		ActiveSection: p.section,
		LastError:     p.lastErr,
	}
}

// Wait blocks until every collaborator call started so far has completed
// and been applied or discarded.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

func (p *Pipeline) notifyLocked() (types.IngestSnapshot, []func(types.IngestSnapshot)) {
	if len(p.observers) == 0 {
		return types.IngestSnapshot{}, nil
	}
	obs := make([]func(types.IngestSnapshot), len(p.observers))
	copy(obs, p.observers)
	return p.snapshotLocked(), obs
}

func emit(obs []func(types.IngestSnapshot), snap types.IngestSnapshot) {
	for _, fn := range obs {
		fn(snap)
	}
}
