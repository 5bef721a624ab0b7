// Package summarize produces the markdown summary shown for an ingested
// document. Extracted text is split into sections at headings, each section
// is digested by an AI backend, and the digests are composed into one
// summary with overview, key findings, methodology and conclusion.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/research-hub/pkg/types"
)

// maxSectionRunes bounds one chunk sent to the backend. Text without
// headings is split on paragraph boundaries to stay under it.
const maxSectionRunes = 12000

// maxFindings caps the bullet list in the composed summary.
const maxFindings = 6

// ErrNothingToSummarize is returned for blank input.
var ErrNothingToSummarize = errors.New("no text to summarize")

// ErrEmptyQuestion is returned by Answer for a blank question.
var ErrEmptyQuestion = errors.New("empty question")

// AIBackend digests one section of a document.
type AIBackend interface {
	Digest(ctx context.Context, section string) (Digest, error)
}

// Digest is the backend's structured reading of one section. Empty fields
// mean the section said nothing on that point.
type Digest struct {
	Summary     string   `json:"summary"`
	KeyFindings []string `json:"key_findings"`
	Methodology string   `json:"methodology"`
	Conclusion  string   `json:"conclusion"`
}

// Summarizer implements the summarization half of the direct content
// service.
type Summarizer struct {
	backend     AIBackend
	maxRetries  int
	maxSections int
	log         io.Writer
}

// New returns a Summarizer. Zero values in cfg select defaults.
func New(backend AIBackend, cfg types.AIConfig, log io.Writer) *Summarizer {
	if log == nil {
		log = io.Discard
	}
	s := &Summarizer{backend: backend, maxRetries: cfg.MaxRetries, maxSections: cfg.MaxSections, log: log}
	if s.maxRetries <= 0 {
		s.maxRetries = 3
	}
	if s.maxSections <= 0 {
		s.maxSections = 12
	}
	return s
}

// Summarize digests text section by section and returns the composed
// markdown summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNothingToSummarize
	}

	var chunks []section
	for _, sec := range chunkByHeadings(text) {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		chunks = append(chunks, splitLong(sec, maxSectionRunes)...)
	}
	if len(chunks) > s.maxSections {
		fmt.Fprintf(s.log, "summarize: digesting first %d of %d sections\n", s.maxSections, len(chunks))
		chunks = chunks[:s.maxSections]
	}

	digests := make([]Digest, 0, len(chunks))
	for _, sec := range chunks {
		d, err := callWithRetry(ctx, s.backend, formatChunk(sec), s.maxRetries)
		if err != nil {
			return "", fmt.Errorf("summarizing section %q: %w", sec.heading, err)
		}
		digests = append(digests, d)
	}

	summary := compose(digests)
	if summary == "" {
		return "", fmt.Errorf("backend returned empty digests for %d sections", len(digests))
	}
	return summary, nil
}

// section represents a chunk of text under one heading.
type section struct {
	heading string
	body    string
	page    int
}

// chunkByHeadings splits Markdown into sections at heading boundaries
// (# to ###). Each section carries the heading text and the body up to the
// next heading. Page numbers come from HTML comments like <!-- page 3 -->.
func chunkByHeadings(content string) []section {
	lines := strings.Split(content, "\n")
	var sections []section
	currentHeading := ""
	currentPage := 1
	var bodyLines []string

	flush := func() {
		body := strings.Join(bodyLines, "\n")
		if currentHeading != "" || strings.TrimSpace(body) != "" {
			sections = append(sections, section{
				heading: currentHeading,
				body:    body,
				page:    currentPage,
			})
		}
		bodyLines = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if page, ok := parsePageMarker(trimmed); ok {
			currentPage = page
			continue
		}

		if isHeading(trimmed) {
			flush()
			currentHeading = stripHeadingPrefix(trimmed)
			continue
		}

		bodyLines = append(bodyLines, line)
	}

	flush()
	return sections
}

// isHeading returns true if the line starts with #, ## or ###.
func isHeading(line string) bool {
	return strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ")
}

// stripHeadingPrefix removes the leading # characters and whitespace.
func stripHeadingPrefix(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "#"))
}

// parsePageMarker extracts the page number from an HTML comment like <!-- page 3 -->.
func parsePageMarker(line string) (int, bool) {
	if !strings.HasPrefix(line, "<!-- page ") || !strings.HasSuffix(line, " -->") {
		return 0, false
	}
	inner := strings.TrimPrefix(line, "<!-- page ")
	inner = strings.TrimSuffix(inner, " -->")
	var page int
	if _, err := fmt.Sscanf(inner, "%d", &page); err != nil {
		return 0, false
	}
	return page, true
}

// splitLong breaks a section whose body exceeds limit runes into parts at
// paragraph boundaries. A single paragraph over the limit stays whole.
func splitLong(sec section, limit int) []section {
	if len([]rune(sec.body)) <= limit {
		return []section{sec}
	}
	var parts []section
	var cur strings.Builder
	n := 0
	emit := func() {
		if strings.TrimSpace(cur.String()) == "" {
			return
		}
		heading := sec.heading
		if len(parts) > 0 && heading != "" {
			heading = fmt.Sprintf("%s (cont. %d)", sec.heading, len(parts)+1)
		}
		parts = append(parts, section{heading: heading, body: cur.String(), page: sec.page})
		cur.Reset()
		n = 0
	}
	for _, para := range strings.Split(sec.body, "\n\n") {
		size := len([]rune(para)) + 2
		if n > 0 && n+size > limit {
			emit()
		}
		if n > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
		n += size
	}
	emit()
	return parts
}

// formatChunk prepares a section for the AI backend by combining heading and body.
func formatChunk(sec section) string {
	if sec.heading == "" {
		return strings.TrimSpace(sec.body)
	}
	return fmt.Sprintf("## %s\n\n%s", sec.heading, strings.TrimSpace(sec.body))
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the AI backend with exponential backoff.
func callWithRetry(ctx context.Context, backend AIBackend, chunk string, maxRetries int) (Digest, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Digest{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		d, err := backend.Digest(ctx, chunk)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return Digest{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// compose merges section digests into the summary layout:
//
//	**AI Summary**
//
//	<overview>
//
//	**Key Findings:**
//	• finding
//
//	**Methodology:** ...
//
//	**Conclusion:** ...
//
// The overview joins the first two section summaries, findings are
// deduplicated case-insensitively, methodology comes from the first section
// that states one and conclusion from the last.
func compose(digests []Digest) string {
	var overview []string
	var findings []string
	seen := make(map[string]bool)
	var method, conclusion string

	for _, d := range digests {
		if s := strings.TrimSpace(d.Summary); s != "" && len(overview) < 2 {
			overview = append(overview, s)
		}
		for _, f := range d.KeyFindings {
			f = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "•-* "))
			key := strings.ToLower(f)
			if f == "" || seen[key] || len(findings) >= maxFindings {
				continue
			}
			seen[key] = true
			findings = append(findings, f)
		}
		if m := strings.TrimSpace(d.Methodology); m != "" && method == "" {
			method = m
		}
		if c := strings.TrimSpace(d.Conclusion); c != "" {
			conclusion = c
		}
	}

	if len(overview) == 0 && len(findings) == 0 && method == "" && conclusion == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("**AI Summary**\n")
	if len(overview) > 0 {
		b.WriteString("\n" + strings.Join(overview, " ") + "\n")
	}
	if len(findings) > 0 {
		b.WriteString("\n**Key Findings:**\n")
		for _, f := range findings {
			b.WriteString("• " + f + "\n")
		}
	}
	if method != "" {
		b.WriteString("\n**Methodology:** " + method + "\n")
	}
	if conclusion != "" {
		b.WriteString("\n**Conclusion:** " + conclusion + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
