// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts text from PDFs with pluggable backends: the
// markitdown container image and the host pdftotext binary.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/research-hub/internal/container"
	"github.com/pdiddy/research-hub/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// ErrEmptyOutput is returned when a backend succeeds but produces no text.
var ErrEmptyOutput = errors.New("converter produced empty output")

// Converter transforms a PDF stream into text.
type Converter interface {
	Convert(ctx context.Context, pdf io.Reader) (string, error)
}

// ToolConverter pipes the PDF through a container.Runner and cleans the
// output.
type ToolConverter struct {
	runner container.Runner
}

// NewToolConverter wraps r.
func NewToolConverter(r container.Runner) *ToolConverter {
	return &ToolConverter{runner: r}
}

// Convert runs the tool over pdf.
func (c *ToolConverter) Convert(ctx context.Context, pdf io.Reader) (string, error) {
	var out bytes.Buffer
	if err := c.runner.Run(ctx, pdf, &out); err != nil {
		return "", fmt.Errorf("converting with %s: %w", c.runner.Name(), err)
	}
	text := Clean(out.String())
	if text == "" {
		return "", fmt.Errorf("%s: %w", c.runner.Name(), ErrEmptyOutput)
	}
	return text, nil
}

// NewMarkitdown returns a converter backed by the markitdown image on the
// detected container runtime. It verifies the image exists locally.
func NewMarkitdown(ctx context.Context, rt container.Runtime) (*ToolConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return NewToolConverter(container.Image{Runtime: rt, Ref: imageMarkitdown}), nil
}

// NewPdftotext returns a converter backed by poppler's pdftotext reading
// stdin and writing stdout.
func NewPdftotext() (*ToolConverter, error) {
	h, err := container.NewHost("pdftotext", "-layout", "-enc", "UTF-8", "-", "-")
	if err != nil {
		return nil, err
	}
	return NewToolConverter(h), nil
}

// New builds the converter for backend.
func New(ctx context.Context, backend types.ConversionBackend) (Converter, error) {
	switch backend {
	case types.BackendPdftotext:
		return NewPdftotext()
	case types.BackendMarkitdown, "":
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewMarkitdown(ctx, rt)
	default:
		return nil, fmt.Errorf("%w: unknown conversion backend %q", types.ErrValidation, backend)
	}
}

var (
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	hyphenWrap = regexp.MustCompile(`(\p{Ll})-\n(\p{Ll})`)
)

// Clean normalizes converter output: form feeds become blank lines,
// trailing spaces go, words hyphenated across a line break are rejoined and
// runs of blank lines collapse to one.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = strings.Join(lines, "\n")
	s = hyphenWrap.ReplaceAllString(s, "$1$2")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
