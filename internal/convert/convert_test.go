// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/research-hub/pkg/types"
)

// fakeRunner implements container.Runner, echoing canned output or an error.
type fakeRunner struct {
	output string
	err    error
	got    string
}

func (f *fakeRunner) Name() string { return "fake" }

func (f *fakeRunner) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	data, _ := io.ReadAll(stdin)
	f.got = string(data)
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(stdout, f.output)
	return err
}

// fakeRuntime implements container.Runtime.
type fakeRuntime struct {
	hasImage bool
	runner   fakeRunner
}

func (f *fakeRuntime) Name() string { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool { return true }
func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	if !f.hasImage {
		return errors.New("no such image " + image)
	}
	return nil
}
func (f *fakeRuntime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	return f.runner.Run(ctx, stdin, stdout)
}

func TestToolConverter(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		want    string
		wantErr error
	}{
		{
			name:   "cleans output",
			runner: &fakeRunner{output: "# Title  \r\n\n\n\nContent here.\f"},
			want:   "# Title\n\nContent here.",
		},
		{
			name:    "empty output is an error",
			runner:  &fakeRunner{output: " \n\f\n"},
			wantErr: ErrEmptyOutput,
		},
		{
			name:   "tool failure",
			runner: &fakeRunner{err: errors.New("container crashed")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewToolConverter(tt.runner)
			got, err := c.Convert(context.Background(), strings.NewReader("%PDF"))
			if tt.runner.got != "%PDF" {
				t.Errorf("runner stdin = %q", tt.runner.got)
			}
			if tt.want == "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewMarkitdown(t *testing.T) {
	if _, err := NewMarkitdown(context.Background(), &fakeRuntime{}); err == nil {
		t.Fatal("expected error when image is missing")
	}

	rt := &fakeRuntime{hasImage: true, runner: fakeRunner{output: "converted"}}
	c, err := NewMarkitdown(context.Background(), rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := c.Convert(context.Background(), strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "converted" {
		t.Errorf("got %q", got)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), types.ConversionBackend("grobid"))
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"trailing space", "a  \nb\t", "a\nb"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"form feed", "page one\fpage two", "page one\n\npage two"},
		{"hyphen rejoin", "autono-\nmous agents", "autonomous agents"},
		{"keeps real hyphens", "LLM-\nBased", "LLM-\nBased"},
		{"crlf", "a\r\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
