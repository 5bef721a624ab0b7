// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire resolves paper identifiers (arXiv IDs, DOIs, PubMed IDs,
// URLs) and fetches their PDFs into memory so a search result can be fed
// to the ingestion pipeline.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/research-hub/internal/httputil"
	"github.com/pdiddy/research-hub/pkg/types"
)

// ErrNoPDFSource is returned when an identifier has no downloadable
// location.
var ErrNoPDFSource = errors.New("no PDF source")

// ErrTooLarge is returned when a download exceeds the configured cap.
var ErrTooLarge = errors.New("download exceeds size limit")

// Fetcher downloads PDFs.
type Fetcher struct {
	client *http.Client
	cfg    types.AcquireConfig
	log    io.Writer
}

// NewFetcher returns a Fetcher. A nil client gets one with cfg.Timeout.
func NewFetcher(client *http.Client, cfg types.AcquireConfig, log io.Writer) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = types.DefaultMaxPDFBytes
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = io.Discard
	}
	return &Fetcher{client: client, cfg: cfg, log: log}
}

// Fetch resolves identifier and downloads its PDF. The returned file's
// MIME type is sniffed from the payload, so a landing page served in
// place of a PDF comes back as text/html and is refused downstream.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (types.File, error) {
	idType, normalized := Classify(identifier)
	switch idType {
	case TypeUnknown:
		return types.File{}, fmt.Errorf("%w: unrecognized identifier format: %q", types.ErrValidation, identifier)
	case TypePMID:
		return types.File{}, fmt.Errorf("%w for PubMed record %s without a DOI", ErrNoPDFSource, normalized)
	}

	pdfURL := PDFURL(idType, normalized)
	if idType == TypeDOI {
		oaURL, err := resolveOpenAlex(ctx, f.client, normalized, f.cfg.Mailto, f.cfg.UserAgent)
		switch {
		case err != nil:
			fmt.Fprintf(f.log, "warning: OpenAlex lookup for %s failed: %v\n", normalized, err)
		case oaURL != "":
			pdfURL = oaURL
		}
	}

	fmt.Fprintf(f.log, "downloading: %s (%s)\n", normalized, idType)
	data, contentType, err := f.download(ctx, pdfURL)
	if err != nil {
		return types.File{}, fmt.Errorf("downloading %s: %w", normalized, err)
	}

	return types.File{
		Name:     Slug(idType, normalized) + ".pdf",
		MIMEType: sniff(data, contentType),
		Data:     data,
	}, nil
}

// FetchResult downloads the PDF for a search result, trying the preferred
// acquisition ID before the source identifier.
func (f *Fetcher) FetchResult(ctx context.Context, r types.PaperResult) (types.File, error) {
	var errs []error
	for _, id := range []string{r.PreferredAcquisitionID, r.Identifier} {
		if id == "" {
			continue
		}
		file, err := f.Fetch(ctx, id)
		if err == nil {
			return file, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return types.File{}, fmt.Errorf("%w: %q has no identifier", ErrNoPDFSource, r.Title)
	}
	return types.File{}, errors.Join(errs...)
}

// download fetches url into memory, requesting a PDF. The HTTP client
// follows redirects.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 2)
	if err != nil {
		return nil, "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading body: %w", err)
	}
	if n > f.cfg.MaxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.cfg.MaxBytes)
	}
	return buf.Bytes(), resp.Header.Get("Content-Type"), nil
}

// sniff returns application/pdf for payloads with the PDF signature and
// otherwise the server's declared type, falling back to content detection.
func sniff(data []byte, declared string) string {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return types.MIMEPDF
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != types.MIMEPDF {
		return mt
	}
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return mt
}
