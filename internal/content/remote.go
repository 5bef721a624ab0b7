// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-hub/internal/auth"
	"github.com/pdiddy/research-hub/internal/httputil"
	"github.com/pdiddy/research-hub/pkg/types"
)

// Remote calls the research-hub backend. Every request carries the session
// credential; a 401 logs the session out.
type Remote struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	session   *auth.Session
	log       io.Writer
}

// NewRemote returns a Remote for cfg.BaseURL.
func NewRemote(cfg types.ContentConfig, session *auth.Session, log io.Writer) *Remote {
	if log == nil {
		log = io.Discard
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Remote{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
		session:   session,
		log:       log,
	}
}

// remotePaper is the backend's paper shape. Older backends send only title
// and abstract.
type remotePaper struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Authors   []string        `json:"authors"`
	Abstract  string          `json:"abstract"`
	Year      int             `json:"year"`
	Date      string          `json:"date"`
	Source    string          `json:"source"`
	Tags      []string        `json:"tags"`
	Citations types.Citations `json:"citations"`
	PDFURL    string          `json:"pdf_url"`
}

func (p remotePaper) result() types.PaperResult {
	r := types.PaperResult{
		Identifier:             p.ID,
		Title:                  strings.TrimSpace(p.Title),
		Authors:                p.Authors,
		Abstract:               strings.TrimSpace(p.Abstract),
		Source:                 p.Source,
		Tags:                   p.Tags,
		Citations:              p.Citations,
		PreferredAcquisitionID: p.PDFURL,
	}
	if t, err := time.Parse("2006-01-02", p.Date); err == nil {
		r.Date = t
	} else if p.Year > 0 {
		r.Date = time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if r.PreferredAcquisitionID == "" {
		r.PreferredAcquisitionID = p.ID
	}
	return r
}

// Search calls GET /search?query=&source=.
func (r *Remote) Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error) {
	params := url.Values{"query": {query}}
	if filter != "" && filter != types.SourceAll {
		params.Set("source", string(filter))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var body struct {
		Papers []remotePaper `json:"papers"`
	}
	if err := r.do(ctx, req, &body); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]types.PaperResult, 0, len(body.Papers))
	for _, p := range body.Papers {
		out = append(out, p.result())
	}
	return out, nil
}

// ExtractText calls POST /extract with the raw PDF as the body.
func (r *Remote) ExtractText(ctx context.Context, file types.File) (string, error) {
	u := r.baseURL + "/extract?" + url.Values{"filename": {file.Name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(file.Data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", types.MIMEPDF)

	var body struct {
		Text string `json:"text"`
	}
	if err := r.do(ctx, req, &body); err != nil {
		return "", fmt.Errorf("extract %s: %w", file.Name, err)
	}
	return body.Text, nil
}

// Summarize calls POST /summarize with {"text": ...}.
func (r *Remote) Summarize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/summarize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body struct {
		Summary string `json:"summary"`
	}
	if err := r.do(ctx, req, &body); err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return body.Summary, nil
}

// Ask calls POST /chat with {"question": ...}.
func (r *Remote) Ask(ctx context.Context, question string) (string, error) {
	question, err := trimQuestion(question)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body struct {
		Response string `json:"response"`
	}
	if err := r.do(ctx, req, &body); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return body.Response, nil
}

// do sends req through the rate limiter and the retry helper and decodes a
// 200 JSON body into v.
func (r *Remote) do(ctx context.Context, req *http.Request, v any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	r.session.Authorize(req)

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if err := r.session.Observe(resp); err != nil {
		return fmt.Errorf("%w: %w", types.ErrCollaborator, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", types.ErrCollaborator, statusDetail(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: parsing response: %w", types.ErrCollaborator, err)
	}
	return nil
}

// statusDetail reads the FastAPI-style {"detail": "..."} error body.
func statusDetail(resp *http.Response) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, s)
		}
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, body.Detail)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}

// IsUnauthenticated reports whether err came from a rejected credential.
func IsUnauthenticated(err error) bool { return errors.Is(err, auth.ErrUnauthenticated) }
