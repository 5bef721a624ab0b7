// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/research-hub/internal/httputil"
)

// digestPromptTmpl is sent to the Claude API once per section.
var digestPromptTmpl = template.Must(template.New("digest").Parse(`You are a research assistant summarizing one section of an academic paper for a reader deciding whether to read it in full.

Return a JSON object with these fields:
- summary: two or three sentences stating what the section covers
- key_findings: an array of short, self-contained findings stated in the section (empty if none)
- methodology: one sentence on the method, data or study design described (empty string if none)
- conclusion: one sentence on the conclusion the section draws (empty string if none)

Use only information present in the section. Do not include any text outside the JSON object.

Example response:
{"summary": "The section introduces LLM-based agents for scheduling.", "key_findings": ["Agents cut makespan by 12% on benchmark shops"], "methodology": "Simulation over 40 job-shop instances.", "conclusion": ""}

Paper section:
{{.Section}}
`))

// answerPromptTmpl frames a free-form question from the research assistant.
var answerPromptTmpl = template.Must(template.New("answer").Parse(`You are a research assistant helping a reader survey academic literature.

Answer the question below in a few short paragraphs of plain prose. Name specific papers, methods or authors when you are confident they exist, and say so plainly when you are unsure. Do not use markdown headings.

Question:
{{.Question}}
`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API to digest a section.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Digest calls the Claude API with the digest prompt for one section.
func (c *ClaudeBackend) Digest(ctx context.Context, section string) (Digest, error) {
	prompt, err := renderPrompt(digestPromptTmpl, struct{ Section string }{Section: section})
	if err != nil {
		return Digest{}, fmt.Errorf("rendering prompt: %w", err)
	}
	text, err := c.complete(ctx, prompt, 1024)
	if err != nil {
		return Digest{}, err
	}
	var d Digest
	if err := json.Unmarshal([]byte(jsonObject(text)), &d); err != nil {
		return Digest{}, fmt.Errorf("parsing AI response JSON: %w", err)
	}
	return d, nil
}

// Answer asks Claude a free-form research question and returns the reply
// as plain prose.
func (c *ClaudeBackend) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	prompt, err := renderPrompt(answerPromptTmpl, struct{ Question string }{Question: question})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	text, err := c.complete(ctx, prompt, 2048)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// complete sends one user message and returns the first text block of the
// reply.
func (c *ClaudeBackend) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// jsonObject trims anything around the outermost {...}, such as a
// markdown code fence.
func jsonObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// renderPrompt executes a prompt template with data.
func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
