package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-hub/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// WorkspaceConfig holds settings for the workspace store.
type WorkspaceConfig struct {
	// DeleteConfirmWindow is how long a delete intent stays armed (default 2.5s).
	DeleteConfirmWindow time.Duration `json:"delete_confirm_window" yaml:"delete_confirm_window" mapstructure:"delete_confirm_window"`
}

// SearchConfig holds settings for the search backends.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of results to return (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	EnableArxiv           bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`
	EnablePubMed          bool `json:"enable_pubmed" yaml:"enable_pubmed" mapstructure:"enable_pubmed"`
	EnableIEEE            bool `json:"enable_ieee" yaml:"enable_ieee" mapstructure:"enable_ieee"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// IEEEAPIKey is required by the IEEE Xplore API; the backend is skipped without it.
	IEEEAPIKey string `json:"ieee_api_key,omitempty" yaml:"ieee_api_key,omitempty" mapstructure:"ieee_api_key"`

	// NCBIAPIKey raises the PubMed E-utilities rate limit from 3 to 10 req/s.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty" mapstructure:"ncbi_api_key"`

	// InterBackendDelay is the minimum spacing between calls to different backends (default 1s).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay" mapstructure:"inter_backend_delay"`

	// RecencyBiasWindow is the time window for boosting recent papers (default 2 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window" mapstructure:"recency_bias_window"`
}

// IngestConfig holds settings for the ingestion pipeline.
type IngestConfig struct {
	// SaveAckWindow is how long the "saved" acknowledgement stays visible (default 3s).
	SaveAckWindow time.Duration `json:"save_ack_window" yaml:"save_ack_window" mapstructure:"save_ack_window"`
}

// ContentMode selects the ContentService implementation.
type ContentMode string

const (
	ContentMock   ContentMode = "mock"
	ContentDirect ContentMode = "direct"
	ContentRemote ContentMode = "remote"
)

// ConversionBackend identifies the PDF-to-text tool.
type ConversionBackend string

const (
	BackendPdftotext  ConversionBackend = "pdftotext"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ContentConfig holds settings for the content service.
type ContentConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Mode selects mock, direct (public APIs + local tools) or remote (hub backend).
	Mode ContentMode `json:"mode" yaml:"mode" mapstructure:"mode"`

	// BaseURL is the hub backend address used in remote mode.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// RequestsPerSecond caps remote calls (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Converter selects the PDF-to-text backend in direct mode.
	Converter ConversionBackend `json:"converter" yaml:"converter" mapstructure:"converter"`

	// ExtractDelay and SummaryDelay are the simulated latencies in mock mode.
	ExtractDelay time.Duration `json:"extract_delay" yaml:"extract_delay" mapstructure:"extract_delay"`
	SummaryDelay time.Duration `json:"summary_delay" yaml:"summary_delay" mapstructure:"summary_delay"`
}

// AcquireConfig holds settings for fetching PDFs of search results.
type AcquireConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Mailto is sent to OpenAlex to join its polite pool.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// MaxBytes caps the size of a downloaded PDF (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`
}

// AIConfig holds settings for the summarization model.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxSections caps how many sections are digested per document (default 12).
	MaxSections int `json:"max_sections" yaml:"max_sections" mapstructure:"max_sections"`
}

// LibraryConfig holds settings for the saved-document library.
type LibraryConfig struct {
	// Dir is the base directory for the library (contains index/).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// HubConfig groups all component configurations.
type HubConfig struct {
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace" mapstructure:"workspace"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Content   ContentConfig   `json:"content" yaml:"content" mapstructure:"content"`
	Acquire   AcquireConfig   `json:"acquire" yaml:"acquire" mapstructure:"acquire"`
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Library   LibraryConfig   `json:"library" yaml:"library" mapstructure:"library"`
}

// Defaults applied when a setting is zero.
const (
	DefaultDeleteConfirmWindow = 2500 * time.Millisecond
	DefaultSaveAckWindow       = 3 * time.Second
	DefaultExtractDelay        = 800 * time.Millisecond
	DefaultSummaryDelay        = 2200 * time.Millisecond
	DefaultUserAgent           = "research-hub/0.1"
	DefaultMaxPDFBytes         = 50 << 20
)

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() HubConfig {
	httpCfg := HTTPConfig{Timeout: 60 * time.Second, UserAgent: DefaultUserAgent}
	return HubConfig{
		Workspace: WorkspaceConfig{DeleteConfirmWindow: DefaultDeleteConfirmWindow},
		Search: SearchConfig{
			HTTPConfig:            httpCfg,
			MaxResults:            20,
			EnableArxiv:           true,
			EnableSemanticScholar: true,
			EnablePubMed:          true,
			EnableIEEE:            true,
			InterBackendDelay:     time.Second,
			RecencyBiasWindow:     2 * 365 * 24 * time.Hour,
		},
		Ingest: IngestConfig{SaveAckWindow: DefaultSaveAckWindow},
		Content: ContentConfig{
			HTTPConfig:        httpCfg,
			Mode:              ContentMock,
			BaseURL:           "http://localhost:8000",
			RequestsPerSecond: 5,
			Converter:         BackendMarkitdown,
			ExtractDelay:      DefaultExtractDelay,
			SummaryDelay:      DefaultSummaryDelay,
		},
		Acquire: AcquireConfig{HTTPConfig: httpCfg, MaxBytes: DefaultMaxPDFBytes},
		AI:      AIConfig{Model: "claude-sonnet-4-5-20250929", MaxRetries: 3, MaxSections: 12},
		Library: LibraryConfig{Dir: "library", MaxResults: 20},
	}
}
