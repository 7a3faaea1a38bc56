package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "learning-engine/0.1"). Wikipedia and arXiv reject anonymous clients.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for components that call a hosted model API.
type AIConfig struct {
	// Model is the model identifier (e.g. "llama-3.3-70b-versatile").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for retryable failures (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SourcesConfig holds settings for the source connectors.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// Limit is the maximum number of documents requested from each connector (default 5).
	Limit int `json:"limit" yaml:"limit"`

	// FetchTimeout bounds one connector's whole Fetch call (default 45s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`

	EnableWikipedia       bool `json:"enable_wikipedia" yaml:"enable_wikipedia"`
	EnableArxiv           bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`
	EnableOpenAlex        bool `json:"enable_openalex" yaml:"enable_openalex"`
	EnableYouTube         bool `json:"enable_youtube" yaml:"enable_youtube"`
	EnableWeb             bool `json:"enable_web" yaml:"enable_web"`

	// YouTubeAPIKey authenticates video search. Without it the video
	// connector reports AuthMissing and makes no request.
	YouTubeAPIKey string `json:"youtube_api_key,omitempty" yaml:"youtube_api_key,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail joins the OpenAlex polite pool when set.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// TranscriptConcurrency bounds parallel transcript fetches (default 3).
	TranscriptConcurrency int `json:"transcript_concurrency" yaml:"transcript_concurrency"`

	// TranscriptRate is the sustained transcript requests per second (default 2).
	TranscriptRate float64 `json:"transcript_rate" yaml:"transcript_rate"`
}

// ChunkConfig holds the sliding window parameters.
type ChunkConfig struct {
	// Size is the window length in characters (default 1000).
	Size int `json:"size" yaml:"size"`

	// Overlap is the number of characters shared by consecutive chunks (default 200).
	Overlap int `json:"overlap" yaml:"overlap"`
}

// EmbeddingProvider identifies the embedding backend.
type EmbeddingProvider string

const (
	EmbeddingHash   EmbeddingProvider = "hash"
	EmbeddingOpenAI EmbeddingProvider = "openai"
	EmbeddingOllama EmbeddingProvider = "ollama"
	EmbeddingGenAI  EmbeddingProvider = "genai"
)

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider EmbeddingProvider `json:"provider" yaml:"provider"`

	// Model is the embedding model id; ignored by the hash provider.
	Model string `json:"model" yaml:"model"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Dimensions is the vector length for the hash provider (default 512).
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Remote reports whether the provider needs network access.
func (c EmbeddingConfig) Remote() bool {
	return c.Provider != "" && c.Provider != EmbeddingHash
}

// IndexConfig holds settings for the vector store and retrieval.
type IndexConfig struct {
	// DataDir holds the SQLite database file (default ./data/index).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Collection names a collection reused across runs. Empty means a
	// fresh collection per run.
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`

	// Ephemeral drops the run's collection once the report is produced.
	Ephemeral bool `json:"ephemeral" yaml:"ephemeral"`

	// RetrievalK is the number of passages retrieved per query (default 30).
	RetrievalK int `json:"retrieval_k" yaml:"retrieval_k"`

	// ContextBudget caps the assembled context in characters (default 24000).
	ContextBudget int `json:"context_budget" yaml:"context_budget"`
}

// GenerationProvider identifies the completion backend.
type GenerationProvider string

const (
	GenerationOpenAI    GenerationProvider = "openai"
	GenerationAnthropic GenerationProvider = "anthropic"
)

// GenerationConfig holds settings for the report generation call.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// Provider selects the wire protocol. "openai" speaks chat completions
	// and works against Groq, OpenAI and compatible gateways.
	Provider GenerationProvider `json:"provider" yaml:"provider"`

	// BaseURL is the API root (default https://api.groq.com/openai/v1).
	BaseURL string `json:"base_url" yaml:"base_url"`

	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the completion length; 0 leaves it to the provider
	// except for Anthropic, which requires a value.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout bounds a single generation request (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development" yaml:"development"`
}

// PipelineConfig is the complete configuration handed to the orchestrator.
type PipelineConfig struct {
	Sources    SourcesConfig    `json:"sources" yaml:"sources"`
	Chunk      ChunkConfig      `json:"chunk" yaml:"chunk"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Index      IndexConfig      `json:"index" yaml:"index"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// DefaultPipelineConfig returns the configuration used when nothing is overridden.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Sources: SourcesConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "learning-engine/0.1",
			},
			Limit:                 5,
			FetchTimeout:          45 * time.Second,
			EnableWikipedia:       true,
			EnableArxiv:           true,
			EnableYouTube:         true,
			EnableWeb:             true,
			TranscriptConcurrency: 3,
			TranscriptRate:        2,
		},
		Chunk: ChunkConfig{Size: 1000, Overlap: 200},
		Embedding: EmbeddingConfig{
			Provider:   EmbeddingHash,
			Dimensions: 512,
			Timeout:    30 * time.Second,
		},
		Index: IndexConfig{
			DataDir:       "data/index",
			RetrievalK:    30,
			ContextBudget: 24000,
		},
		Generation: GenerationConfig{
			AIConfig: AIConfig{
				Model:      "llama-3.3-70b-versatile",
				MaxRetries: 2,
			},
			Provider:    GenerationOpenAI,
			BaseURL:     "https://api.groq.com/openai/v1",
			Temperature: 0.3,
			Timeout:     120 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
