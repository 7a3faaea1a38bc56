// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns layered viper settings and the secrets directory
// into a validated types.PipelineConfig.
//
// Precedence, highest first: explicit flags bound by the caller, env vars
// (LEARNING_ENGINE_ prefix, dots replaced by underscores), the config file,
// then defaults. Credentials left empty after that are filled from the
// secrets map.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/learning-engine/internal/secrets"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEARNING_ENGINE"

// ConfigError reports invalid or missing configuration. It is raised before
// any network call is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Init registers defaults and environment bindings on v. The video and
// generation keys also honour the bare YOUTUBE_API_KEY and GROQ_API_KEY
// variables.
func Init(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("sources.youtube_api_key", EnvPrefix+"_SOURCES_YOUTUBE_API_KEY", "YOUTUBE_API_KEY")
	_ = v.BindEnv("generation.api_key", EnvPrefix+"_GENERATION_API_KEY", "GROQ_API_KEY")
}

// SetDefaults registers every key with its default value. Registering all
// keys also lets AutomaticEnv see them.
func SetDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("sources.timeout", d.Sources.Timeout)
	v.SetDefault("sources.user_agent", d.Sources.UserAgent)
	v.SetDefault("sources.limit", d.Sources.Limit)
	v.SetDefault("sources.fetch_timeout", d.Sources.FetchTimeout)
	v.SetDefault("sources.enable_wikipedia", d.Sources.EnableWikipedia)
	v.SetDefault("sources.enable_arxiv", d.Sources.EnableArxiv)
	v.SetDefault("sources.enable_semantic_scholar", d.Sources.EnableSemanticScholar)
	v.SetDefault("sources.enable_openalex", d.Sources.EnableOpenAlex)
	v.SetDefault("sources.enable_youtube", d.Sources.EnableYouTube)
	v.SetDefault("sources.enable_web", d.Sources.EnableWeb)
	v.SetDefault("sources.youtube_api_key", "")
	v.SetDefault("sources.semantic_scholar_api_key", "")
	v.SetDefault("sources.openalex_email", "")
	v.SetDefault("sources.transcript_concurrency", d.Sources.TranscriptConcurrency)
	v.SetDefault("sources.transcript_rate", d.Sources.TranscriptRate)

	v.SetDefault("chunk.size", d.Chunk.Size)
	v.SetDefault("chunk.overlap", d.Chunk.Overlap)

	v.SetDefault("embedding.provider", string(d.Embedding.Provider))
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)

	v.SetDefault("index.data_dir", d.Index.DataDir)
	v.SetDefault("index.collection", "")
	v.SetDefault("index.ephemeral", d.Index.Ephemeral)
	v.SetDefault("index.retrieval_k", d.Index.RetrievalK)
	v.SetDefault("index.context_budget", d.Index.ContextBudget)

	v.SetDefault("generation.provider", string(d.Generation.Provider))
	v.SetDefault("generation.model", d.Generation.Model)
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", d.Generation.BaseURL)
	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.max_retries", d.Generation.MaxRetries)
	v.SetDefault("generation.timeout", d.Generation.Timeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
}

// Load materialises v into a PipelineConfig, fills empty credentials from
// the secrets map and validates the result.
func Load(v *viper.Viper, secretValues map[string]string) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig

	cfg.Sources = types.SourcesConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   v.GetDuration("sources.timeout"),
			UserAgent: v.GetString("sources.user_agent"),
		},
		Limit:                 v.GetInt("sources.limit"),
		FetchTimeout:          v.GetDuration("sources.fetch_timeout"),
		EnableWikipedia:       v.GetBool("sources.enable_wikipedia"),
		EnableArxiv:           v.GetBool("sources.enable_arxiv"),
		EnableSemanticScholar: v.GetBool("sources.enable_semantic_scholar"),
		EnableOpenAlex:        v.GetBool("sources.enable_openalex"),
		EnableYouTube:         v.GetBool("sources.enable_youtube"),
		EnableWeb:             v.GetBool("sources.enable_web"),
		YouTubeAPIKey:         v.GetString("sources.youtube_api_key"),
		SemanticScholarAPIKey: v.GetString("sources.semantic_scholar_api_key"),
		OpenAlexEmail:         v.GetString("sources.openalex_email"),
		TranscriptConcurrency: v.GetInt("sources.transcript_concurrency"),
		TranscriptRate:        v.GetFloat64("sources.transcript_rate"),
	}

	cfg.Chunk = types.ChunkConfig{
		Size:    v.GetInt("chunk.size"),
		Overlap: v.GetInt("chunk.overlap"),
	}

	cfg.Embedding = types.EmbeddingConfig{
		Provider:   types.EmbeddingProvider(strings.ToLower(v.GetString("embedding.provider"))),
		Model:      v.GetString("embedding.model"),
		APIKey:     v.GetString("embedding.api_key"),
		BaseURL:    v.GetString("embedding.base_url"),
		Dimensions: v.GetInt("embedding.dimensions"),
		Timeout:    v.GetDuration("embedding.timeout"),
	}

	cfg.Index = types.IndexConfig{
		DataDir:       v.GetString("index.data_dir"),
		Collection:    v.GetString("index.collection"),
		Ephemeral:     v.GetBool("index.ephemeral"),
		RetrievalK:    v.GetInt("index.retrieval_k"),
		ContextBudget: v.GetInt("index.context_budget"),
	}

	cfg.Generation = types.GenerationConfig{
		AIConfig: types.AIConfig{
			Model:      v.GetString("generation.model"),
			APIKey:     v.GetString("generation.api_key"),
			MaxRetries: v.GetInt("generation.max_retries"),
		},
		Provider:    types.GenerationProvider(strings.ToLower(v.GetString("generation.provider"))),
		BaseURL:     v.GetString("generation.base_url"),
		Temperature: v.GetFloat64("generation.temperature"),
		MaxTokens:   v.GetInt("generation.max_tokens"),
		Timeout:     v.GetDuration("generation.timeout"),
	}

	cfg.Logging = types.LoggingConfig{
		Level:       v.GetString("logging.level"),
		Development: v.GetBool("logging.development"),
	}

	ApplySecrets(&cfg, secretValues)

	if err := Validate(cfg); err != nil {
		return types.PipelineConfig{}, err
	}
	return cfg, nil
}

// ApplySecrets fills credentials that are still empty from the secrets map.
// The generation key is chosen by provider; an OpenAI-protocol endpoint on
// Groq uses the Groq key first.
func ApplySecrets(cfg *types.PipelineConfig, s map[string]string) {
	fill := func(dst *string, keys ...string) {
		if *dst == "" {
			*dst = secrets.First(s, keys...)
		}
	}

	fill(&cfg.Sources.YouTubeAPIKey, secrets.YouTubeAPIKey)
	fill(&cfg.Sources.SemanticScholarAPIKey, secrets.SemanticScholarAPIKey)
	fill(&cfg.Sources.OpenAlexEmail, secrets.OpenAlexEmail)

	switch cfg.Generation.Provider {
	case types.GenerationAnthropic:
		fill(&cfg.Generation.APIKey, secrets.AnthropicAPIKey)
	default:
		if cfg.Generation.BaseURL == "" || strings.Contains(cfg.Generation.BaseURL, "groq.com") {
			fill(&cfg.Generation.APIKey, secrets.GroqAPIKey, secrets.OpenAIAPIKey)
		} else {
			fill(&cfg.Generation.APIKey, secrets.OpenAIAPIKey, secrets.GroqAPIKey)
		}
	}

	switch cfg.Embedding.Provider {
	case types.EmbeddingOpenAI:
		fill(&cfg.Embedding.APIKey, secrets.OpenAIAPIKey)
	case types.EmbeddingGenAI:
		fill(&cfg.Embedding.APIKey, secrets.GeminiAPIKey)
	}
}

// Validate checks structural settings. Credentials are checked separately
// by CheckCredentials because commands such as index list need none.
func Validate(cfg types.PipelineConfig) error {
	switch {
	case cfg.Chunk.Size <= 0:
		return &ConfigError{Field: "chunk.size", Reason: "must be positive"}
	case cfg.Chunk.Overlap < 0:
		return &ConfigError{Field: "chunk.overlap", Reason: "must not be negative"}
	case cfg.Chunk.Overlap >= cfg.Chunk.Size:
		return &ConfigError{Field: "chunk.overlap", Reason: fmt.Sprintf("must be less than chunk.size (%d)", cfg.Chunk.Size)}
	case cfg.Index.RetrievalK <= 0:
		return &ConfigError{Field: "index.retrieval_k", Reason: "must be positive"}
	case cfg.Index.ContextBudget < 0:
		return &ConfigError{Field: "index.context_budget", Reason: "must not be negative"}
	case cfg.Index.DataDir == "":
		return &ConfigError{Field: "index.data_dir", Reason: "is required"}
	case cfg.Sources.Limit <= 0:
		return &ConfigError{Field: "sources.limit", Reason: "must be positive"}
	case cfg.Generation.Model == "":
		return &ConfigError{Field: "generation.model", Reason: "is required"}
	case cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2:
		return &ConfigError{Field: "generation.temperature", Reason: "must be between 0 and 2"}
	case cfg.Generation.MaxRetries < 0:
		return &ConfigError{Field: "generation.max_retries", Reason: "must not be negative"}
	}

	switch cfg.Generation.Provider {
	case types.GenerationOpenAI, types.GenerationAnthropic:
	default:
		return &ConfigError{Field: "generation.provider", Reason: fmt.Sprintf("unknown provider %q: use openai or anthropic", cfg.Generation.Provider)}
	}

	switch cfg.Embedding.Provider {
	case types.EmbeddingHash, types.EmbeddingOpenAI, types.EmbeddingOllama, types.EmbeddingGenAI:
	default:
		return &ConfigError{Field: "embedding.provider", Reason: fmt.Sprintf("unknown provider %q: use hash, openai, ollama or genai", cfg.Embedding.Provider)}
	}
	if cfg.Embedding.Provider == types.EmbeddingHash && cfg.Embedding.Dimensions <= 0 {
		return &ConfigError{Field: "embedding.dimensions", Reason: "must be positive"}
	}
	return nil
}

// CheckCredentials reports the first credential a report run needs but
// does not have. Source keys are not required here: a source without its
// key is skipped with a warning.
func CheckCredentials(cfg types.PipelineConfig) error {
	if cfg.Generation.APIKey == "" {
		key := secrets.GroqAPIKey
		if cfg.Generation.Provider == types.GenerationAnthropic {
			key = secrets.AnthropicAPIKey
		}
		return &ConfigError{
			Field:  "generation.api_key",
			Reason: fmt.Sprintf("missing; set GROQ_API_KEY, %s_GENERATION_API_KEY or .secrets/%s", EnvPrefix, key),
		}
	}
	return CheckEmbeddingCredentials(cfg.Embedding)
}

// CheckEmbeddingCredentials reports a missing key for remote embedding
// providers that require one.
func CheckEmbeddingCredentials(cfg types.EmbeddingConfig) error {
	if cfg.APIKey != "" {
		return nil
	}
	switch cfg.Provider {
	case types.EmbeddingOpenAI:
		return &ConfigError{Field: "embedding.api_key", Reason: "missing; set .secrets/" + secrets.OpenAIAPIKey}
	case types.EmbeddingGenAI:
		return &ConfigError{Field: "embedding.api_key", Reason: "missing; set .secrets/" + secrets.GeminiAPIKey}
	}
	return nil
}
