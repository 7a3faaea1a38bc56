// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/learning-engine/internal/secrets"
	"github.com/pdiddy/learning-engine/pkg/types"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	Init(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("YOUTUBE_API_KEY", "")
	cfg, err := Load(newViper(t, ""), nil)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("LEARNING_ENGINE_CHUNK_SIZE", "500")
	t.Setenv("LEARNING_ENGINE_SOURCES_FETCH_TIMEOUT", "10s")
	t.Setenv("YOUTUBE_API_KEY", "yt-env")

	v := newViper(t, `
chunk:
  size: 800
  overlap: 100
index:
  collection: learning_assistant
  retrieval_k: 10
generation:
  provider: anthropic
  model: claude-sonnet-4-5
embedding:
  provider: ollama
`)
	cfg, err := Load(v, map[string]string{secrets.AnthropicAPIKey: "sk-ant"})
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunk.Size, "env beats file")
	assert.Equal(t, 100, cfg.Chunk.Overlap)
	assert.Equal(t, 10*time.Second, cfg.Sources.FetchTimeout)
	assert.Equal(t, "yt-env", cfg.Sources.YouTubeAPIKey)
	assert.Equal(t, "learning_assistant", cfg.Index.Collection)
	assert.Equal(t, 10, cfg.Index.RetrievalK)
	assert.Equal(t, types.GenerationAnthropic, cfg.Generation.Provider)
	assert.Equal(t, "sk-ant", cfg.Generation.APIKey)
	assert.Equal(t, types.EmbeddingOllama, cfg.Embedding.Provider)
}

func TestGroqKeyFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-env")
	cfg, err := Load(newViper(t, ""), map[string]string{secrets.GroqAPIKey: "gsk-file"})
	require.NoError(t, err)
	assert.Equal(t, "gsk-env", cfg.Generation.APIKey, "explicit env beats secrets file")
}

func TestApplySecrets(t *testing.T) {
	s := map[string]string{
		secrets.YouTubeAPIKey:         "yt",
		secrets.GroqAPIKey:            "gsk",
		secrets.OpenAIAPIKey:          "sk-oai",
		secrets.GeminiAPIKey:          "gm",
		secrets.SemanticScholarAPIKey: "s2",
		secrets.OpenAlexEmail:         "me@example.com",
	}

	cfg := types.DefaultPipelineConfig()
	ApplySecrets(&cfg, s)
	assert.Equal(t, "yt", cfg.Sources.YouTubeAPIKey)
	assert.Equal(t, "s2", cfg.Sources.SemanticScholarAPIKey)
	assert.Equal(t, "me@example.com", cfg.Sources.OpenAlexEmail)
	assert.Equal(t, "gsk", cfg.Generation.APIKey)
	assert.Empty(t, cfg.Embedding.APIKey)

	cfg = types.DefaultPipelineConfig()
	cfg.Generation.BaseURL = "https://api.openai.com/v1"
	cfg.Embedding.Provider = types.EmbeddingGenAI
	ApplySecrets(&cfg, s)
	assert.Equal(t, "sk-oai", cfg.Generation.APIKey)
	assert.Equal(t, "gm", cfg.Embedding.APIKey)

	cfg = types.DefaultPipelineConfig()
	cfg.Generation.APIKey = "explicit"
	ApplySecrets(&cfg, s)
	assert.Equal(t, "explicit", cfg.Generation.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*types.PipelineConfig)
		field  string
	}{
		{"defaults", func(*types.PipelineConfig) {}, ""},
		{"zero size", func(c *types.PipelineConfig) { c.Chunk.Size = 0 }, "chunk.size"},
		{"overlap equals size", func(c *types.PipelineConfig) { c.Chunk.Overlap = c.Chunk.Size }, "chunk.overlap"},
		{"negative overlap", func(c *types.PipelineConfig) { c.Chunk.Overlap = -1 }, "chunk.overlap"},
		{"zero k", func(c *types.PipelineConfig) { c.Index.RetrievalK = 0 }, "index.retrieval_k"},
		{"no data dir", func(c *types.PipelineConfig) { c.Index.DataDir = "" }, "index.data_dir"},
		{"zero limit", func(c *types.PipelineConfig) { c.Sources.Limit = 0 }, "sources.limit"},
		{"hot temperature", func(c *types.PipelineConfig) { c.Generation.Temperature = 3 }, "generation.temperature"},
		{"unknown generation", func(c *types.PipelineConfig) { c.Generation.Provider = "bard" }, "generation.provider"},
		{"unknown embedding", func(c *types.PipelineConfig) { c.Embedding.Provider = "word2vec" }, "embedding.provider"},
		{"hash without dims", func(c *types.PipelineConfig) { c.Embedding.Dimensions = 0 }, "embedding.dimensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultPipelineConfig()
			tt.modify(&cfg)
			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(newViper(t, "chunk:\n  size: 100\n  overlap: 100\n"), nil)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "chunk.overlap", ce.Field)
	assert.Contains(t, err.Error(), "must be less than chunk.size (100)")
}

func TestCheckCredentials(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	err := CheckCredentials(cfg)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "generation.api_key", ce.Field)
	assert.Contains(t, ce.Reason, "GROQ_API_KEY")

	cfg.Generation.APIKey = "gsk"
	assert.NoError(t, CheckCredentials(cfg))

	cfg.Embedding.Provider = types.EmbeddingOpenAI
	require.ErrorAs(t, CheckCredentials(cfg), &ce)
	assert.Equal(t, "embedding.api_key", ce.Field)

	cfg.Embedding.Provider = types.EmbeddingOllama
	assert.NoError(t, CheckCredentials(cfg))
}
