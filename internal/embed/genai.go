// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/pdiddy/learning-engine/pkg/types"
)

const (
	defaultGenAIModel      = "gemini-embedding-001"
	defaultGenAIDimensions = 768
	genAITaskType          = "SEMANTIC_SIMILARITY"
)

// GenAI embeds text with the Gemini API.
type GenAI struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewGenAI returns a Gemini embedder. An empty API key is ErrAuthMissing.
func NewGenAI(ctx context.Context, cfg types.EmbeddingConfig) (*GenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrAuthMissing
	}
	if cfg.Model == "" {
		cfg.Model = defaultGenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRemoteTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAI{client: client, model: cfg.Model, dimensions: defaultGenAIDimensions}, nil
}

func (g *GenAI) Name() string    { return "genai:" + g.model }
func (g *GenAI) Dimensions() int { return int(g.dimensions) }

func (g *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (g *GenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	dims := g.dimensions
	result, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType:             genAITaskType,
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range result.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
