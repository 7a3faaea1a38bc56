// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns passage text into vectors for similarity search.
// Every Embedder is deterministic for a fixed model: the same text always
// yields the same vector.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// ErrAuthMissing is returned when a remote provider is selected without an API key.
var ErrAuthMissing = errors.New("embedding API key is not configured")

// Embedder converts text to vectors.
type Embedder interface {
	// Name identifies the provider and model, e.g. "openai:text-embedding-3-small".
	Name() string

	// Dimensions is the length of every returned vector.
	Dimensions() int

	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the Embedder selected by cfg.
func New(ctx context.Context, cfg types.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case types.EmbeddingHash, "":
		return NewHash(cfg.Dimensions), nil
	case types.EmbeddingOpenAI:
		return NewOpenAI(cfg)
	case types.EmbeddingOllama:
		return NewOllama(cfg), nil
	case types.EmbeddingGenAI:
		return NewGenAI(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is a zero vector or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// embedEach implements EmbedBatch for providers without a native batch call.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
