// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func TestHash_Deterministic(t *testing.T) {
	h := NewHash(256)
	a, err := h.Embed(context.Background(), "Dijkstra computes shortest paths in weighted graphs")
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), "Dijkstra computes shortest paths in weighted graphs")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 256)
	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-6)
}

func TestHash_RelatedTextScoresHigher(t *testing.T) {
	h := NewHash(0)
	ctx := context.Background()
	q, _ := h.Embed(ctx, "shortest paths in graph theory")
	related, _ := h.Embed(ctx, "Graph theory studies shortest paths between vertices of a graph.")
	unrelated, _ := h.Embed(ctx, "Photosynthesis converts sunlight into chemical energy in plants.")
	assert.Greater(t, CosineSimilarity(q, related), CosineSimilarity(q, unrelated))
}

func TestHash_NoWords(t *testing.T) {
	v, err := NewHash(16).Embed(context.Background(), " ... !! ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, types.EmbeddingConfig{})
	require.NoError(t, err)
	assert.Equal(t, "hash", e.Name())

	_, err = New(ctx, types.EmbeddingConfig{Provider: types.EmbeddingOpenAI})
	assert.ErrorIs(t, err, ErrAuthMissing)

	_, err = New(ctx, types.EmbeddingConfig{Provider: types.EmbeddingGenAI})
	assert.ErrorIs(t, err, ErrAuthMissing)

	e, err = New(ctx, types.EmbeddingConfig{Provider: types.EmbeddingOllama})
	require.NoError(t, err)
	assert.Equal(t, "ollama:nomic-embed-text", e.Name())

	_, err = New(ctx, types.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}

func TestOpenAI_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)

		// Out of order on purpose: the client must place vectors by index.
		w.Write([]byte(`{"data":[{"embedding":[0,1],"index":1},{"embedding":[1,0],"index":0}]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(types.EmbeddingConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	vs, err := o.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vs)
}

func TestOpenAI_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(types.EmbeddingConfig{APIKey: "sk-bad", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = o.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAuthMissing)
}

func TestOllama_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		w.Write([]byte(`{"embedding":[0.5,0.25,0.125]}`))
	}))
	defer srv.Close()

	o := NewOllama(types.EmbeddingConfig{BaseURL: srv.URL})
	vs, err := o.EmbedBatch(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, []float32{0.5, 0.25, 0.125}, vs[1])
}

func TestOllama_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllama(types.EmbeddingConfig{BaseURL: srv.URL}).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "404")
}

func TestNewGenAI_MissingKey(t *testing.T) {
	_, err := NewGenAI(context.Background(), types.EmbeddingConfig{Provider: types.EmbeddingGenAI})
	assert.ErrorIs(t, err, ErrAuthMissing)
}

func TestGenAI_EmbedBatch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    [][]float32
		wantErr string
	}{
		{
			name: "one vector per text",
			body: `{"embeddings":[{"values":[1,0]},{"values":[0,1]}]}`,
			want: [][]float32{{1, 0}, {0, 1}},
		},
		{
			name:    "count mismatch",
			body:    `{"embeddings":[{"values":[1,0]}]}`,
			wantErr: "genai returned 1 embeddings for 2 texts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-embedding-001:batchEmbedContents"), r.URL.Path)
				assert.Equal(t, "gm-test", r.Header.Get("x-goog-api-key"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, err := NewGenAI(context.Background(), types.EmbeddingConfig{APIKey: "gm-test", BaseURL: srv.URL})
			require.NoError(t, err)
			assert.Equal(t, "genai:gemini-embedding-001", g.Name())
			assert.Equal(t, 768, g.Dimensions())

			vs, err := g.EmbedBatch(context.Background(), []string{"a", "b"})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, vs)
		})
	}
}
