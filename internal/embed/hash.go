// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimensions is the vector length used when none is configured.
const DefaultHashDimensions = 512

// Hash is a local feature-hashing embedder. Unigrams and adjacent-word
// bigrams are hashed into a fixed number of signed buckets and the result is
// L2-normalised. It needs no network and no model download, so it is the
// default provider.
type Hash struct {
	dims int
}

// NewHash returns a Hash embedder with dims buckets.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &Hash{dims: dims}
}

func (h *Hash) Name() string    { return "hash" }
func (h *Hash) Dimensions() int { return h.dims }

// Embed returns the normalised feature vector of text. Text without any
// word characters maps to the zero vector.
func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, h.dims)
	words := tokenize(text)
	for i, w := range words {
		h.add(vec, w, 1)
		if i > 0 {
			h.add(vec, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dims)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, h, texts)
}

func (h *Hash) add(vec []float64, feature string, weight float64) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Words shorter than two runes are dropped.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			words = append(words, f)
		}
	}
	return words
}
