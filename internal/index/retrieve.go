// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Searcher runs a similarity query. *Store satisfies it.
type Searcher interface {
	Query(ctx context.Context, collection, text string, k int) ([]types.ScoredChunk, error)
}

// Retriever returns passage text for a query, without scores.
type Retriever struct {
	searcher Searcher
}

// NewRetriever wraps s.
func NewRetriever(s Searcher) *Retriever {
	return &Retriever{searcher: s}
}

// Retrieve returns the text of the top k chunks in similarity order. An
// empty collection yields an empty slice and no error.
func (r *Retriever) Retrieve(ctx context.Context, collection, query string, k int) ([]string, error) {
	hits, err := r.searcher.Query(ctx, collection, query, k)
	if err != nil {
		return nil, err
	}
	passages := make([]string, len(hits))
	for i, h := range hits {
		passages[i] = h.Chunk.Text
	}
	return passages, nil
}
