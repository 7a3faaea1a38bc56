// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/learning-engine/internal/embed"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// Query returns up to k chunks of collection ranked by cosine similarity to
// text, highest first. Equal scores keep insertion order. An unknown or
// empty collection yields no results.
func (s *Store) Query(ctx context.Context, collection, text string, k int) ([]types.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	var embedderName string
	err := s.db.QueryRowContext(ctx, `SELECT embedder FROM collections WHERE name = ?`, collection).Scan(&embedderName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("looking up collection", err)
	}
	if embedderName != s.embedder.Name() {
		return nil, fmt.Errorf("%w: %s uses %s, store uses %s", ErrEmbedderMismatch, collection, embedderName, s.embedder.Name())
	}

	qv, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	all, err := s.scan(ctx, collection)
	if err != nil {
		return nil, err
	}

	scored := make([]types.ScoredChunk, len(all))
	for i, ec := range all {
		scored[i] = types.ScoredChunk{Chunk: ec.Chunk, Score: embed.CosineSimilarity(qv, ec.Vector)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// scan loads every chunk of collection in insertion order.
func (s *Store) scan(ctx context.Context, collection string) ([]types.EmbeddedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, doc_key, ordinal, title, url, text, vector
		FROM chunks WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, unavailable("reading chunks", err)
	}
	defer rows.Close()

	var out []types.EmbeddedChunk
	for rows.Next() {
		var (
			c                  types.Chunk
			source             string
			docKey, title, url sql.NullString
			blob               []byte
		)
		if err := rows.Scan(&c.ID, &source, &docKey, &c.Ordinal, &title, &url, &c.Text, &blob); err != nil {
			return nil, unavailable("scanning chunk", err)
		}
		c.Source = types.SourceID(source)
		c.DocumentKey = docKey.String
		c.Title = title.String
		c.URL = url.String

		v, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		out = append(out, types.EmbeddedChunk{Chunk: c, Vector: v})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading chunks", err)
	}
	return out, nil
}
