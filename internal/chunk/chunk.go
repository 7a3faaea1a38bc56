// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits fetched documents into overlapping fixed-size passages.
package chunk

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 1000

// DefaultOverlap is the default number of characters shared by neighbouring chunks.
const DefaultOverlap = 200

// Split cuts doc.Text into windows of size characters, each starting
// size-overlap characters after the previous one. The final window ends at
// the end of the text; no window lies entirely inside its predecessor.
// Whitespace-only text yields no chunks.
func Split(doc types.RawDocument, size, overlap int) ([]types.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	runes := []rune(doc.Text)
	n := len(runes)
	step := size - overlap
	key := doc.Key()
	title := doc.Metadata[types.MetaTitle]
	url := doc.Metadata[types.MetaURL]

	chunks := make([]types.Chunk, 0, n/step+1)
	for start, ordinal := 0, 0; ; start, ordinal = start+step, ordinal+1 {
		end := min(start+size, n)
		chunks = append(chunks, types.Chunk{
			ID:          ID(doc.Source, key, ordinal),
			Source:      doc.Source,
			DocumentKey: key,
			Ordinal:     ordinal,
			Text:        string(runes[start:end]),
			Title:       title,
			URL:         url,
		})
		if end == n {
			break
		}
	}
	return chunks, nil
}

// SplitAll splits every document in order and concatenates the results.
func SplitAll(docs []types.RawDocument, cfg types.ChunkConfig) ([]types.Chunk, error) {
	var all []types.Chunk
	for _, d := range docs {
		cs, err := Split(d, cfg.Size, cfg.Overlap)
		if err != nil {
			return nil, err
		}
		all = append(all, cs...)
	}
	return all, nil
}

// ID derives a chunk identifier from its source, document key and ordinal.
// The ID is the first 16 hex characters of SHA-256 over the NUL-joined fields.
func ID(source types.SourceID, documentKey string, ordinal int) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(documentKey))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(ordinal)))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
