// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one chunk in an export. Vectors are not exported.
type ExportEntry struct {
	ID      string `json:"id" yaml:"id"`
	Source  string `json:"source" yaml:"source"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Ordinal int    `json:"ordinal" yaml:"ordinal"`
	Text    string `json:"text" yaml:"text"`
}

// Export is the serialised form of a collection.
type Export struct {
	Collection string        `json:"collection" yaml:"collection"`
	Embedder   string        `json:"embedder" yaml:"embedder"`
	Chunks     []ExportEntry `json:"chunks" yaml:"chunks"`
}

// Export reads collection in insertion order.
func (s *Store) Export(ctx context.Context, collection string) (*Export, error) {
	all, err := s.scan(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := &Export{Collection: collection, Embedder: s.embedder.Name(), Chunks: make([]ExportEntry, len(all))}
	for i, ec := range all {
		c := ec.Chunk
		out.Chunks[i] = ExportEntry{
			ID:      c.ID,
			Source:  string(c.Source),
			Title:   c.Title,
			URL:     c.URL,
			Ordinal: c.Ordinal,
			Text:    c.Text,
		}
	}
	return out, nil
}

// ExportYAML writes collection to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, collection string, w io.Writer) error {
	e, err := s.Export(ctx, collection)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes collection to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, collection string, w io.Writer) error {
	e, err := s.Export(ctx, collection)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
