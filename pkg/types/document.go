// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceID names a source connector.
type SourceID string

const (
	SourceWikipedia       SourceID = "wikipedia"
	SourceArxiv           SourceID = "arxiv"
	SourceSemanticScholar SourceID = "semantic_scholar"
	SourceOpenAlex        SourceID = "openalex"
	SourceYouTube         SourceID = "youtube"
	SourceWeb             SourceID = "web"
)

// CanonicalSourceOrder is the fixed order in which connector results are
// aggregated, independent of completion order.
var CanonicalSourceOrder = []SourceID{
	SourceWikipedia,
	SourceArxiv,
	SourceSemanticScholar,
	SourceOpenAlex,
	SourceYouTube,
	SourceWeb,
}

// Metadata keys set by connectors.
const (
	MetaURL   = "url"
	MetaTitle = "title"
	MetaKey   = "key"
)

// RawDocument is one fetched document. Connectors create it; nothing
// modifies it afterwards.
type RawDocument struct {
	Source   SourceID          `json:"source" yaml:"source"`
	Text     string            `json:"text" yaml:"text"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Key returns the document's identity within its source: the "key"
// metadata entry, else the URL, else the title.
func (d RawDocument) Key() string {
	for _, k := range []string{MetaKey, MetaURL, MetaTitle} {
		if v := d.Metadata[k]; v != "" {
			return v
		}
	}
	return ""
}

// Chunk is a window of a RawDocument's text.
type Chunk struct {
	// ID is stable for a given source, document key and ordinal.
	ID          string   `json:"id" yaml:"id"`
	Source      SourceID `json:"source" yaml:"source"`
	DocumentKey string   `json:"document_key" yaml:"document_key"`
	Ordinal     int      `json:"ordinal" yaml:"ordinal"`
	Text        string   `json:"text" yaml:"text"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// EmbeddedChunk pairs a chunk with its vector.
type EmbeddedChunk struct {
	Chunk  Chunk     `json:"chunk" yaml:"chunk"`
	Vector []float32 `json:"-" yaml:"-"`
}

// ScoredChunk is a query hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk" yaml:"chunk"`
	Score float64 `json:"score" yaml:"score"`
}
