// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// RunRecord is the YAML summary written by report --record.
type RunRecord struct {
	Query      types.Query         `yaml:"query"`
	Settings   RecordSettings      `yaml:"settings"`
	Collection string              `yaml:"collection,omitempty"`
	Sources    []types.SourceCount `yaml:"sources,omitempty"`
	Warnings   []types.Warning     `yaml:"warnings,omitempty"`
	Duplicates int                 `yaml:"duplicates"`
	Chunks     int                 `yaml:"chunks"`
	Passages   int                 `yaml:"passages"`
	StartedAt  time.Time           `yaml:"started_at"`
	Duration   string              `yaml:"duration"`
	Error      string              `yaml:"error,omitempty"`
}

// RecordSettings are the effective settings that shaped a run. Credentials
// are never recorded.
type RecordSettings struct {
	ChunkSize          int                      `yaml:"chunk_size"`
	ChunkOverlap       int                      `yaml:"chunk_overlap"`
	RetrievalK         int                      `yaml:"retrieval_k"`
	ContextBudget      int                      `yaml:"context_budget"`
	EmbeddingProvider  types.EmbeddingProvider  `yaml:"embedding_provider"`
	EmbeddingModel     string                   `yaml:"embedding_model,omitempty"`
	GenerationProvider types.GenerationProvider `yaml:"generation_provider"`
	GenerationModel    string                   `yaml:"generation_model"`
	Temperature        float64                  `yaml:"temperature"`
}

// NewRecord summarises a finished run. report may be nil when runErr is set.
func NewRecord(q types.Query, cfg types.PipelineConfig, report *types.Report, runErr error, started time.Time, elapsed time.Duration) RunRecord {
	rec := RunRecord{
		Query: q,
		Settings: RecordSettings{
			ChunkSize:          cfg.Chunk.Size,
			ChunkOverlap:       cfg.Chunk.Overlap,
			RetrievalK:         cfg.Index.RetrievalK,
			ContextBudget:      cfg.Index.ContextBudget,
			EmbeddingProvider:  cfg.Embedding.Provider,
			EmbeddingModel:     cfg.Embedding.Model,
			GenerationProvider: cfg.Generation.Provider,
			GenerationModel:    cfg.Generation.Model,
			Temperature:        cfg.Generation.Temperature,
		},
		StartedAt: started.UTC(),
		Duration:  elapsed.Round(time.Millisecond).String(),
	}
	if report != nil {
		rec.Collection = report.Collection
		rec.Sources = report.Sources
		rec.Warnings = report.Warnings
		rec.Duplicates = report.Duplicates
		rec.Chunks = report.Chunks
		rec.Passages = report.Passages
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	return rec
}

// WriteRecord writes rec to path as YAML, creating parent directories.
func WriteRecord(path string, rec RunRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating record directory: %w", err)
		}
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run record: %w", err)
	}
	return nil
}
