// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func TestWriteRecord(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Generation.APIKey = "gsk-secret"
	cfg.Sources.YouTubeAPIKey = "yt-secret"

	q := graphQuery(t, types.FormatText)
	report := &types.Report{
		Collection: "graph-theory-1234abcd",
		Sources:    []types.SourceCount{{Source: types.SourceWikipedia, Documents: 1}},
		Warnings:   []types.Warning{{Source: types.SourceArxiv, Kind: "network", Message: "timeout"}},
		Chunks:     4,
		Passages:   4,
	}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord(q, cfg, report, nil, started, 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "runs", "run.yaml")
	require.NoError(t, WriteRecord(path, rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	var got RunRecord
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, rec, got)
	assert.Equal(t, "1.5s", got.Duration)
	assert.Equal(t, "llama-3.3-70b-versatile", got.Settings.GenerationModel)
	assert.Equal(t, 1000, got.Settings.ChunkSize)
}

func TestNewRecordWithError(t *testing.T) {
	err := &PipelineError{Kind: KindNoContentFound, Err: ErrNoContent}
	rec := NewRecord(graphQuery(t), types.DefaultPipelineConfig(), nil, err, time.Now(), time.Second)
	assert.Equal(t, err.Error(), rec.Error)
	assert.Empty(t, rec.Collection)
	assert.True(t, errors.Is(err, ErrNoContent))
}
