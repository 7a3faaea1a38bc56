// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"github.com/pdiddy/learning-engine/internal/config"
	"github.com/pdiddy/learning-engine/internal/embed"
	"github.com/pdiddy/learning-engine/internal/generate"
	"github.com/pdiddy/learning-engine/internal/index"
	"github.com/pdiddy/learning-engine/internal/pipeline"
	"github.com/pdiddy/learning-engine/internal/sources"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// app bundles the long-lived collaborators a command needs.
type app struct {
	cfg          types.PipelineConfig
	store        *index.Store
	orchestrator *pipeline.Orchestrator
}

// openStore opens the vector store with the configured embedder.
func openStore(ctx context.Context, cfg types.PipelineConfig) (*index.Store, error) {
	if err := config.CheckEmbeddingCredentials(cfg.Embedding); err != nil {
		return nil, err
	}
	e, err := embed.New(ctx, cfg.Embedding)
	if err != nil {
		return nil, err
	}
	return index.Open(cfg.Index, e, logger)
}

// newApp wires the full pipeline. Close must be called when done.
func newApp(ctx context.Context, cfg types.PipelineConfig) (*app, error) {
	if err := config.CheckCredentials(cfg); err != nil {
		return nil, err
	}
	gen, err := generate.New(cfg.Generation, nil)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	o, err := pipeline.New(cfg, pipeline.Deps{
		Connectors: sources.Build(cfg.Sources, logger),
		Index:      store,
		Generator:  gen,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return &app{cfg: cfg, store: store, orchestrator: o}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
