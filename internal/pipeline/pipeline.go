// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one learning request end to end: fetch sources,
// chunk, index, retrieve, assemble the prompt and generate the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/chunk"
	"github.com/pdiddy/learning-engine/internal/config"
	"github.com/pdiddy/learning-engine/internal/generate"
	"github.com/pdiddy/learning-engine/internal/index"
	"github.com/pdiddy/learning-engine/internal/prompt"
	"github.com/pdiddy/learning-engine/internal/sources"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// generationBackoff is the first wait between generation attempts; it
// doubles per attempt. Tests shrink it.
var generationBackoff = 2 * time.Second

const maxSlugLen = 40

// Index is the part of the vector store the orchestrator uses.
// *index.Store satisfies it.
type Index interface {
	Upsert(ctx context.Context, collection string, chunks []types.Chunk) error
	Query(ctx context.Context, collection, text string, k int) ([]types.ScoredChunk, error)
	Drop(ctx context.Context, collection string) error
}

// Retriever returns the passage text of the top k chunks for a query.
// *index.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, k int) ([]string, error)
}

// Deps are the collaborators handed to the orchestrator at construction.
type Deps struct {
	// Connectors are every enabled source; each run selects from them by
	// the query's formats.
	Connectors []sources.Connector
	Index      Index
	Generator  generate.Generator
	Logger     *zap.Logger

	// Retriever defaults to an index.Retriever over Index.
	Retriever Retriever

	// NewID returns a fresh unique id for session collections. Defaults to
	// uuid.NewString.
	NewID func() string
}

// Orchestrator sequences the pipeline stages.
type Orchestrator struct {
	cfg        types.PipelineConfig
	connectors []sources.Connector
	index      Index
	retriever  Retriever
	generator  generate.Generator
	logger     *zap.Logger
	newID      func() string
}

// New validates cfg, checks that the credentials a run needs are present
// and returns an orchestrator. No network call is made.
func New(cfg types.PipelineConfig, deps Deps) (*Orchestrator, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.CheckCredentials(cfg); err != nil {
		return nil, err
	}
	if deps.Index == nil {
		return nil, fmt.Errorf("pipeline: index is required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("pipeline: generator is required")
	}
	o := &Orchestrator{
		cfg:        cfg,
		connectors: deps.Connectors,
		index:      deps.Index,
		retriever:  deps.Retriever,
		generator:  deps.Generator,
		logger:     deps.Logger,
		newID:      deps.NewID,
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.retriever == nil {
		o.retriever = index.NewRetriever(deps.Index)
	}
	return o, nil
}

// Run executes the pipeline for q. Connector failures become warnings on
// the report; the run fails only when nothing was fetched, the index fails
// or generation fails. The returned markdown is the model output
// unmodified.
func (o *Orchestrator) Run(ctx context.Context, q types.Query) (*types.Report, error) {
	selected := sources.ForQuery(o.connectors, q)
	if err := o.checkSources(selected, q); err != nil {
		return nil, err
	}

	collection := o.collectionName(q)
	logger := o.logger.With(zap.String("collection", collection))
	logger.Info("pipeline started",
		zap.String("topic", q.Topic),
		zap.Int("connectors", len(selected)))

	report := &types.Report{Collection: collection}

	outcomes := sources.FetchAll(ctx, selected, q.Topic, o.cfg.Sources.Limit, o.cfg.Sources.FetchTimeout, logger)
	for _, out := range outcomes {
		if out.Err != nil {
			report.Warnings = append(report.Warnings, types.Warning{
				Source:  out.Source,
				Kind:    out.Err.Kind.String(),
				Message: out.Err.Err.Error(),
			})
			continue
		}
		report.Sources = append(report.Sources, types.SourceCount{Source: out.Source, Documents: len(out.Documents)})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, dups := sources.Deduplicate(sources.Documents(outcomes))
	report.Duplicates = dups
	if len(docs) == 0 {
		return nil, &PipelineError{Kind: KindNoContentFound, Err: ErrNoContent}
	}

	chunks, err := chunk.SplitAll(docs, o.cfg.Chunk)
	if err != nil {
		return nil, &PipelineError{Kind: KindIndexFailure, Err: err}
	}
	if len(chunks) == 0 {
		return nil, &PipelineError{Kind: KindNoContentFound, Err: ErrNoContent}
	}
	report.Chunks = len(chunks)

	if o.cfg.Index.Ephemeral {
		defer o.drop(ctx, collection, logger)
	}
	if err := o.index.Upsert(ctx, collection, chunks); err != nil {
		return nil, &PipelineError{Kind: KindIndexFailure, Err: err}
	}

	passages, err := o.retriever.Retrieve(ctx, collection, q.Text(), o.cfg.Index.RetrievalK)
	if err != nil {
		return nil, &PipelineError{Kind: KindIndexFailure, Err: err}
	}
	report.Passages = len(passages)
	logger.Info("context retrieved",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("passages", len(passages)))

	text, err := prompt.Assemble(q, prompt.BuildContext(passages, o.cfg.Index.ContextBudget))
	if err != nil {
		return nil, &PipelineError{Kind: KindGenerationFailure, Err: err}
	}

	markdown, err := o.generate(ctx, text, logger)
	if err != nil {
		return nil, &PipelineError{Kind: KindGenerationFailure, Err: err}
	}
	report.Markdown = markdown

	if missing := prompt.MissingSections(markdown); len(missing) > 0 {
		report.Warnings = append(report.Warnings, types.Warning{
			Kind:    "missing_sections",
			Message: "report is missing sections: " + strings.Join(missing, ", "),
		})
		logger.Warn("report is missing sections", zap.Strings("sections", missing))
	}

	logger.Info("pipeline finished",
		zap.Int("warnings", len(report.Warnings)),
		zap.Int("markdown_bytes", len(markdown)))
	return report, nil
}

// checkSources rejects a run that cannot reach any source: no connector
// serves the requested formats, or every selected connector lacks its
// credential.
func (o *Orchestrator) checkSources(selected []sources.Connector, q types.Query) error {
	if len(selected) == 0 {
		return &config.ConfigError{
			Field:  "sources",
			Reason: fmt.Sprintf("no enabled source serves formats %v", q.Formats),
		}
	}
	for _, c := range selected {
		if c.Name() != types.SourceYouTube || o.cfg.Sources.YouTubeAPIKey != "" {
			return nil
		}
	}
	return &config.ConfigError{
		Field:  "sources.youtube_api_key",
		Reason: "missing; video is the only selected source (set YOUTUBE_API_KEY or .secrets/youtube-api-key)",
	}
}

// generate calls the model, retrying retryable failures up to
// MaxRetries times with exponential backoff.
func (o *Orchestrator) generate(ctx context.Context, text string, logger *zap.Logger) (string, error) {
	gc := o.cfg.Generation
	var lastErr error
	for attempt := 0; attempt <= gc.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * generationBackoff
			logger.Warn("retrying generation",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if gc.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, gc.Timeout)
		}
		out, err := o.generator.Generate(callCtx, text, gc.Model, gc.Temperature)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !generate.IsRetryable(err) {
			break
		}
	}
	return "", lastErr
}

func (o *Orchestrator) drop(ctx context.Context, collection string, logger *zap.Logger) {
	if err := o.index.Drop(context.WithoutCancel(ctx), collection); err != nil {
		logger.Warn("dropping ephemeral collection", zap.Error(err))
	}
}

// collectionName returns the configured collection, or a fresh
// "<topic-slug>-<id8>" session collection.
func (o *Orchestrator) collectionName(q types.Query) string {
	if o.cfg.Index.Collection != "" {
		return o.cfg.Index.Collection
	}
	id := strings.ReplaceAll(o.newID(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	if s := slug(q.Topic); s != "" {
		return s + "-" + id
	}
	return "session-" + id
}

// slug lowercases s and joins its alphanumeric runs with hyphens.
func slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	out := []rune(b.String())
	if len(out) > maxSlugLen {
		out = out[:maxSlugLen]
	}
	return strings.TrimRight(string(out), "-")
}
