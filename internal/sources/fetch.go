// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Outcome is the result of one connector call.
type Outcome struct {
	Source    types.SourceID
	Documents []types.RawDocument
	Err       *FetchError
	Elapsed   time.Duration
}

// FetchAll calls every connector concurrently, each bounded by timeout
// (zero means no extra bound). Outcomes are returned in the order the
// connectors were given, whatever order they complete in. A failing
// connector never affects the others.
func FetchAll(ctx context.Context, connectors []Connector, query string, limit int, timeout time.Duration, logger *zap.Logger) []Outcome {
	if logger == nil {
		logger = zap.NewNop()
	}
	outcomes := make([]Outcome, len(connectors))

	var g errgroup.Group
	for i, c := range connectors {
		g.Go(func() error {
			outcomes[i] = fetchOne(ctx, c, query, limit, timeout)
			o := outcomes[i]
			if o.Err != nil {
				logger.Warn("source skipped",
					zap.String("source", string(o.Source)),
					zap.Stringer("kind", o.Err.Kind),
					zap.Error(o.Err.Err),
					zap.Duration("elapsed", o.Elapsed))
			} else {
				logger.Info("source fetched",
					zap.String("source", string(o.Source)),
					zap.Int("documents", len(o.Documents)),
					zap.Duration("elapsed", o.Elapsed))
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func fetchOne(ctx context.Context, c Connector, query string, limit int, timeout time.Duration) (o Outcome) {
	o.Source = c.Name()
	start := time.Now()
	defer func() { o.Elapsed = time.Since(start) }()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			o.Documents = nil
			o.Err = fetchErr(o.Source, KindParse, "connector panicked: %v", r)
		}
	}()

	docs, err := c.Fetch(ctx, query, limit)
	if err != nil {
		fe := AsFetchError(o.Source, err)
		if errors.Is(err, context.DeadlineExceeded) && fe.Kind != KindNetwork {
			fe = &FetchError{Source: o.Source, Kind: KindNetwork, Err: fmt.Errorf("timed out: %w", err)}
		}
		o.Err = fe
		return o
	}
	o.Documents = docs
	return o
}

// Documents flattens successful outcomes in order.
func Documents(outcomes []Outcome) []types.RawDocument {
	var docs []types.RawDocument
	for _, o := range outcomes {
		docs = append(docs, o.Documents...)
	}
	return docs
}
