// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// formatSources maps each learning format to the sources that serve it.
var formatSources = map[types.Format][]types.SourceID{
	types.FormatText:    {types.SourceWikipedia, types.SourceArxiv, types.SourceSemanticScholar, types.SourceOpenAlex},
	types.FormatVideo:   {types.SourceYouTube},
	types.FormatDiagram: {types.SourceWeb},
	types.FormatExample: {types.SourceWeb},
}

// ForQuery returns the connectors from all that serve at least one of the
// query's formats, in canonical source order.
func ForQuery(all []Connector, q types.Query) []Connector {
	wanted := make(map[types.SourceID]bool)
	for f, ids := range formatSources {
		if q.Wants(f) {
			for _, id := range ids {
				wanted[id] = true
			}
		}
	}

	var selected []Connector
	for _, c := range all {
		if wanted[c.Name()] {
			selected = append(selected, c)
		}
	}
	SortCanonical(selected)
	return selected
}

// SortCanonical orders connectors by types.CanonicalSourceOrder. Unknown
// sources sort last, keeping their relative order.
func SortCanonical(cs []Connector) {
	rank := func(id types.SourceID) int {
		if i := slices.Index(types.CanonicalSourceOrder, id); i >= 0 {
			return i
		}
		return len(types.CanonicalSourceOrder)
	}
	slices.SortStableFunc(cs, func(a, b Connector) int {
		return rank(a.Name()) - rank(b.Name())
	})
}

// Build constructs the enabled connectors from cfg in canonical order.
func Build(cfg types.SourcesConfig, logger *zap.Logger) []Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}

	var cs []Connector
	if cfg.EnableWikipedia {
		cs = append(cs, &Wikipedia{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableArxiv {
		cs = append(cs, &Arxiv{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableSemanticScholar {
		cs = append(cs, &SemanticScholar{Client: client, UserAgent: cfg.UserAgent, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		cs = append(cs, &OpenAlex{Client: client, UserAgent: cfg.UserAgent, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnableYouTube {
		cs = append(cs, &YouTube{
			Client:      client,
			APIKey:      cfg.YouTubeAPIKey,
			Concurrency: cfg.TranscriptConcurrency,
			Rate:        cfg.TranscriptRate,
			Logger:      logger,
		})
	}
	if cfg.EnableWeb {
		cs = append(cs, &Web{Client: client, UserAgent: cfg.UserAgent, Logger: logger})
	}
	return cs
}
