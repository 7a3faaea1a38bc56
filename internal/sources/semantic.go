// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,url"

// SemanticScholar searches Semantic Scholar. Papers without an abstract are
// skipped.
type SemanticScholar struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the connector identifier.
func (s *SemanticScholar) Name() types.SourceID { return types.SourceSemanticScholar }

// Fetch queries the paper search endpoint.
func (s *SemanticScholar) Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fetchErr(types.SourceSemanticScholar, KindParse, "creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fetchErr(types.SourceSemanticScholar, KindNetwork, "Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.SourceSemanticScholar, resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fetchErr(types.SourceSemanticScholar, KindParse, "parsing Semantic Scholar response: %w", err)
	}

	var docs []types.RawDocument
	for _, p := range sr.Data {
		abstract := collapseSpace(p.Abstract)
		if abstract == "" {
			continue
		}
		key := p.PaperID
		switch {
		case p.ExternalIDs.ArXiv != "":
			key = p.ExternalIDs.ArXiv
		case p.ExternalIDs.DOI != "":
			key = p.ExternalIDs.DOI
		}
		meta := map[string]string{
			types.MetaKey:   key,
			types.MetaTitle: p.Title,
			types.MetaURL:   p.URL,
		}
		if p.Year > 0 {
			meta["year"] = strconv.Itoa(p.Year)
		}
		docs = append(docs, types.RawDocument{
			Source:   types.SourceSemanticScholar,
			Text:     p.Title + "\n\n" + abstract,
			Metadata: meta,
		})
	}
	return docs, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	Abstract    string              `json:"abstract"`
	Year        int                 `json:"year"`
	URL         string              `json:"url"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
