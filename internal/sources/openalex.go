// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlex searches OpenAlex works and rebuilds their abstracts.
type OpenAlex struct {
	Client    *http.Client
	UserAgent string
	// Email is sent as the mailto parameter for polite pool access.
	Email string
}

// Name returns the connector identifier.
func (o *OpenAlex) Name() types.SourceID { return types.SourceOpenAlex }

// Fetch queries OpenAlex; works without an abstract are skipped.
func (o *OpenAlex) Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	if limit <= 0 {
		limit = 5
	}
	limit = min(limit, 200)

	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(limit)},
		"page":     {"1"},
	}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fetchErr(types.SourceOpenAlex, KindParse, "creating request: %w", err)
	}
	req.Header.Set("User-Agent", o.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, o.Client, req, 0)
	if err != nil {
		return nil, fetchErr(types.SourceOpenAlex, KindNetwork, "OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.SourceOpenAlex, resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fetchErr(types.SourceOpenAlex, KindParse, "parsing OpenAlex response: %w", err)
	}

	var docs []types.RawDocument
	for _, w := range oar.Results {
		abstract := reconstructAbstract(w.AbstractInvertedIndex)
		if abstract == "" {
			continue
		}
		key, link := w.ID, w.ID
		if w.DOI != "" {
			key = strings.TrimPrefix(w.DOI, "https://doi.org/")
			link = w.DOI
		}
		docs = append(docs, types.RawDocument{
			Source: types.SourceOpenAlex,
			Text:   w.Title + "\n\n" + abstract,
			Metadata: map[string]string{
				types.MetaKey:   key,
				types.MetaTitle: w.Title,
				types.MetaURL:   link,
			},
		})
	}
	return docs, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The index maps each word to the positions it occupies.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	DOI                   string           `json:"doi"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}
