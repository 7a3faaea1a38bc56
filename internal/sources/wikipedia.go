// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// wikipediaAPIBase is the MediaWiki action API endpoint. Declared as a var
// so tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

// DefaultWikipediaMaxChars caps the text kept per article.
const DefaultWikipediaMaxChars = 4000

// Wikipedia searches the encyclopedia and loads plain-text page extracts.
type Wikipedia struct {
	Client    *http.Client
	UserAgent string

	// MaxChars caps each article's text; zero uses DefaultWikipediaMaxChars.
	MaxChars int
}

// Name returns the connector identifier.
func (w *Wikipedia) Name() types.SourceID { return types.SourceWikipedia }

// Fetch searches for query and returns one document per matching article.
// Articles whose extract cannot be loaded are skipped; the call fails only
// when the search itself fails or every extract fails.
func (w *Wikipedia) Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	if limit <= 0 {
		limit = 5
	}

	var sr wikiSearchResponse
	if err := w.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
	}, &sr); err != nil {
		return nil, err
	}
	if len(sr.Query.Search) == 0 {
		return nil, nil
	}

	maxChars := w.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultWikipediaMaxChars
	}

	var (
		docs    []types.RawDocument
		lastErr error
	)
	for _, hit := range sr.Query.Search {
		page, err := w.extract(ctx, hit.Title)
		if err != nil {
			lastErr = err
			continue
		}
		text := strings.TrimSpace(page.Extract)
		if text == "" {
			continue
		}
		if r := []rune(text); len(r) > maxChars {
			text = string(r[:maxChars])
		}
		pageURL := page.FullURL
		if pageURL == "" {
			pageURL = "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(page.Title, " ", "_"))
		}
		docs = append(docs, types.RawDocument{
			Source: types.SourceWikipedia,
			Text:   text,
			Metadata: map[string]string{
				types.MetaKey:   strconv.Itoa(page.PageID),
				types.MetaTitle: page.Title,
				types.MetaURL:   pageURL,
			},
		})
	}
	if len(docs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return docs, nil
}

// extract loads one article's plain-text extract. TextExtracts returns at
// most one full extract per request.
func (w *Wikipedia) extract(ctx context.Context, title string) (wikiPage, error) {
	var er wikiExtractResponse
	if err := w.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts|info"},
		"explaintext": {"1"},
		"inprop":      {"url"},
		"redirects":   {"1"},
		"titles":      {title},
	}, &er); err != nil {
		return wikiPage{}, err
	}
	for _, p := range er.Query.Pages {
		if !p.Missing {
			return p, nil
		}
	}
	return wikiPage{}, fetchErr(types.SourceWikipedia, KindParse, "page %q not found", title)
}

func (w *Wikipedia) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return fetchErr(types.SourceWikipedia, KindParse, "creating request: %w", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, w.Client, req, 0)
	if err != nil {
		return fetchErr(types.SourceWikipedia, KindNetwork, "Wikipedia API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(types.SourceWikipedia, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fetchErr(types.SourceWikipedia, KindParse, "parsing Wikipedia response: %w", err)
	}
	return nil
}

// MediaWiki API JSON structures (formatversion=2).
type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title  string `json:"title"`
			PageID int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages []wikiPage `json:"pages"`
	} `json:"query"`
}

type wikiPage struct {
	PageID  int    `json:"pageid"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`
	Missing bool   `json:"missing"`
}

var _ Connector = (*Wikipedia)(nil)
