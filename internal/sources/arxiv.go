// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Arxiv searches the arXiv preprint repository. Each hit becomes a
// document holding its title and abstract.
type Arxiv struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the connector identifier.
func (a *Arxiv) Name() types.SourceID { return types.SourceArxiv }

// Fetch queries the arXiv API in relevance order.
func (a *Arxiv) Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fetchErr(types.SourceArxiv, KindParse, "creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fetchErr(types.SourceArxiv, KindNetwork, "arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.SourceArxiv, resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fetchErr(types.SourceArxiv, KindParse, "parsing arXiv response: %w", err)
	}

	var docs []types.RawDocument
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		summary := collapseSpace(entry.Summary)
		if id == "" || summary == "" {
			continue
		}
		title := collapseSpace(entry.Title)

		authors := make([]string, 0, len(entry.Authors))
		for _, au := range entry.Authors {
			authors = append(authors, strings.TrimSpace(au.Name))
		}

		docs = append(docs, types.RawDocument{
			Source: types.SourceArxiv,
			Text:   title + "\n\n" + summary,
			Metadata: map[string]string{
				types.MetaKey:   id,
				types.MetaTitle: title,
				types.MetaURL:   "https://arxiv.org/abs/" + id,
				"authors":       strings.Join(authors, ", "),
				"published":     entry.Published,
			},
		})
	}
	return docs, nil
}

// buildArxivQuery turns free text into an all-fields search_query value.
func buildArxivQuery(text string) string {
	var terms []string
	for _, t := range strings.Fields(text) {
		if t = arxivTerm(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return ""
	}
	return "all:" + strings.Join(terms, "+AND+all:")
}

// arxivTerm strips characters arXiv's query syntax treats specially and
// escapes the rest for the URL.
func arxivTerm(t string) string {
	return url.QueryEscape(strings.Map(func(r rune) rune {
		switch r {
		case '"', '(', ')', ':', '+', '&', '#', '?':
			return -1
		}
		return r
	}, t))
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
