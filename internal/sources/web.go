// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// webSearchBase is the DuckDuckGo HTML search endpoint. Declared as a var
// so tests can substitute an httptest server.
var webSearchBase = "https://html.duckduckgo.com/html/"

const (
	webPageMaxBytes = 2 << 20
	// DefaultWebMaxChars caps the text kept per page.
	DefaultWebMaxChars = 8000
	// minPageChars is the shortest page text preferred over the search snippet.
	minPageChars   = 200
	webConcurrency = 4
)

// Web searches the open web and loads the readable text of each hit.
// When a page cannot be loaded the search snippet stands in for it.
type Web struct {
	Client    *http.Client
	UserAgent string
	MaxChars  int
	Logger    *zap.Logger
}

// Name returns the connector identifier.
func (w *Web) Name() types.SourceID { return types.SourceWeb }

type webResult struct {
	Title, URL, Snippet string
}

// Fetch runs the search and loads every result page.
func (w *Web) Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	if limit <= 0 {
		limit = 5
	}
	results, err := w.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxChars := w.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultWebMaxChars
	}

	texts := make([]string, len(results))
	limiter := rate.NewLimiter(rate.Limit(webConcurrency), webConcurrency)
	var g errgroup.Group
	g.SetLimit(webConcurrency)
	for i, r := range results {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			text, err := w.page(ctx, r.URL)
			if err != nil {
				logger.Debug("using snippet for page",
					zap.String("source", string(types.SourceWeb)),
					zap.String("url", r.URL),
					zap.Error(err))
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	var docs []types.RawDocument
	for i, r := range results {
		text := texts[i]
		if len([]rune(text)) < minPageChars {
			text = r.Snippet
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if rs := []rune(text); len(rs) > maxChars {
			text = string(rs[:maxChars])
		}
		docs = append(docs, types.RawDocument{
			Source: types.SourceWeb,
			Text:   text,
			Metadata: map[string]string{
				types.MetaTitle: r.Title,
				types.MetaURL:   r.URL,
			},
		})
	}
	return docs, nil
}

func (w *Web) search(ctx context.Context, query string, limit int) ([]webResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webSearchBase+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fetchErr(types.SourceWeb, KindParse, "creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+w.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fetchErr(types.SourceWeb, KindNetwork, "web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.SourceWeb, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, webPageMaxBytes))
	if err != nil {
		return nil, fetchErr(types.SourceWeb, KindParse, "parsing search results: %w", err)
	}
	return parseSearchResults(doc, limit), nil
}

// parseSearchResults reads DuckDuckGo result links and snippets.
func parseSearchResults(doc *html.Node, limit int) []webResult {
	var results []webResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if r := extractResult(n); r.URL != "" && r.Title != "" {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

func extractResult(n *html.Node) webResult {
	var r webResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				r.URL = resolveRedirect(attr(n, "href"))
				r.Title = textContent(n)
			case hasClass(n, "result__snippet"):
				r.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return r
}

// resolveRedirect unwraps DuckDuckGo's //duckduckgo.com/l/?uddg= links.
func resolveRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// page loads url and returns its readable text.
func (w *Web) page(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", w.UserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.HasPrefix(ct, "text/") {
		return "", fmt.Errorf("unsupported content type %s", ct)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, webPageMaxBytes))
	if err != nil {
		return "", err
	}
	return readableText(doc), nil
}

// skippedElements hold no readable prose.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "nav": true,
	"header": true, "footer": true, "aside": true, "form": true,
	"svg": true, "iframe": true, "head": true,
}

// blockElements end a line of text.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "br": true, "pre": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "table": true,
}

// readableText collects visible text, one line per block element.
func readableText(doc *html.Node) string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := collapseSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			flush()
		}
	}
	walk(doc)
	flush()
	return strings.Join(lines, "\n")
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpace(b.String())
}
