// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"strings"
	"unicode"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// scholarlySources index the same papers under different URLs, so a
// matching title is enough to call two of their documents the same paper.
var scholarlySources = map[types.SourceID]bool{
	types.SourceArxiv:           true,
	types.SourceSemanticScholar: true,
	types.SourceOpenAlex:        true,
}

// Deduplicate drops documents already seen, keeping the first occurrence.
// Documents match on normalised URL or on source and key. Titles only match
// between scholarly sources, or for documents with neither URL nor key;
// two videos or pages that share a title are distinct documents. It
// returns the kept documents and the number removed.
func Deduplicate(docs []types.RawDocument) ([]types.RawDocument, int) {
	seen := make(map[string]bool)
	var kept []types.RawDocument
	removed := 0

	for _, d := range docs {
		keys := dedupKeys(d)
		dup := false
		for _, k := range keys {
			if seen[k] {
				dup = true
				break
			}
		}
		if dup {
			removed++
			continue
		}
		for _, k := range keys {
			seen[k] = true
		}
		kept = append(kept, d)
	}
	return kept, removed
}

func dedupKeys(d types.RawDocument) []string {
	var keys []string
	u := normalizeURL(d.Metadata[types.MetaURL])
	if u != "" {
		keys = append(keys, "url:"+u)
	}
	key := d.Metadata[types.MetaKey]
	if key != "" {
		keys = append(keys, "key:"+string(d.Source)+":"+key)
	}
	t := normalizeTitle(d.Metadata[types.MetaTitle])
	switch {
	case t == "":
	case scholarlySources[d.Source]:
		keys = append(keys, "paper:"+t)
	case u == "" && key == "":
		keys = append(keys, "title:"+string(d.Source)+":"+t)
	}
	return keys
}

func normalizeURL(u string) string {
	u = strings.TrimSpace(strings.ToLower(u))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimRight(u, "/")
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
