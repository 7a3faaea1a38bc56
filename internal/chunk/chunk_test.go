// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func doc(text string) types.RawDocument {
	return types.RawDocument{
		Source:   types.SourceWikipedia,
		Text:     text,
		Metadata: map[string]string{types.MetaTitle: "Graph theory", types.MetaURL: "https://en.wikipedia.org/wiki/Graph_theory"},
	}
}

// reconstruct concatenates chunks while dropping the leading overlap of
// every chunk after the first.
func reconstruct(chunks []types.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c.Text)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func TestSplit_GraphTheoryScenario(t *testing.T) {
	text := strings.Repeat("abcdefghij", 300)
	chunks, err := Split(doc(text), 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	starts := []int{0, 800, 1600, 2400}
	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, text[starts[i]:min(starts[i]+1000, 3000)], c.Text)
		assert.Equal(t, types.SourceWikipedia, c.Source)
		assert.Equal(t, "Graph theory", c.Title)
	}
	assert.Len(t, chunks[3].Text, 600)
}

func TestSplit_Reconstructs(t *testing.T) {
	text := "Dijkstra's algorithm finds shortest paths. Ünïcödé text stays intact across boundaries. " + strings.Repeat("edge vertex weight ", 97)
	for _, tc := range []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {100, 99}, {1000, 200}, {7, 6}, {5000, 10},
	} {
		chunks, err := Split(doc(text), tc.size, tc.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.Equal(t, text, reconstruct(chunks, tc.overlap), "size=%d overlap=%d", tc.size, tc.overlap)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c.Text)), tc.size)
		}
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t \n"} {
		chunks, err := Split(doc(text), 1000, 200)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"negative overlap", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(doc("some text"), tt.size, tt.overlap)
			assert.Error(t, err)
		})
	}
}

func TestSplit_Idempotent(t *testing.T) {
	d := doc(strings.Repeat("x", 2500))
	a, err := Split(d, 1000, 200)
	require.NoError(t, err)
	b, err := Split(d, 1000, 200)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestID(t *testing.T) {
	a := ID(types.SourceArxiv, "2401.00001", 0)
	assert.Len(t, a, 16)
	assert.Equal(t, a, ID(types.SourceArxiv, "2401.00001", 0))
	assert.NotEqual(t, a, ID(types.SourceArxiv, "2401.00001", 1))
	assert.NotEqual(t, a, ID(types.SourceArxiv, "2401.00002", 0))
	assert.NotEqual(t, a, ID(types.SourceWeb, "2401.00001", 0))
}

func TestSplitAll(t *testing.T) {
	docs := []types.RawDocument{
		doc(strings.Repeat("a", 1500)),
		{Source: types.SourceArxiv, Text: "short abstract", Metadata: map[string]string{types.MetaKey: "2401.1"}},
		doc(""),
	}
	chunks, err := SplitAll(docs, types.ChunkConfig{Size: 1000, Overlap: 200})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, types.SourceArxiv, chunks[2].Source)
	assert.Equal(t, "2401.1", chunks[2].DocumentKey)
}
