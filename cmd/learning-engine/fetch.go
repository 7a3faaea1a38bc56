// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/sources"
	"github.com/pdiddy/learning-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [topic]",
	Short: "Run only the source connectors and list what they found",
	Long: `Fetch queries the connectors selected by --format and prints the documents
each one returned, after de-duplication. Nothing is indexed and no model is
called. Use it to check source coverage and credentials.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("topic", "", "subject to search for (or pass as arguments)")
	fetchCmd.Flags().StringSlice("format", nil, "preferred formats: text, video, diagram, example, all (repeatable)")
	fetchCmd.Flags().Int("limit", 0, "documents per source (0 = configured default)")
	fetchCmd.Flags().Bool("json", false, "output documents as JSON")

	rootCmd.AddCommand(fetchCmd)
}

// fetchedDoc is one row of fetch output.
type fetchedDoc struct {
	Source types.SourceID `json:"source"`
	Title  string         `json:"title"`
	URL    string         `json:"url,omitempty"`
	Chars  int            `json:"chars"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		topic = strings.Join(args, " ")
	}
	formatNames, _ := cmd.Flags().GetStringSlice("format")
	formats, err := parseFormats(formatNames)
	if err != nil {
		return err
	}
	q, err := types.NewQuery(topic, "", types.LevelBeginner, formats)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Sources.Limit
	}

	selected := sources.ForQuery(sources.Build(cfg.Sources, logger), q)
	if len(selected) == 0 {
		return fmt.Errorf("no enabled source serves formats %v", q.Formats)
	}

	outcomes := sources.FetchAll(cmd.Context(), selected, q.Topic, limit, cfg.Sources.FetchTimeout, logger)
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", o.Err)
		}
	}
	docs, removed := sources.Deduplicate(sources.Documents(outcomes))

	rows := make([]fetchedDoc, len(docs))
	for i, d := range docs {
		rows[i] = fetchedDoc{
			Source: d.Source,
			Title:  d.Metadata[types.MetaTitle],
			URL:    d.Metadata[types.MetaURL],
			Chars:  len([]rune(d.Text)),
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatFetchOutput(os.Stdout, rows, removed, jsonOutput)
}

func formatFetchOutput(w io.Writer, rows []fetchedDoc, removed int, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return nil
	}

	fmt.Fprintf(w, "%-16s  %-50s  %6s  %s\n", "Source", "Title", "Chars", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s  %-50s  %6d  %s\n", r.Source, ellipsize(r.Title, 50), r.Chars, r.URL)
	}
	fmt.Fprintf(w, "\n%d documents", len(rows))
	if removed > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", removed)
	}
	fmt.Fprintln(w)
	return nil
}

// ellipsize shortens s to n runes, marking the cut with "...".
func ellipsize(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}
