// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pdiddy/learning-engine/internal/pipeline"
	"github.com/pdiddy/learning-engine/pkg/types"
)

const defaultWrapWidth = 100

var reportCmd = &cobra.Command{
	Use:   "report [topic]",
	Short: "Generate a learning report for a topic",
	Long: `Report runs the full pipeline: it fetches material from the sources that
match the preferred formats, chunks and indexes it, retrieves the passages
most relevant to the request, and asks the configured model for a markdown
report with nine fixed sections.

Source failures are printed as warnings; the run fails only when nothing
could be fetched, the index fails, or generation fails.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("topic", "", "subject to learn about (or pass as arguments)")
	reportCmd.Flags().String("objective", "", "what you want to achieve")
	reportCmd.Flags().String("level", "beginner", "knowledge level: beginner, intermediate, advanced")
	reportCmd.Flags().StringSlice("format", nil, "preferred formats: text, video, diagram, example, all (repeatable)")
	reportCmd.Flags().String("out", "", "write the markdown report to this file instead of stdout")
	reportCmd.Flags().String("record", "", "write a YAML run record to this file")
	reportCmd.Flags().Bool("render", false, "render markdown for the terminal even when stdout is not a TTY")
	reportCmd.Flags().Bool("raw", false, "print raw markdown even on a TTY")
	reportCmd.Flags().String("collection", "", "reuse a named collection instead of a fresh one")
	reportCmd.Flags().Bool("ephemeral", false, "drop the run's collection once the report is written")
	reportCmd.Flags().String("model", "", "generation model identifier")

	_ = viper.BindPFlag("index.collection", reportCmd.Flags().Lookup("collection"))
	_ = viper.BindPFlag("index.ephemeral", reportCmd.Flags().Lookup("ephemeral"))
	_ = viper.BindPFlag("generation.model", reportCmd.Flags().Lookup("model"))

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	started := time.Now()
	report, runErr := a.orchestrator.Run(ctx, q)

	if path, _ := cmd.Flags().GetString("record"); path != "" {
		rec := pipeline.NewRecord(q, cfg, report, runErr, started, time.Since(started))
		if err := pipeline.WriteRecord(path, rec); err != nil {
			fmt.Fprintf(os.Stderr, "Writing run record: %v\n", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printWarnings(os.Stderr, report.Warnings)
	printSummary(os.Stderr, report)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, []byte(report.Markdown), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", out)
		return nil
	}

	forceRender, _ := cmd.Flags().GetBool("render")
	raw, _ := cmd.Flags().GetBool("raw")
	return writeMarkdown(os.Stdout, report.Markdown, !raw && (forceRender || stdoutIsTerminal()))
}

// queryFromFlags builds the learner query. Positional arguments form the
// topic when --topic is absent; formats may be repeated or comma-separated.
func queryFromFlags(cmd *cobra.Command, args []string) (types.Query, error) {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		topic = strings.Join(args, " ")
	}
	objective, _ := cmd.Flags().GetString("objective")
	levelName, _ := cmd.Flags().GetString("level")
	formatNames, _ := cmd.Flags().GetStringSlice("format")

	level, err := types.ParseKnowledgeLevel(levelName)
	if err != nil {
		return types.Query{}, err
	}
	formats, err := parseFormats(formatNames)
	if err != nil {
		return types.Query{}, err
	}
	return types.NewQuery(topic, objective, level, formats)
}

func parseFormats(names []string) ([]types.Format, error) {
	var out []types.Format
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f, err := types.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func printWarnings(w io.Writer, warnings []types.Warning) {
	for _, wn := range warnings {
		if wn.Source != "" {
			fmt.Fprintf(w, "warning: %s: %s: %s\n", wn.Source, wn.Kind, wn.Message)
		} else {
			fmt.Fprintf(w, "warning: %s: %s\n", wn.Kind, wn.Message)
		}
	}
}

func printSummary(w io.Writer, r *types.Report) {
	parts := make([]string, 0, len(r.Sources))
	for _, sc := range r.Sources {
		parts = append(parts, fmt.Sprintf("%s=%d", sc.Source, sc.Documents))
	}
	fmt.Fprintf(w, "Collection %s: %d chunks, %d passages retrieved (%s)\n",
		r.Collection, r.Chunks, r.Passages, strings.Join(parts, ", "))
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// writeMarkdown prints md, styled for the terminal when render is set.
// Rendering failures fall back to the raw text.
func writeMarkdown(w io.Writer, md string, render bool) error {
	if render {
		width := defaultWrapWidth
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 20 {
			width = cols - 4
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			if out, err := r.Render(md); err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := io.WriteString(w, md)
	if err == nil && !strings.HasSuffix(md, "\n") {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
