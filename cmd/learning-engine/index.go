// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/index"
	"github.com/pdiddy/learning-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage stored collections (list, retrieve, export, drop)",
	Long: `Index manages the local SQLite vector store. Each report run writes its
chunks to a collection; use subcommands to inspect, query, export or remove
them.`,
}

// --- list subcommand ---

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections with their chunk counts",
	RunE:  runIndexList,
}

func runIndexList(cmd *cobra.Command, args []string) error {
	store, err := storeFromConfig(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.Collections(cmd.Context())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatCollections(os.Stdout, infos, jsonOutput)
}

func formatCollections(w io.Writer, infos []index.CollectionInfo, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "No collections.")
		return nil
	}

	fmt.Fprintf(w, "%-40s  %-30s  %6s  %s\n", "Collection", "Embedder", "Chunks", "Created")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, ci := range infos {
		fmt.Fprintf(w, "%-40s  %-30s  %6d  %s\n", ellipsize(ci.Name, 40), ellipsize(ci.Embedder, 30), ci.Chunks, ci.CreatedAt)
	}
	return nil
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the passages of a collection most similar to a query",
	RunE:  runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	collection, _ := cmd.Flags().GetString("collection")
	if collection == "" {
		return fmt.Errorf("--collection is required")
	}
	query := strings.Join(args, " ")
	if query == "" {
		return fmt.Errorf("provide a query")
	}

	store, err := storeFromConfig(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	k, _ := cmd.Flags().GetInt("k")
	if k <= 0 {
		k = 10
	}
	hits, err := store.Query(cmd.Context(), collection, query, k)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHits(os.Stdout, hits, jsonOutput)
}

func formatHits(w io.Writer, hits []types.ScoredChunk, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-16s  %-30s  %s\n", "Rank", "Score", "Source", "Title", "Text")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, h := range hits {
		text := strings.Join(strings.Fields(h.Chunk.Text), " ")
		fmt.Fprintf(w, "%-4d  %6.3f  %-16s  %-30s  %s\n",
			i+1, h.Score, h.Chunk.Source, ellipsize(h.Chunk.Title, 30), ellipsize(text, 50))
	}
	fmt.Fprintf(w, "\n%d results\n", len(hits))
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a collection to YAML or JSON",
	RunE:  runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	collection, _ := cmd.Flags().GetString("collection")
	if collection == "" {
		return fmt.Errorf("--collection is required")
	}
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := storeFromConfig(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = store.ExportYAML(cmd.Context(), collection, w)
	case "json":
		err = store.ExportJSON(cmd.Context(), collection, w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported %s to %s\n", collection, outPath)
	}
	return nil
}

// --- drop subcommand ---

var indexDropCmd = &cobra.Command{
	Use:   "drop [collection...]",
	Short: "Delete collections and their chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexDrop,
}

func runIndexDrop(cmd *cobra.Command, args []string) error {
	store, err := storeFromConfig(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range args {
		if err := store.Drop(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Dropped %s\n", name)
	}
	return nil
}

// --- shared helpers ---

func storeFromConfig(cmd *cobra.Command) (*index.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(cmd.Context(), cfg)
}

func init() {
	indexListCmd.Flags().Bool("json", false, "output collections as JSON")

	indexRetrieveCmd.Flags().String("collection", "", "collection to query")
	indexRetrieveCmd.Flags().Int("k", 10, "maximum number of passages")
	indexRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	indexExportCmd.Flags().String("collection", "", "collection to export")
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().String("out", "", "write to this file instead of stdout")

	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexRetrieveCmd)
	indexCmd.AddCommand(indexExportCmd)
	indexCmd.AddCommand(indexDropCmd)

	rootCmd.AddCommand(indexCmd)
}
