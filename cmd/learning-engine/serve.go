// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/index"
	"github.com/pdiddy/learning-engine/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline as MCP tools over stdio",
	Long: `Serve starts a Model Context Protocol server on stdin/stdout with two
tools: generate_learning_report runs the full pipeline, and
retrieve_passages queries an existing collection. Logs go to stderr.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := mcpserver.New(&mcpserver.Ports{
		Reporter:  a.orchestrator,
		Retriever: index.NewRetriever(a.store),
		DefaultK:  cfg.Index.RetrievalK,
	}, version)
	if err != nil {
		return err
	}

	logger.Info("serving MCP over stdio", zap.String("version", version))
	return srv.Run(cmd.Context())
}
