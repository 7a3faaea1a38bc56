// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the learning-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/config"
	"github.com/pdiddy/learning-engine/internal/logging"
	"github.com/pdiddy/learning-engine/internal/secrets"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// logger is built from the logging.* settings before any command runs.
	logger = zap.NewNop()
)

// rootCmd is the base command for the learning-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "learning-engine",
	Short: "Build personalised learning reports from public sources",
	Long: `learning-engine gathers material on a topic from Wikipedia, arXiv, YouTube
transcripts and the web, indexes it in a local vector store, and asks a
language model for a structured markdown learning report grounded in the
retrieved passages.

Use report for the full pipeline, fetch to inspect source coverage, index to
manage stored collections, and serve to expose the pipeline as MCP tools.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(types.LoggingConfig{
			Level:       viper.GetString("logging.level"),
			Development: viper.GetBool("logging.development"),
		})
		if err != nil {
			return err
		}
		logger = l

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./learning-engine.yaml or ~/.config/learning-engine/learning-engine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory holding one file per credential")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the vector store")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("index.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	config.Init(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("learning-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "learning-engine"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Reading config file %s: %v\n", cfgFile, err)
	}
}

// loadConfig materialises the layered settings and secrets.
func loadConfig() (types.PipelineConfig, error) {
	return config.Load(viper.GetViper(), loadedSecrets)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
