// Package cmd provides CLI commands for the Scholar application.
// This file implements the root command and shared helpers.
package cmd

import (
	"log/slog"
	"os"

	"github.com/adalundhe/scholar/core/config"
	"github.com/spf13/cobra"
)

// =============================================================================
// Constants
// =============================================================================

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// DefaultConfigPath is the default configuration file location.
const DefaultConfigPath = "scholar.yaml"

// =============================================================================
// Root Command
// =============================================================================

var (
	rootConfigPath string
	rootVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "scholar",
	Short: "Scholar - A training dataset generation pipeline",
	Long: `Scholar builds training datasets for specialized AI agents.

It extracts knowledge from codebases into a local knowledge graph,
renders prompt templates against agent profiles and knowledge chunks,
and serializes the resulting samples for fine-tuning and review.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Verbose output")
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadConfig loads the configuration file named by --config, falling back
// to defaults plus environment overrides when the file is absent.
func loadConfig() (*config.Config, error) {
	manager := config.NewManager(rootConfigPath)
	if err := manager.Load(); err != nil {
		return nil, err
	}
	return manager.Get(), nil
}

// newLogger builds the command logger. Logs go to stderr so stdout stays
// clean for --json output.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if rootVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
