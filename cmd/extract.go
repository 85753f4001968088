// Package cmd provides CLI commands for the Scholar application.
// This file implements the extract command for building the knowledge graph.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adalundhe/scholar/core/extract"
	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/adalundhe/scholar/core/profile"
	"github.com/spf13/cobra"
)

// =============================================================================
// Extract Command Flags
// =============================================================================

var (
	extractAgent       string
	extractCloneDepth  int
	extractTimeout     time.Duration
	extractMaxFileSize int64
	extractWatch       bool
	extractJSON        bool
)

// =============================================================================
// Extract Command
// =============================================================================

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract <source>",
	Short: "Extract knowledge from a source into the knowledge graph",
	Long: `Extract knowledge chunks from a source and store them in the
knowledge graph, filtered and scored for one agent profile.

The source may be a local directory or a git repository URL. Git
repositories are shallow-cloned to a temporary directory and removed
after extraction.

Examples:
  scholar extract ./my-project --agent solution_architect
  scholar extract https://github.com/example/repo --agent solution_architect
  scholar extract ./my-project --agent solution_architect --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractAgent, "agent", "a", "", "Agent profile name (required)")
	extractCmd.Flags().IntVar(&extractCloneDepth, "depth", 0, "Git clone depth (default from config)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 0, "Git clone timeout (default from config)")
	extractCmd.Flags().Int64Var(&extractMaxFileSize, "max-file-size", 0, "Skip files larger than this, in bytes (default from config)")
	extractCmd.Flags().BoolVarP(&extractWatch, "watch", "w", false, "Re-extract when files change (local sources only)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Output as JSON")

	extractCmd.MarkFlagRequired("agent")
}

// =============================================================================
// Extract Execution
// =============================================================================

// extractOutput is the JSON output for extract.
type extractOutput struct {
	SessionID   string `json:"session_id"`
	SourceID    string `json:"source_id"`
	SourceType  string `json:"source_type"`
	AgentName   string `json:"agent_name"`
	TotalChunks int    `json:"total_chunks"`
	TotalTokens int    `json:"total_tokens"`
	Duration    string `json:"duration"`
}

// runExtract extracts one source and stores the result.
func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(cmd.OutOrStderr(), "\nInterrupted. Cleaning up...")
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	prof, err := profile.NewStore(cfg.Paths.ProfilesDir, logger).Get(extractAgent)
	if err != nil {
		return err
	}

	if extractCloneDepth > 0 {
		cfg.Extraction.CloneDepth = extractCloneDepth
	}
	if extractTimeout > 0 {
		cfg.Extraction.CloneTimeout = extractTimeout
	}
	if extractMaxFileSize > 0 {
		cfg.Extraction.MaxFileSize = extractMaxFileSize
	}

	if dir := filepath.Dir(cfg.Paths.GraphDB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create graph directory: %w", err)
		}
	}

	graph, err := graphdb.Open(cfg.Paths.GraphDB)
	if err != nil {
		return err
	}
	defer graph.Close()

	source := args[0]
	local := extract.NewLocalExtractor(extract.LocalConfig{
		MaxFileSize: cfg.Extraction.MaxFileSize,
	}, logger)

	if extractWatch {
		if !local.ValidateSource(source) {
			return fmt.Errorf("watch mode requires a local directory: %s", source)
		}
		return runExtractWatch(ctx, cmd.OutOrStdout(), source, prof, local, graph)
	}

	var extractor extract.Extractor = local
	git := extract.NewGitExtractor(extract.GitConfig{
		CloneDepth:   cfg.Extraction.CloneDepth,
		CloneTimeout: cfg.Extraction.CloneTimeout,
		MaxFileSize:  cfg.Extraction.MaxFileSize,
	}, logger)
	if git.ValidateSource(source) {
		extractor = git
	}

	if !extractJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%sExtracting Knowledge%s\n", colorBold, colorCyan, colorReset)
		fmt.Fprintf(cmd.OutOrStdout(), "%sSource:%s %s\n", colorGray, colorReset, source)
		fmt.Fprintf(cmd.OutOrStdout(), "%sAgent:%s  %s\n", colorGray, colorReset, prof.Name)
		fmt.Fprintln(cmd.OutOrStdout())
	}

	startTime := time.Now()

	result, err := extractor.Extract(ctx, source, prof)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	sessionID, err := extract.StoreResult(graph, result, prof, logger)
	if err != nil {
		return fmt.Errorf("failed to store extraction result: %w", err)
	}

	output := &extractOutput{
		SessionID:   sessionID,
		SourceID:    result.SourceID,
		SourceType:  result.SourceType,
		AgentName:   prof.Name,
		TotalChunks: result.TotalChunks,
		TotalTokens: result.TotalTokens,
		Duration:    time.Since(startTime).Round(time.Millisecond).String(),
	}

	return outputExtractResult(cmd.OutOrStdout(), output)
}

// runExtractWatch extracts once, then re-extracts on file changes until
// interrupted.
func runExtractWatch(ctx context.Context, w io.Writer, source string, prof *profile.AgentProfile, local *extract.LocalExtractor, graph *graphdb.GraphDB) error {
	if !extractJSON {
		fmt.Fprintf(w, "%s%sWatch Mode%s - Press Ctrl+C to stop\n", colorBold, colorCyan, colorReset)
		fmt.Fprintf(w, "%sWatching:%s %s\n", colorGray, colorReset, source)
		fmt.Fprintln(w)
	}

	watcher := extract.NewWatcher(extract.WatchConfig{Source: source}, prof, local, graph, newLogger())

	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "\nWatch mode stopped.")
		return nil
	}
	return err
}

// outputExtractResult outputs the extraction result.
func outputExtractResult(w io.Writer, output *extractOutput) error {
	if extractJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	fmt.Fprintf(w, "%s%sExtraction Complete%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sSession:%s %s\n", colorGray, colorReset, output.SessionID)
	fmt.Fprintf(w, "%sSource:%s  %s (%s)\n", colorGray, colorReset, output.SourceID, output.SourceType)
	fmt.Fprintf(w, "%sChunks:%s  %s%d%s\n", colorGray, colorReset, colorGreen, output.TotalChunks, colorReset)
	fmt.Fprintf(w, "%sTokens:%s  %d\n", colorGray, colorReset, output.TotalTokens)
	fmt.Fprintf(w, "%sDuration:%s %s\n", colorGray, colorReset, output.Duration)

	if output.TotalChunks == 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sNo relevant chunks found. Check the agent's file patterns and knowledge filters.%s\n", colorYellow, colorReset)
	}

	return nil
}
