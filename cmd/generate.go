// Package cmd provides CLI commands for the Scholar application.
// This file implements the generate command for producing agent datasets.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/adalundhe/scholar/core/dataset"
	"github.com/adalundhe/scholar/core/generator"
	"github.com/adalundhe/scholar/core/knowledge"
	"github.com/adalundhe/scholar/core/llm"
	"github.com/adalundhe/scholar/core/profile"
	"github.com/adalundhe/scholar/core/template"
	"github.com/spf13/cobra"
)

// =============================================================================
// Generate Command Flags
// =============================================================================

var (
	generateTemplates    []string
	generateMaxSamples   int
	generateMinRelevance float64
	generateFormat       string
	generateOutputDir    string
	generateDistilabel   bool
	generateProvider     string
	generateJSON         bool
)

// =============================================================================
// Generate Command
// =============================================================================

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate <agent>",
	Short: "Generate a training dataset for an agent",
	Long: `Generate a training dataset for an agent profile.

Knowledge chunks are loaded from the knowledge graph, ranked by
relevance, rendered through prompt templates, and paired with
responses to form dataset samples. One output file is written per
template type.

Examples:
  scholar generate solution_architect
  scholar generate solution_architect --templates question_answer,code_review
  scholar generate solution_architect --max-samples 10 --min-relevance 0.4
  scholar generate solution_architect --format json --output ./out
  scholar generate solution_architect --distilabel`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringSliceVarP(&generateTemplates, "templates", "t", nil, "Template types to generate (default: all suitable)")
	generateCmd.Flags().IntVarP(&generateMaxSamples, "max-samples", "n", 0, "Maximum samples per template (default from config)")
	generateCmd.Flags().Float64VarP(&generateMinRelevance, "min-relevance", "r", 0, "Minimum chunk relevance score (default from config)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "", "Output format: jsonl or json (default from config)")
	generateCmd.Flags().StringVarP(&generateOutputDir, "output", "o", "", "Output directory (default from config)")
	generateCmd.Flags().BoolVar(&generateDistilabel, "distilabel", false, "Also export a combined distilabel-format file")
	generateCmd.Flags().StringVar(&generateProvider, "provider", "", "Response provider: static, anthropic, or openai (default from config)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output as JSON")
}

// =============================================================================
// Generate Execution
// =============================================================================

// generateOutput is the JSON output for generate.
type generateOutput struct {
	AgentName    string                              `json:"agent_name"`
	TotalSamples int                                 `json:"total_samples"`
	ByTemplate   map[string]*generator.TemplateStats `json:"by_template"`
	Files        []string                            `json:"files"`
	Distilabel   string                              `json:"distilabel_file,omitempty"`
	Duration     string                              `json:"duration"`
}

// runGenerate produces and saves the dataset for one agent.
func runGenerate(cmd *cobra.Command, args []string) error {
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

	if generateProvider != "" {
		cfg.LLM.Provider = generateProvider
	}

	prof, err := profile.NewStore(cfg.Paths.ProfilesDir, logger).Get(args[0])
	if err != nil {
		return err
	}

	registry := template.NewRegistry(cfg.Paths.TemplatesDir, logger)
	if err := registry.Load(); err != nil {
		return err
	}

	store, err := knowledge.OpenStore(cfg.Paths.GraphDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	responder, err := llm.NewResponder(cfg.LLM)
	if err != nil {
		return err
	}

	opts := generator.Options{
		TemplateTypes:         generateTemplates,
		MaxSamplesPerTemplate: cfg.Generation.MaxSamplesPerTemplate,
		MinRelevanceScore:     cfg.Generation.MinRelevanceScore,
	}
	if generateMaxSamples > 0 {
		opts.MaxSamplesPerTemplate = generateMaxSamples
	}
	if generateMinRelevance > 0 {
		opts.MinRelevanceScore = generateMinRelevance
	}

	format := cfg.Generation.OutputFormat
	if generateFormat != "" {
		format = strings.ToLower(generateFormat)
	}
	outputDir := cfg.Paths.OutputDir
	if generateOutputDir != "" {
		outputDir = generateOutputDir
	}

	if err := dataset.ValidateFormat(format); err != nil {
		return err
	}

	if !generateJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%sGenerating Dataset%s\n", colorBold, colorCyan, colorReset)
		fmt.Fprintf(cmd.OutOrStdout(), "%sAgent:%s  %s (%s)\n", colorGray, colorReset, prof.Name, prof.Role.Title)
		fmt.Fprintf(cmd.OutOrStdout(), "%sOutput:%s %s\n", colorGray, colorReset, outputDir)
		fmt.Fprintln(cmd.OutOrStdout())
	}

	startTime := time.Now()

	batches, stats, err := generator.New(store, registry, responder, logger).
		GenerateAgentDataset(ctx, prof, opts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	writer, err := dataset.NewWriter(outputDir, logger)
	if err != nil {
		return err
	}

	files, err := writer.SaveBatches(batches, format)
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	result := &generateOutput{
		AgentName:    prof.Name,
		TotalSamples: stats.TotalSamples,
		ByTemplate:   stats.ByTemplate,
		Files:        files,
		Duration:     time.Since(startTime).Round(time.Millisecond).String(),
	}

	if generateDistilabel && len(batches) > 0 {
		path, err := writer.ExportDistilabel(batches, prof.Name+"_distilabel.jsonl")
		if err != nil {
			return fmt.Errorf("distilabel export failed: %w", err)
		}
		result.Distilabel = path
	}

	return outputGenerateResult(cmd.OutOrStdout(), result)
}

// outputGenerateResult outputs the generation result.
func outputGenerateResult(w io.Writer, result *generateOutput) error {
	if generateJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(w, "%s%sGeneration Complete%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sTotal Samples:%s %s%d%s\n", colorGray, colorReset, colorGreen, result.TotalSamples, colorReset)

	templateTypes := make([]string, 0, len(result.ByTemplate))
	for templateType := range result.ByTemplate {
		templateTypes = append(templateTypes, templateType)
	}
	sort.Strings(templateTypes)

	for _, templateType := range templateTypes {
		ts := result.ByTemplate[templateType]
		line := fmt.Sprintf("%s%s:%s %d succeeded", colorGray, templateType, colorReset, ts.Succeeded)
		if ts.Skipped > 0 {
			line += fmt.Sprintf("  %s%d skipped%s", colorYellow, ts.Skipped, colorReset)
		}
		fmt.Fprintf(w, "  %s\n", line)
	}

	if len(result.Files) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sFiles:%s\n", colorGray, colorReset)
		for _, file := range result.Files {
			fmt.Fprintf(w, "  %s%s%s\n", colorGreen, file, colorReset)
		}
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sNo samples generated. Extract knowledge first with 'scholar extract'.%s\n", colorYellow, colorReset)
	}

	if result.Distilabel != "" {
		fmt.Fprintf(w, "  %s%s%s\n", colorGreen, result.Distilabel, colorReset)
	}

	fmt.Fprintf(w, "%sDuration:%s %s\n", colorGray, colorReset, result.Duration)

	return nil
}
