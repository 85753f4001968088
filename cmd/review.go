// Package cmd provides CLI commands for the Scholar application.
// This file implements the review command for the human annotation bridge.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/adalundhe/scholar/core/dataset"
	"github.com/adalundhe/scholar/core/review"
	"github.com/spf13/cobra"
)

// =============================================================================
// Review Command Flags
// =============================================================================

var reviewJSON bool

// =============================================================================
// Review Command
// =============================================================================

// reviewCmd represents the review command.
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Exchange datasets with the annotation platform",
	Long: `Exchange datasets with the external annotation platform and analyze
the returned annotations.

Subcommands:
  upload    - Upload a dataset for human review
  download  - Download an annotated dataset
  analyze   - Summarize annotation quality for a dataset file

Examples:
  scholar review upload datasets/solution_architect_question_answer.jsonl sa_qa_v1
  scholar review download sa_qa_v1 datasets/sa_qa_v1_annotated.jsonl
  scholar review analyze datasets/sa_qa_v1_annotated.jsonl`,
}

// reviewUploadCmd uploads a dataset for review.
var reviewUploadCmd = &cobra.Command{
	Use:   "upload <dataset-path> <dataset-name>",
	Short: "Upload a dataset for human review",
	Args:  cobra.ExactArgs(2),
	RunE:  runReviewUpload,
}

// reviewDownloadCmd downloads an annotated dataset.
var reviewDownloadCmd = &cobra.Command{
	Use:   "download <dataset-name> <output-path>",
	Short: "Download an annotated dataset",
	Args:  cobra.ExactArgs(2),
	RunE:  runReviewDownload,
}

// reviewAnalyzeCmd summarizes annotation quality.
var reviewAnalyzeCmd = &cobra.Command{
	Use:   "analyze <dataset-path>",
	Short: "Summarize annotation quality for a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewAnalyze,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.AddCommand(reviewUploadCmd)
	reviewCmd.AddCommand(reviewDownloadCmd)
	reviewCmd.AddCommand(reviewAnalyzeCmd)

	reviewCmd.PersistentFlags().BoolVar(&reviewJSON, "json", false, "Output as JSON")
}

// newBridge builds the annotation bridge from configuration.
func newBridge() (*review.CommandBridge, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return review.NewCommandBridge(review.CommandConfig{
		UploadCommand:   cfg.Review.UploadCommand,
		DownloadCommand: cfg.Review.DownloadCommand,
		Timeout:         cfg.Review.Timeout,
	}, newLogger())
}

// =============================================================================
// Review Upload / Download
// =============================================================================

// runReviewUpload uploads one dataset file.
func runReviewUpload(cmd *cobra.Command, args []string) error {
	bridge, err := newBridge()
	if err != nil {
		return err
	}

	datasetPath, datasetName := args[0], args[1]
	if err := bridge.Upload(context.Background(), datasetPath, datasetName); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if reviewJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"uploaded": datasetPath, "dataset": datasetName})
	}

	fmt.Fprintf(w, "%sUploaded%s %s as %s%s%s\n", colorGreen, colorReset, datasetPath, colorBold, datasetName, colorReset)
	return nil
}

// runReviewDownload downloads one annotated dataset.
func runReviewDownload(cmd *cobra.Command, args []string) error {
	bridge, err := newBridge()
	if err != nil {
		return err
	}

	datasetName, outputPath := args[0], args[1]
	if err := bridge.Download(context.Background(), datasetName, outputPath); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if reviewJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"dataset": datasetName, "output": outputPath})
	}

	fmt.Fprintf(w, "%sDownloaded%s %s to %s\n", colorGreen, colorReset, datasetName, outputPath)
	return nil
}

// =============================================================================
// Review Analyze
// =============================================================================

// runReviewAnalyze loads an annotated dataset file and summarizes quality.
func runReviewAnalyze(cmd *cobra.Command, args []string) error {
	samples, err := dataset.LoadSamples(args[0])
	if err != nil {
		return err
	}

	analysis := dataset.AnalyzeAnnotations(samples)
	w := cmd.OutOrStdout()

	if reviewJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(analysis)
	}

	fmt.Fprintf(w, "%s%sAnnotation Analysis%s (%s)\n", colorBold, colorCyan, colorReset, args[0])
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sTotal Samples:%s     %d\n", colorGray, colorReset, analysis.TotalSamples)
	fmt.Fprintf(w, "%sAnnotated:%s         %d\n", colorGray, colorReset, analysis.AnnotatedSamples)
	fmt.Fprintf(w, "%sAvg Quality:%s       %.2f\n", colorGray, colorReset, analysis.AvgQualityScore)

	if len(analysis.QualityDistribution) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sQuality Distribution:%s\n", colorGray, colorReset)
		labels := make([]string, 0, len(analysis.QualityDistribution))
		for label := range analysis.QualityDistribution {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "  %s%-10s%s %d\n", colorBlue, label, colorReset, analysis.QualityDistribution[label])
		}
	}

	printQualityStats(w, "By Template", analysis.TemplateQuality)
	printQualityStats(w, "By Agent", analysis.AgentQuality)

	if len(analysis.LowQualitySamples) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sLow Quality Samples:%s\n", colorYellow, colorReset)
		for _, sample := range analysis.LowQualitySamples {
			fmt.Fprintf(w, "  %s%s%s  score=%d  relevance=%.2f  (%s)\n",
				colorRed, sample.ID, colorReset, sample.QualityScore, sample.RelevanceScore, sample.TemplateType)
		}
	}

	return nil
}

// printQualityStats prints per-key quality averages in sorted key order.
func printQualityStats(w io.Writer, label string, stats map[string]*dataset.QualityStats) {
	if len(stats) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s:%s\n", colorGray, label, colorReset)

	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		qs := stats[key]
		fmt.Fprintf(w, "  %s%-24s%s avg=%.2f  n=%d\n", colorBlue, key, colorReset, qs.AvgScore, qs.SampleCount)
	}
}
