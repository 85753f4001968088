// Package cmd provides CLI commands for the Scholar application.
// This file implements the graph command for inspecting the knowledge graph.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/spf13/cobra"
)

// =============================================================================
// Graph Command Flags
// =============================================================================

var (
	graphAgent string
	graphJSON  bool
)

// =============================================================================
// Graph Command
// =============================================================================

// graphCmd represents the graph command.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the knowledge graph",
	Long: `Inspect the knowledge graph built by extraction.

Subcommands:
  stats  - Show node, relationship, and session counts

Examples:
  scholar graph stats
  scholar graph stats --agent solution_architect`,
	RunE: runGraphStats,
}

// graphStatsCmd shows graph statistics.
var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node, relationship, and session counts",
	RunE:  runGraphStats,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.AddCommand(graphStatsCmd)

	graphCmd.PersistentFlags().StringVarP(&graphAgent, "agent", "a", "", "Scope session counts to one agent")
	graphCmd.PersistentFlags().BoolVar(&graphJSON, "json", false, "Output as JSON")
}

// =============================================================================
// Graph Stats
// =============================================================================

// runGraphStats collects and displays graph statistics.
func runGraphStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	graph, err := graphdb.OpenExisting(cfg.Paths.GraphDB)
	if err != nil {
		return err
	}
	defer graph.Close()

	stats, err := graph.CollectStats(graphAgent)
	if err != nil {
		return fmt.Errorf("failed to collect graph stats: %w", err)
	}

	w := cmd.OutOrStdout()

	if graphJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	}

	fmt.Fprintf(w, "%s%sKnowledge Graph%s (%s)\n", colorBold, colorCyan, colorReset, cfg.Paths.GraphDB)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)

	printCounts(w, "Nodes", stats.NodeCounts)
	printCounts(w, "Relationships", stats.RelationshipCounts)

	if graphAgent != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sAgent:%s %s%s%s\n", colorGray, colorReset, colorBold, graphAgent, colorReset)
		fmt.Fprintf(w, "  %sSessions:%s %d\n", colorGray, colorReset, stats.AgentSessions)
		fmt.Fprintf(w, "  %sChunks:%s   %d\n", colorGray, colorReset, stats.AgentChunks)
		fmt.Fprintf(w, "  %sTokens:%s   %d\n", colorGray, colorReset, stats.AgentTokens)
	}

	return nil
}

// printCounts prints a labeled count table in sorted key order.
func printCounts(w io.Writer, label string, counts map[string]int64) {
	fmt.Fprintf(w, "%s%s:%s\n", colorGray, label, colorReset)

	if len(counts) == 0 {
		fmt.Fprintf(w, "  %snone%s\n", colorYellow, colorReset)
		return
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "  %s%-18s%s %d\n", colorBlue, key, colorReset, counts[key])
	}
}
