// Package cmd provides CLI commands for the Scholar application.
// This file implements the profiles command for inspecting agent profiles.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adalundhe/scholar/core/profile"
	"github.com/spf13/cobra"
)

// =============================================================================
// Profiles Command Flags
// =============================================================================

var profilesJSON bool

// =============================================================================
// Profiles Command
// =============================================================================

// profilesCmd represents the profiles command.
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect agent profiles",
	Long: `Inspect the agent profiles available for dataset generation.

Subcommands:
  list      - List available profiles
  show      - Show a profile in detail
  validate  - Validate all profiles

Examples:
  scholar profiles list
  scholar profiles show solution_architect
  scholar profiles validate`,
	RunE: runProfilesList,
}

// profilesListCmd lists available profiles.
var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	RunE:  runProfilesList,
}

// profilesShowCmd shows one profile in detail.
var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesShow,
}

// profilesValidateCmd validates every profile in the directory.
var profilesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate all profiles",
	Long:  `Load every profile in the profiles directory and report the ones that fail validation.`,
	RunE:  runProfilesValidate,
}

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesValidateCmd)

	profilesCmd.PersistentFlags().BoolVar(&profilesJSON, "json", false, "Output as JSON")
}

// =============================================================================
// Profiles List
// =============================================================================

// runProfilesList lists the available profile names.
func runProfilesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := profile.NewStore(cfg.Paths.ProfilesDir, newLogger())
	names, err := store.List()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if profilesJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"profiles": names})
	}

	fmt.Fprintf(w, "%s%sAgent Profiles%s (%s)\n", colorBold, colorCyan, colorReset, cfg.Paths.ProfilesDir)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)

	if len(names) == 0 {
		fmt.Fprintf(w, "%sNo profiles found.%s\n", colorYellow, colorReset)
		return nil
	}

	for _, name := range names {
		prof, err := store.Get(name)
		if err != nil {
			fmt.Fprintf(w, "  %s%s%s  %s%v%s\n", colorRed, name, colorReset, colorGray, err, colorReset)
			continue
		}
		fmt.Fprintf(w, "  %s%s%s  %s%s%s\n", colorGreen, name, colorReset, colorGray, prof.Role.Title, colorReset)
	}

	return nil
}

// =============================================================================
// Profiles Show
// =============================================================================

// runProfilesShow displays one profile in full.
func runProfilesShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prof, err := profile.NewStore(cfg.Paths.ProfilesDir, newLogger()).Get(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if profilesJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(prof)
	}

	fmt.Fprintf(w, "%s%s%s%s\n", colorBold, colorCyan, prof.Name, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sRole:%s         %s\n", colorGray, colorReset, prof.Role.Title)
	if prof.Role.Description != "" {
		fmt.Fprintf(w, "%sDescription:%s  %s\n", colorGray, colorReset, prof.Role.Description)
	}
	printList(w, "Technologies", prof.Technologies)
	printList(w, "Focus Areas", prof.FocusAreas)
	printList(w, "File Patterns", prof.FilePatterns)
	printList(w, "Exclude", prof.ExcludePatterns)

	if len(prof.KnowledgeFilters) > 0 {
		fmt.Fprintf(w, "%sKnowledge Filters:%s\n", colorGray, colorReset)
		for category, keywords := range prof.KnowledgeFilters {
			fmt.Fprintf(w, "  %s%s:%s %s\n", colorBlue, category, colorReset, strings.Join(keywords, ", "))
		}
	}

	if len(prof.KnowledgeSources) > 0 {
		fmt.Fprintf(w, "%sKnowledge Sources:%s\n", colorGray, colorReset)
		for sourceType, sources := range prof.KnowledgeSources {
			for _, source := range sources {
				fmt.Fprintf(w, "  %s%s%s %s\n", colorBlue, sourceType, colorReset, source)
			}
		}
	}

	return nil
}

// printList prints a labeled comma-joined list, skipping empty lists.
func printList(w io.Writer, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(w, "%s%s:%s %s\n", colorGray, label, colorReset, strings.Join(values, ", "))
}

// =============================================================================
// Profiles Validate
// =============================================================================

// profilesValidateOutput is the JSON output for validate.
type profilesValidateOutput struct {
	Valid   []string          `json:"valid"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

// runProfilesValidate loads every profile and reports failures.
func runProfilesValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := profile.NewStore(cfg.Paths.ProfilesDir, newLogger())
	names, err := store.List()
	if err != nil {
		return err
	}

	result := &profilesValidateOutput{
		Valid:   make([]string, 0, len(names)),
		Invalid: make(map[string]string),
	}

	for _, name := range names {
		if _, err := store.Get(name); err != nil {
			result.Invalid[name] = err.Error()
			continue
		}
		result.Valid = append(result.Valid, name)
	}

	w := cmd.OutOrStdout()

	if profilesJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%s%sProfile Validation%s\n", colorBold, colorCyan, colorReset)
		fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
		for _, name := range result.Valid {
			fmt.Fprintf(w, "  %s✓%s %s\n", colorGreen, colorReset, name)
		}
		for name, problem := range result.Invalid {
			fmt.Fprintf(w, "  %s✗%s %s: %s\n", colorRed, colorReset, name, problem)
		}
	}

	if len(result.Invalid) > 0 {
		return fmt.Errorf("%d profile(s) failed validation", len(result.Invalid))
	}
	return nil
}
