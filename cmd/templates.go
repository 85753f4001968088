// Package cmd provides CLI commands for the Scholar application.
// This file implements the templates command for inspecting prompt templates.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adalundhe/scholar/core/template"
	"github.com/spf13/cobra"
)

// =============================================================================
// Templates Command Flags
// =============================================================================

var templatesJSON bool

// =============================================================================
// Templates Command
// =============================================================================

// templatesCmd represents the templates command.
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect prompt templates",
	Long: `Inspect the prompt templates used for dataset generation.

Subcommands:
  list  - List registered template types
  show  - Show a template's blocks and variables

Examples:
  scholar templates list
  scholar templates show question_answer`,
	RunE: runTemplatesList,
}

// templatesListCmd lists registered template types.
var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered template types",
	RunE:  runTemplatesList,
}

// templatesShowCmd shows one template in detail.
var templatesShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show a template's blocks and variables",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)

	templatesCmd.PersistentFlags().BoolVar(&templatesJSON, "json", false, "Output as JSON")
}

// loadRegistry loads the template registry from the configured directory.
func loadRegistry() (*template.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	registry := template.NewRegistry(cfg.Paths.TemplatesDir, newLogger())
	if err := registry.Load(); err != nil {
		return nil, err
	}
	return registry, nil
}

// =============================================================================
// Templates List
// =============================================================================

// runTemplatesList lists template types with their descriptions.
func runTemplatesList(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	types := registry.ListTypes()
	w := cmd.OutOrStdout()

	if templatesJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"templates": types})
	}

	fmt.Fprintf(w, "%s%sPrompt Templates%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)

	if len(types) == 0 {
		fmt.Fprintf(w, "%sNo templates registered.%s\n", colorYellow, colorReset)
		return nil
	}

	for _, templateType := range types {
		tmpl, err := registry.Get(templateType)
		if err != nil {
			fmt.Fprintf(w, "  %s%s%s\n", colorRed, templateType, colorReset)
			continue
		}
		fmt.Fprintf(w, "  %s%s%s  %s%s%s\n", colorGreen, templateType, colorReset, colorGray, tmpl.Description, colorReset)
	}

	return nil
}

// =============================================================================
// Templates Show
// =============================================================================

// runTemplatesShow displays one template in full.
func runTemplatesShow(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	tmpl, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if templatesJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tmpl)
	}

	fmt.Fprintf(w, "%s%s%s%s\n", colorBold, colorCyan, tmpl.TemplateType, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	if tmpl.Description != "" {
		fmt.Fprintf(w, "%sDescription:%s %s\n", colorGray, colorReset, tmpl.Description)
	}
	if len(tmpl.ContentTypes) > 0 {
		fmt.Fprintf(w, "%sContent Types:%s %s\n", colorGray, colorReset, strings.Join(tmpl.ContentTypes, ", "))
	}
	fmt.Fprintf(w, "%sVariables:%s %s\n", colorGray, colorReset, strings.Join(tmpl.Variables, ", "))

	printBlock(w, "System Prompt", tmpl.SystemPrompt)
	printBlock(w, "Knowledge Context", tmpl.KnowledgeContext)
	printBlock(w, "Task Instruction", tmpl.TaskInstruction)
	printBlock(w, "Response Format", tmpl.ResponseFormat)

	return nil
}

// printBlock prints one labeled template block.
func printBlock(w io.Writer, label, content string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s%s\n", colorBlue, label, colorReset)
	fmt.Fprintln(w, strings.TrimSpace(content))
}
