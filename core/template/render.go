package template

import (
	"strings"
)

// Section headers assembled into the rendered prompt, in block order.
var sectionHeaders = []string{
	"# System Prompt",
	"# Knowledge Context",
	"# Task",
	"# Expected Response Format",
}

// Rendered is the outcome of rendering a template against one variable set.
type Rendered struct {
	Prompt         string
	ResponseFormat string
}

// Render binds the template against vars and assembles the prompt.
// Binding is strict over the declared variable list: every declared
// variable must resolve or the whole render fails with a binding error.
// Substitution points for undeclared variables that happen to resolve are
// filled too; unresolvable undeclared ones are left literal, matching the
// safe-substitution behavior of the configuration format.
func (t *Template) Render(vars Vars) (*Rendered, error) {
	// Strict pass over declared variables first, so a missing binding
	// fails before any text is produced.
	for _, name := range t.Variables {
		if _, err := vars.Resolve(name); err != nil {
			return nil, err
		}
	}

	var sections []string
	for i, block := range t.blocks() {
		if block == "" {
			continue
		}
		filled := fill(block, vars)
		sections = append(sections, sectionHeaders[i]+"\n"+filled)
	}

	return &Rendered{
		Prompt:         strings.Join(sections, "\n\n"),
		ResponseFormat: fill(t.ResponseFormat, vars),
	}, nil
}

// fill replaces every resolvable {variable} occurrence in text.
func fill(text string, vars Vars) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		value, err := vars.Resolve(name)
		if err != nil {
			return match
		}
		return value
	})
}
