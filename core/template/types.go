// Package template implements the prompt template registry and renderer.
// Templates are parameterized text blocks loaded from YAML; rendering binds
// dotted-path variables against an explicit nested mapping and is strict:
// a declared variable with no resolvable value is an error, never a
// placeholder left in the output.
package template

import "regexp"

// ContentTypeAll marks a template that accepts any chunk.
const ContentTypeAll = "all"

// ContentTypeCode marks a template that only consumes chunks whose language
// is a recognized programming language.
const ContentTypeCode = "code"

// Template is one prompt template: four parameterized text blocks plus the
// declared substitution variables that must resolve before rendering
// succeeds. Loaded once, shared read-only across all generation calls.
type Template struct {
	TemplateType     string   `yaml:"template_type" json:"template_type"`
	Description      string   `yaml:"description" json:"description"`
	SystemPrompt     string   `yaml:"system_prompt" json:"system_prompt"`
	KnowledgeContext string   `yaml:"knowledge_context" json:"knowledge_context"`
	TaskInstruction  string   `yaml:"task_instruction" json:"task_instruction"`
	ResponseFormat   string   `yaml:"response_format" json:"response_format"`
	Variables        []string `yaml:"variables" json:"variables"`

	// ContentTypes restricts which chunks the template consumes.
	// Empty means all.
	ContentTypes []string `yaml:"content_types" json:"content_types,omitempty"`
}

// varPattern matches {variable} substitution points, including dotted
// names such as {role.title}.
var varPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// blocks returns the four text blocks in render order.
func (t *Template) blocks() []string {
	return []string{t.SystemPrompt, t.KnowledgeContext, t.TaskInstruction, t.ResponseFormat}
}

// DeclaresVariable reports whether name is in the template's variable list.
func (t *Template) DeclaresVariable(name string) bool {
	for _, v := range t.Variables {
		if v == name {
			return true
		}
	}
	return false
}

// AcceptsContentType reports whether the template consumes chunks of the
// given content type.
func (t *Template) AcceptsContentType(contentType string) bool {
	if len(t.ContentTypes) == 0 {
		return true
	}
	for _, ct := range t.ContentTypes {
		if ct == ContentTypeAll || ct == contentType {
			return true
		}
	}
	return false
}

// CodeOnly reports whether the template restricts itself to code chunks.
func (t *Template) CodeOnly() bool {
	if len(t.ContentTypes) == 0 {
		return false
	}
	for _, ct := range t.ContentTypes {
		if ct == ContentTypeAll {
			return false
		}
		if ct != ContentTypeCode {
			return false
		}
	}
	return true
}
