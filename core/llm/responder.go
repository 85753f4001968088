// Package llm produces the expected-response half of a training sample.
// The static responder keeps generation deterministic and offline; the
// Anthropic and OpenAI responders delegate to hosted models.
package llm

import (
	"context"
	"strings"
)

// Provider identifiers accepted in configuration.
const (
	ProviderStatic    = "static"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Request carries everything a responder needs to produce an expected
// response for one sample.
type Request struct {
	// Prompt is the fully rendered training prompt.
	Prompt string
	// SystemPrompt is the agent's identity context.
	SystemPrompt string
	// TemplateType selects the response shape for the static responder.
	TemplateType string

	RoleTitle    string
	Technologies []string
	FocusAreas   []string
	// Language is the programming language of the knowledge chunk.
	Language string
}

// Responder produces the expected response for a rendered prompt.
type Responder interface {
	Name() string
	Respond(ctx context.Context, req *Request) (string, error)
}

// joinFirst joins at most n values with commas.
func joinFirst(values []string, n int) string {
	if len(values) > n {
		values = values[:n]
	}
	return strings.Join(values, ", ")
}
