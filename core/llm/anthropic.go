package llm

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	scherr "github.com/adalundhe/scholar/core/errors"
)

const (
	// DefaultAnthropicModel is the model used when none is configured.
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

	// DefaultMaxOutputTokens bounds response generation.
	DefaultMaxOutputTokens = 8192
)

// AnthropicResponder generates expected responses with Claude. The agent's
// identity context goes in as the system prompt so the model answers in
// the agent's voice.
type AnthropicResponder struct {
	client          anthropic.Client
	model           string
	maxOutputTokens int64
	timeout         time.Duration
}

// AnthropicConfig configures the Claude responder. An empty APIKey falls
// back to the SDK's environment lookup.
type AnthropicConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

// NewAnthropicResponder creates a responder backed by the Anthropic API.
func NewAnthropicResponder(cfg AnthropicConfig) (*AnthropicResponder, error) {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	maxTokens := int64(DefaultMaxOutputTokens)
	if cfg.MaxOutputTokens > 0 {
		maxTokens = int64(cfg.MaxOutputTokens)
	}

	return &AnthropicResponder{
		client:          anthropic.NewClient(opts...),
		model:           model,
		maxOutputTokens: maxTokens,
		timeout:         cfg.Timeout,
	}, nil
}

func (r *AnthropicResponder) Name() string {
	return ProviderAnthropic
}

func (r *AnthropicResponder) Respond(ctx context.Context, req *Request) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	message, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", scherr.Wrap(scherr.KindExternal, "anthropic response generation failed", err)
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return content, nil
}
