package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-5.2-codex"

// OpenAIResponder generates expected responses through the OpenAI
// Responses API.
type OpenAIResponder struct {
	client          *openai.Client
	model           string
	maxOutputTokens int64
	timeout         time.Duration
}

// OpenAIConfig configures the OpenAI responder. An empty APIKey falls
// back to the SDK's environment lookup.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

// NewOpenAIResponder creates a responder backed by the OpenAI API.
func NewOpenAIResponder(cfg OpenAIConfig) (*OpenAIResponder, error) {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	maxTokens := int64(DefaultMaxOutputTokens)
	if cfg.MaxOutputTokens > 0 {
		maxTokens = int64(cfg.MaxOutputTokens)
	}

	client := openai.NewClient(opts...)

	return &OpenAIResponder{
		client:          &client,
		model:           model,
		maxOutputTokens: maxTokens,
		timeout:         cfg.Timeout,
	}, nil
}

func (r *OpenAIResponder) Name() string {
	return ProviderOpenAI
}

func (r *OpenAIResponder) Respond(ctx context.Context, req *Request) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	input := make(responses.ResponseInputParam, 0, 2)
	if req.SystemPrompt != "" {
		input = append(input, responses.ResponseInputItemParamOfMessage(
			req.SystemPrompt, responses.EasyInputMessageRoleSystem))
	}
	input = append(input, responses.ResponseInputItemParamOfMessage(
		req.Prompt, responses.EasyInputMessageRoleUser))

	result, err := r.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(r.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		MaxOutputTokens: openai.Int(r.maxOutputTokens),
	})
	if err != nil {
		return "", scherr.Wrap(scherr.KindExternal, "openai response generation failed", err)
	}

	return result.OutputText(), nil
}
