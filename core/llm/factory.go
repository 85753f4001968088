package llm

import (
	"github.com/adalundhe/scholar/core/config"
	scherr "github.com/adalundhe/scholar/core/errors"
)

// NewResponder builds a responder from configuration. Unknown providers
// are configuration errors.
func NewResponder(cfg config.LLMConfig) (Responder, error) {
	switch cfg.Provider {
	case "", ProviderStatic:
		return NewStaticResponder(), nil
	case ProviderAnthropic:
		return NewAnthropicResponder(AnthropicConfig{
			Model:           cfg.Model,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Timeout:         cfg.Timeout,
		})
	case ProviderOpenAI:
		return NewOpenAIResponder(OpenAIConfig{
			Model:           cfg.Model,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Timeout:         cfg.Timeout,
		})
	default:
		return nil, scherr.Newf(scherr.KindConfiguration, "unknown llm provider %q", cfg.Provider)
	}
}
