package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/seenimoa/edgarlens/internal/config"
)

// NewFromConfig creates the provider named by llm.primary.
func NewFromConfig(cfg *config.Config) (LLMProvider, error) {
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout}

	switch cfg.LLM.Primary {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.LLM.AnthropicKey,
			WithAnthropicModel(modelFor(ProviderAnthropic, cfg.LLM.Model)),
			WithAnthropicMaxTokens(cfg.LLM.MaxTokens),
			WithAnthropicHTTPClient(httpClient),
		)
	case ProviderOpenAI, "":
		return NewOpenAIProvider(cfg.LLM.OpenAIKey,
			WithOpenAIModel(modelFor(ProviderOpenAI, cfg.LLM.Model)),
			WithOpenAIBaseURL(cfg.LLM.OpenAIURL),
			WithOpenAIHTTPClient(httpClient),
		)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLM.Primary)
	}
}

// modelFor keeps a configured model only when it belongs to the provider's
// family, so switching llm.primary alone still yields a usable model.
func modelFor(provider, model string) string {
	switch provider {
	case ProviderAnthropic:
		if strings.HasPrefix(model, "claude") {
			return model
		}
		return DefaultAnthropicModel
	default:
		if model == "" || strings.HasPrefix(model, "claude") {
			return DefaultOpenAIModel
		}
		return model
	}
}
