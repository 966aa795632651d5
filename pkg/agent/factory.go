package agent

import (
	"fmt"

	"irabuilder/pkg/config"
)

// NewClientForConfig builds the LLMClient matching the configured model,
// wrapped with bounded retry on transient failures.
func NewClientForConfig(cfg *config.Config, secrets *config.Secrets) (LLMClient, error) {
	provider := cfg.Provider()

	apiKey := ""
	if provider != config.ProviderOllama {
		key, err := secrets.APIKeyFor(provider)
		if err != nil {
			return nil, fmt.Errorf("resolving API key for %s: %w", provider, err)
		}
		apiKey = key
	}

	var client LLMClient
	switch provider {
	case config.ProviderAnthropic:
		client = NewClaudeClient(apiKey, cfg.Model)
	case config.ProviderOpenAI:
		client = NewOpenAIClient(apiKey, cfg.Model)
	case config.ProviderGoogle:
		client = NewGeminiClient(apiKey, cfg.Model)
	case config.ProviderOllama:
		c, err := NewOllamaClient(cfg.OllamaHost, cfg.Model)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("unsupported provider %q for model %q", provider, cfg.Model)
	}

	return WithRetry(client), nil
}
