package llm

import (
	"context"
	"fmt"
	"os"
)

// Providers lists the provider types accepted by NewProvider.
var Providers = []string{"google", "openai", "anthropic", "ollama"}

// DefaultModel returns the model used when none is configured.
func DefaultModel(providerType string) string {
	switch providerType {
	case "google":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-haiku-4-5-20251001"
	case "ollama":
		return "llama3.1"
	default:
		return ""
	}
}

// keyVars are consulted, in order, when NewProvider gets no key.
var keyVars = map[string][]string{
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// NewProvider builds a provider of the given type. An empty model selects
// DefaultModel; an empty apiKey falls back to the provider's environment
// variables. Ollama needs no key and reads its address from OLLAMA_HOST.
func NewProvider(providerType, model, apiKey string) (Provider, error) {
	if model == "" {
		model = DefaultModel(providerType)
	}

	if providerType == "ollama" {
		return NewOllama(os.Getenv("OLLAMA_HOST"), model), nil
	}

	vars, ok := keyVars[providerType]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
	for _, name := range vars {
		if apiKey != "" {
			break
		}
		apiKey = os.Getenv(name)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key given and %s is not set", vars[0])
	}

	switch providerType {
	case "anthropic":
		return NewAnthropic(apiKey, model), nil
	case "openai":
		return NewOpenAI(apiKey, model), nil
	default:
		return NewGemini(context.Background(), apiKey, model)
	}
}
