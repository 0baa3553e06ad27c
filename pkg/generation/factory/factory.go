package factory

import (
	"fmt"

	"gamebook-engine/pkg/generation"
	"gamebook-engine/pkg/generation/gemini"
	"gamebook-engine/pkg/generation/ollama"
)

func NewProvider(providerType, modelName, baseURL, geminiKey string) (generation.Provider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		if geminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(geminiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", providerType)
	}
}
