package llm

import (
	"fmt"
	"os"
)

// NewProvider builds a provider from its config name. Hosted providers read
// their API key from the conventional environment variable; ollama only
// needs a reachable daemon.
func NewProvider(providerType, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		key, err := requireEnv("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewAnthropicProvider(key, model), nil

	case "openai":
		key, err := requireEnv("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAIProvider(key, model), nil

	case "google":
		key, err := requireEnv("GOOGLE_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewGoogleProvider(key, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil
	}

	return nil, fmt.Errorf("unsupported provider type: %s", providerType)
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s environment variable is not set", name)
	}
	return v, nil
}
