package config

// DefaultSkipPatterns are glob patterns for paths never executed in the
// sandbox by default.
var DefaultSkipPatterns = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"**/*.min.js",
	"**/*_generated.*",
}

// defaultModels maps each provider to its recommended model.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o",
	ProviderGoogle:    "gemini-3-pro-preview",
	ProviderOllama:    "llama3",
}

// DefaultModel returns the recommended model for the given provider.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderAnthropic]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Model:    DefaultModel(ProviderAnthropic),
		DataDir:  ".propgate",
		RepoRoot: ".",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8750,
		},
		Checks: ChecksConfig{
			TimeoutSeconds: 120,
			MaxOutputLen:   50000,
			FailFast:       true,
			SkipPatterns:   DefaultSkipPatterns,
		},
		Gate: GateConfig{
			MaxPending:          10,
			Similarity:          true,
			SimilarityThreshold: 0.92,
		},
		Learning: LearningConfig{
			MaxGenerations:    3,
			Improver:          false,
			RequestsPerMinute: 20,
		},
	}
}
