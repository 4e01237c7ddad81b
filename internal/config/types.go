package config

// ProviderType identifies an LLM provider for the feedback loop.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level propgate configuration, corresponding to
// .propgate.yml.
type Config struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	// DataDir holds the proposal database and model weights.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`
	// RepoRoot is the working tree accepted proposals are applied to.
	RepoRoot string         `yaml:"repo_root" koanf:"repo_root"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Checks   ChecksConfig   `yaml:"checks" koanf:"checks"`
	Gate     GateConfig     `yaml:"gate" koanf:"gate"`
	Learning LearningConfig `yaml:"learning" koanf:"learning"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`
}

// ChecksConfig holds sandbox and orchestration settings.
type ChecksConfig struct {
	TimeoutSeconds int  `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	MaxOutputLen   int  `yaml:"max_output_len" koanf:"max_output_len"`
	FailFast       bool `yaml:"fail_fast" koanf:"fail_fast"`
	// SkipPatterns are globs for target paths never executed in the sandbox.
	SkipPatterns []string `yaml:"skip_patterns" koanf:"skip_patterns"`
}

// GateConfig holds admission-control settings.
type GateConfig struct {
	MaxPending int `yaml:"max_pending" koanf:"max_pending"`
	// ModelWeights is an optional path to quality-model weights; empty means
	// the neutral default score.
	ModelWeights string `yaml:"model_weights" koanf:"model_weights"`
	// Similarity enables near-duplicate detection on top of exact hashing.
	Similarity          bool    `yaml:"similarity" koanf:"similarity"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" koanf:"similarity_threshold"`
}

// LearningConfig holds feedback-loop settings.
type LearningConfig struct {
	MaxGenerations int `yaml:"max_generations" koanf:"max_generations"`
	// Improver enables LLM-backed revision of failed proposals.
	Improver bool `yaml:"improver" koanf:"improver"`
	// RequestsPerMinute throttles improver LLM calls; 0 disables throttling.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}
