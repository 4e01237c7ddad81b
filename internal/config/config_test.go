package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider %q, got %q", ProviderAnthropic, cfg.Provider)
	}
	if cfg.DataDir != ".propgate" {
		t.Errorf("expected default data_dir %q, got %q", ".propgate", cfg.DataDir)
	}
	if cfg.Gate.MaxPending != 10 {
		t.Errorf("expected default max_pending 10, got %d", cfg.Gate.MaxPending)
	}
	if cfg.Checks.TimeoutSeconds != 120 {
		t.Errorf("expected default timeout 120s, got %d", cfg.Checks.TimeoutSeconds)
	}
	if !cfg.Checks.FailFast {
		t.Error("expected fail-fast enabled by default")
	}
	if cfg.Learning.MaxGenerations != 3 {
		t.Errorf("expected default max_generations 3, got %d", cfg.Learning.MaxGenerations)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.propgate.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.RepoRoot = "/srv/app"
	original.Gate.MaxPending = 25
	original.Gate.SimilarityThreshold = 0.85
	original.Checks.SkipPatterns = []string{"vendor/**", "generated/**"}

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.RepoRoot != original.RepoRoot {
		t.Errorf("repo_root: got %q, want %q", loaded.RepoRoot, original.RepoRoot)
	}
	if loaded.Gate.MaxPending != original.Gate.MaxPending {
		t.Errorf("max_pending: got %d, want %d", loaded.Gate.MaxPending, original.Gate.MaxPending)
	}
	if loaded.Gate.SimilarityThreshold != original.Gate.SimilarityThreshold {
		t.Errorf("similarity_threshold: got %f, want %f", loaded.Gate.SimilarityThreshold, original.Gate.SimilarityThreshold)
	}
	if len(loaded.Checks.SkipPatterns) != len(original.Checks.SkipPatterns) {
		t.Errorf("skip_patterns length: got %d, want %d", len(loaded.Checks.SkipPatterns), len(original.Checks.SkipPatterns))
	}
	for i, v := range loaded.Checks.SkipPatterns {
		if v != original.Checks.SkipPatterns[i] {
			t.Errorf("skip_patterns[%d]: got %q, want %q", i, v, original.Checks.SkipPatterns[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Override provider via env var.
	os.Setenv("PROPGATE_PROVIDER", "openai")
	defer os.Unsetenv("PROPGATE_PROVIDER")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalidProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid provider")
	}
}

func TestValidateEmptyProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty provider")
	}
}

func TestValidateEmptyModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty model")
	}
}

func TestValidateEmptyDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty data_dir")
	}
}

func TestValidateBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for port 0")
	}
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}

func TestValidateNonPositiveCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gate.MaxPending = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero max_pending")
	}
}

func TestValidateSimilarityThresholdRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gate.SimilarityThreshold = 1.2
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for threshold above 1")
	}
	cfg.Gate.SimilarityThreshold = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative threshold")
	}
}

func TestValidateNegativeGenerations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Learning.MaxGenerations = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative max_generations")
	}
}

func TestDefaultModel(t *testing.T) {
	if m := DefaultModel(ProviderOllama); m != "llama3" {
		t.Errorf("expected llama3, got %q", m)
	}
	// Unknown provider falls back.
	if m := DefaultModel("unknown"); m != defaultModels[ProviderAnthropic] {
		t.Errorf("expected fallback model, got %q", m)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.go", []string{"**/*.go"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
