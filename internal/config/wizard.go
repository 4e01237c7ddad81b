package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .propgate.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to propgate! Let's configure your proposal pipeline.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for the feedback loop",
		Items: []string{"anthropic", "openai", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(cfg.Provider),
	}
	cfg.Model, err = modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Repository root.
	rootPrompt := promptui.Prompt{
		Label:   "Repository root to apply accepted proposals to",
		Default: ".",
	}
	cfg.RepoRoot, err = rootPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("repo root: %w", err)
	}

	// 4. Pending ceiling per agent.
	ceilingPrompt := promptui.Prompt{
		Label:   "Pending proposals allowed per agent",
		Default: strconv.Itoa(cfg.Gate.MaxPending),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive number")
			}
			return nil
		},
	}
	ceilingStr, err := ceilingPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("pending ceiling: %w", err)
	}
	cfg.Gate.MaxPending, _ = strconv.Atoi(ceilingStr)

	// 5. Extra sandbox skip patterns.
	skipPrompt := promptui.Prompt{
		Label:   "Extra sandbox skip patterns (comma-separated globs, leave blank for defaults)",
		Default: "",
	}
	skipStr, err := skipPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("skip patterns: %w", err)
	}
	if skipStr != "" {
		cfg.Checks.SkipPatterns = append(cfg.Checks.SkipPatterns, splitAndTrim(skipStr)...)
	}

	// 6. Feedback loop.
	improverPrompt := promptui.Prompt{
		Label:     "Enable LLM revision of failed proposals",
		IsConfirm: true,
	}
	if _, err := improverPrompt.Run(); err == nil {
		cfg.Learning.Improver = true
	}

	// Check for API key.
	if cfg.Learning.Improver {
		if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running propgate serve.\n", envVar)
		}
	}

	// Save to .propgate.yml.
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			token := trimSpace(s[start:i])
			if token != "" {
				result = append(result, token)
			}
			start = i + 1
		}
	}
	return result
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}
