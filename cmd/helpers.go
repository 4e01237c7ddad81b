package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/codevanta/propgate/internal/agents"
	"github.com/codevanta/propgate/internal/checks"
	"github.com/codevanta/propgate/internal/config"
	"github.com/codevanta/propgate/internal/db"
	"github.com/codevanta/propgate/internal/gate"
	"github.com/codevanta/propgate/internal/learning"
	"github.com/codevanta/propgate/internal/llm"
	"github.com/codevanta/propgate/internal/pipeline"
	"github.com/codevanta/propgate/internal/proposal"
	"github.com/codevanta/propgate/internal/similarity"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `propgate init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildService wires the full pipeline from config: database, gate, checker,
// and the learning loop. The caller owns closing the returned database.
func buildService(cfg *config.Config) (*pipeline.Service, *db.DB, error) {
	database, err := db.Open(filepath.Join(cfg.DataDir, "propgate.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	store := proposal.NewStore(database)
	g := gate.New(store)
	g.MaxPending = cfg.Gate.MaxPending

	if cfg.Gate.ModelWeights != "" {
		model, err := gate.LoadModel(cfg.Gate.ModelWeights)
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("loading quality model: %w", err)
		}
		g.Model = model
	}

	var index *similarity.Index
	if cfg.Gate.Similarity {
		index, err = similarity.NewIndex()
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("creating similarity index: %w", err)
		}
		if cfg.Gate.SimilarityThreshold > 0 {
			index.Threshold = float32(cfg.Gate.SimilarityThreshold)
		}
		g.Similarity = index
	}

	checker := checks.NewChecker()
	checker.Timeout = time.Duration(cfg.Checks.TimeoutSeconds) * time.Second
	checker.SkipPatterns = cfg.Checks.SkipPatterns

	runner := checks.NewRunner(checker)
	runner.FailFast = cfg.Checks.FailFast
	runner.MaxOutputLen = cfg.Checks.MaxOutputLen

	var improver agents.Improver
	if cfg.Learning.Improver {
		provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		if cfg.Learning.RequestsPerMinute > 0 {
			provider = llm.NewRateLimitedProvider(provider, cfg.Learning.RequestsPerMinute)
		}
		improver = agents.NewLLMImprover(provider, cfg.Model)
	}

	loop := learning.NewLoop(learning.NewStore(database), g, improver)
	loop.MaxGenerations = cfg.Learning.MaxGenerations

	svc := &pipeline.Service{
		Store:      store,
		Gate:       g,
		Runner:     runner,
		Loop:       loop,
		Similarity: index,
		RepoRoot:   cfg.RepoRoot,
	}
	return svc, database, nil
}
