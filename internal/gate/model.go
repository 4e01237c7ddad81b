package gate

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultScore is assigned when no trained model is configured. A neutral
// score keeps the pipeline moving without pretending to know quality.
const DefaultScore = 0.5

// ApproveThreshold is the quality score above which a proposal gets an
// approve recommendation instead of a manual-review one.
const ApproveThreshold = 0.7

// Model scores a draft's extracted features. Implementations return a
// quality score and an approval probability, both in [0, 1] after clamping
// by the gate.
type Model interface {
	Score(f Features) (quality, approvalProb float64)
}

// LinearModel is a weighted sum over features plus a bias, loaded from a
// JSON weights file. It stands in for a trained classifier; the weights file
// can be regenerated offline from review history.
type LinearModel struct {
	Bias    float64 `json:"bias"`
	Weights struct {
		CodeLengthRatio  float64 `json:"code_length_ratio"`
		ReasoningLength  float64 `json:"reasoning_length"`
		ReasoningQuality float64 `json:"reasoning_quality"`
		LinesAdded       float64 `json:"lines_added"`
		Complexity       float64 `json:"complexity"`
		TokenOverlap     float64 `json:"token_overlap"`
		Confidence       float64 `json:"confidence"`
		AgentIndex       float64 `json:"agent_index"`
		CategoryIndex    float64 `json:"category_index"`
	} `json:"weights"`
	ApprovalBias float64 `json:"approval_bias"`
}

// LoadModel reads a LinearModel from a JSON file.
func LoadModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model weights: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model weights: %w", err)
	}
	return &m, nil
}

func (m *LinearModel) Score(f Features) (float64, float64) {
	quality := m.Bias +
		m.Weights.CodeLengthRatio*f.CodeLengthRatio +
		m.Weights.ReasoningLength*f.ReasoningLength +
		m.Weights.ReasoningQuality*f.ReasoningQuality +
		m.Weights.LinesAdded*f.LinesAdded +
		m.Weights.Complexity*f.Complexity +
		m.Weights.TokenOverlap*f.TokenOverlap +
		m.Weights.Confidence*f.Confidence +
		m.Weights.AgentIndex*f.AgentIndex +
		m.Weights.CategoryIndex*f.CategoryIndex

	return quality, quality + m.ApprovalBias
}

// Clamp bounds v to [0, 1]. Scores and probabilities are stored clamped so
// downstream consumers never see out-of-range values.
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
