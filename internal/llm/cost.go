package llm

// pricing is USD per million tokens for models the improver is likely to
// run. Unlisted models estimate to zero rather than guessing.
type pricing struct {
	input  float64
	output float64
}

var modelPrices = map[string]pricing{
	"claude-sonnet-4-5-20250929": {input: 3.00, output: 15.00},
	"claude-haiku-4-5-20251001":  {input: 0.80, output: 4.00},
	"claude-opus-4-6":            {input: 15.00, output: 75.00},

	"gpt-4o":      {input: 2.50, output: 10.00},
	"gpt-4o-mini": {input: 0.15, output: 0.60},

	"gemini-2.0-flash": {input: 0.10, output: 0.40},
	"gemini-1.5-pro":   {input: 1.25, output: 5.00},
}

// EstimateCost returns the estimated USD cost of a completion, or 0 for
// unlisted models.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPrices[model]
	if !ok {
		return 0
	}
	const million = 1_000_000.0
	return float64(inputTokens)/million*p.input + float64(outputTokens)/million*p.output
}

// EstimateTokens is the crude 4-chars-per-token approximation, rounded up to
// 1 for any non-empty text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		return 1
	}
	return n
}
