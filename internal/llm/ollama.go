package llm

import (
	"context"
	"fmt"
	"net/http"
)

// OllamaProvider talks to a local Ollama daemon's chat endpoint. No API key
// is involved; the host comes from OLLAMA_HOST or the default.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{baseURL: baseURL, model: model, client: &http.Client{}}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []roleContent `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  struct {
		Temperature float64 `json:"temperature,omitempty"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message         roleContent `json:"message"`
	Model           string      `json:"model"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	apiReq := ollamaRequest{Model: req.Model}
	if apiReq.Model == "" {
		apiReq.Model = p.model
	}
	apiReq.Options.Temperature = req.Temperature
	apiReq.Options.NumPredict = req.MaxTokens
	if req.JSONMode {
		apiReq.Format = "json"
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, roleContent{Role: string(msg.Role), Content: msg.Content})
	}

	var apiResp ollamaResponse
	status, raw, err := postJSON(ctx, p.client, p.baseURL+"/api/chat", nil, apiReq, &apiResp)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ollama: status %d: %s", status, raw)
	}

	return &CompletionResponse{
		Content:      apiResp.Message.Content,
		InputTokens:  apiResp.PromptEvalCount,
		OutputTokens: apiResp.EvalCount,
		Model:        apiResp.Model,
		FinishReason: apiResp.DoneReason,
	}, nil
}
