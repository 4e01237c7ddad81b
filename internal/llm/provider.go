package llm

import "context"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest describes a single completion call. Model overrides the
// provider's default when set; JSONMode asks the provider to constrain output
// to a JSON object where the API supports it.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse carries the completion text plus the token accounting
// the improver logs for cost tracking.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Provider is a chat-completion backend. The feedback loop only ever needs
// Complete; providers are constructed once and shared.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// defaultMaxTokens bounds responses when the caller does not set a limit.
const defaultMaxTokens = 4096
