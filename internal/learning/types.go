package learning

import (
	"time"

	"github.com/codevanta/propgate/internal/proposal"
)

// Topic categorizes a learning event.
type Topic string

const (
	TopicTestFailure Topic = "test_failure"
	TopicRejection   Topic = "rejection"
	TopicAcceptance  Topic = "acceptance"
)

// Event is one recorded lesson from the proposal lifecycle. Events feed the
// feedback loop and the per-agent learning history.
type Event struct {
	ID         string             `json:"id"`
	ProposalID string             `json:"proposal_id"`
	AgentType  proposal.AgentType `json:"agent_type"`
	Topic      Topic              `json:"topic"`
	Summary    string             `json:"summary"`
	Context    string             `json:"context"` // JSON-encoded details
	CreatedAt  time.Time          `json:"created_at"`
}
