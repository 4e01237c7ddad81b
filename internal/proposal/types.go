package proposal

import "time"

// AgentType identifies which AI agent authored a proposal.
type AgentType string

const (
	AgentImperium AgentType = "imperium"
	AgentGuardian AgentType = "guardian"
	AgentSandbox  AgentType = "sandbox"
	AgentConquest AgentType = "conquest"
)

// KnownAgents lists every recognized agent type.
var KnownAgents = []AgentType{AgentImperium, AgentGuardian, AgentSandbox, AgentConquest}

// Valid reports whether a is a recognized agent type.
func (a AgentType) Valid() bool {
	switch a {
	case AgentImperium, AgentGuardian, AgentSandbox, AgentConquest:
		return true
	}
	return false
}

// Status tracks a proposal through its lifecycle.
type Status string

const (
	StatusPending     Status = "pending"
	StatusTesting     Status = "testing"
	StatusTestPassed  Status = "test-passed"
	StatusTestFailed  Status = "test-failed"
	StatusInReview    Status = "in-review"
	StatusAccepted    Status = "accepted"
	StatusApplied     Status = "applied"
	StatusApplyFailed Status = "apply-failed"
	StatusRejected    Status = "rejected"
	StatusExpired     Status = "expired"
)

// ActiveStatuses are the statuses a proposal can hold while still in flight.
// Duplicate-hash checks run against these; a rejected or expired proposal no
// longer blocks resubmission.
var ActiveStatuses = []Status{
	StatusPending, StatusTesting, StatusInReview, StatusTestPassed, StatusTestFailed,
}

// Recommendation is the threshold-derived reviewer hint.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReview  Recommendation = "review"
)

// Proposal is a candidate code change submitted by an agent.
type Proposal struct {
	ID                  string         `json:"id"`
	AgentType           AgentType      `json:"agent_type"`
	FilePath            string         `json:"file_path"`
	CodeBefore          string         `json:"code_before"`
	CodeAfter           string         `json:"code_after"`
	ImprovementType     string         `json:"improvement_type"`
	Reasoning           string         `json:"reasoning"`
	Confidence          float64        `json:"confidence"`
	Status              Status         `json:"status"`
	CodeHash            string         `json:"code_hash"`
	SemanticHash        string         `json:"semantic_hash"`
	QualityScore        float64        `json:"quality_score"`
	ApprovalProbability float64        `json:"approval_probability"`
	Recommendation      Recommendation `json:"recommendation"`
	TestOutput          string         `json:"test_output,omitempty"`
	TestResults         string         `json:"test_results,omitempty"` // JSON-encoded check outcomes
	ParentID            string         `json:"parent_id,omitempty"`
	Generation          int            `json:"generation"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Draft carries the caller-supplied fields for a new proposal. Everything
// else (id, hashes when absent, scores, status) is filled in by the gate.
type Draft struct {
	AgentType       AgentType `json:"agent_type"`
	FilePath        string    `json:"file_path"`
	CodeBefore      string    `json:"code_before"`
	CodeAfter       string    `json:"code_after"`
	ImprovementType string    `json:"improvement_type"`
	Reasoning       string    `json:"reasoning"`
	Confidence      float64   `json:"confidence"`
	CodeHash        string    `json:"code_hash,omitempty"`
	SemanticHash    string    `json:"semantic_hash,omitempty"`
	ParentID        string    `json:"parent_id,omitempty"`
	Generation      int       `json:"generation,omitempty"`
}

// Stats holds aggregate proposal counts.
type Stats struct {
	Total      int               `json:"total"`
	ByStatus   map[Status]int    `json:"by_status"`
	ByAgent    map[AgentType]int `json:"by_agent"`
	TestPassed int               `json:"test_passed"`
	TestFailed int               `json:"test_failed"`
}
