package gate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/codevanta/propgate/internal/proposal"
	"github.com/codevanta/propgate/internal/similarity"
)

// DefaultMaxPending is the per-agent ceiling on pending proposals.
const DefaultMaxPending = 10

var (
	// ErrDuplicate means an in-flight proposal already covers this change.
	ErrDuplicate = errors.New("duplicate proposal")
	// ErrLimit means the agent has hit its pending-proposal ceiling.
	ErrLimit = errors.New("pending proposal limit reached")
	// ErrInvalid means the draft is missing required fields.
	ErrInvalid = errors.New("invalid proposal")
)

// Gate is the single admission path for new proposals. Every draft passes
// fingerprinting, duplicate checks, the per-agent ceiling, and quality
// scoring before it is persisted as pending.
type Gate struct {
	Store *proposal.Store
	// Model scores drafts; nil assigns the neutral default score.
	Model Model
	// Similarity, when set, flags near-duplicates that hashing misses.
	Similarity *similarity.Index
	MaxPending int
}

// New returns a Gate with the default pending ceiling.
func New(store *proposal.Store) *Gate {
	return &Gate{Store: store, MaxPending: DefaultMaxPending}
}

// Create validates, deduplicates, scores, and persists a draft. On success
// the returned proposal is pending with hashes and scores filled in.
func (g *Gate) Create(ctx context.Context, d *proposal.Draft) (*proposal.Proposal, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	d.Fingerprint()

	dup, err := g.Store.FindDuplicate(ctx, d.CodeHash, d.SemanticHash)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: matches proposal %s", ErrDuplicate, dup.ID)
	}

	if g.Similarity != nil {
		matches, err := g.Similarity.FindSimilar(ctx, d.CodeAfter, 1)
		if err != nil {
			// Near-duplicate search is advisory; a broken index must not
			// block admissions.
			log.Printf("gate: similarity search failed: %v", err)
		} else if len(matches) > 0 {
			return nil, fmt.Errorf("%w: near-duplicate of proposal %s (similarity %.2f)",
				ErrDuplicate, matches[0].ProposalID, matches[0].Similarity)
		}
	}

	pending, err := g.Store.CountPending(ctx, d.AgentType)
	if err != nil {
		return nil, err
	}
	if pending >= g.maxPending() {
		return nil, fmt.Errorf("%w: agent %s has %d pending proposals", ErrLimit, d.AgentType, pending)
	}

	p := &proposal.Proposal{
		AgentType:       d.AgentType,
		FilePath:        d.FilePath,
		CodeBefore:      d.CodeBefore,
		CodeAfter:       d.CodeAfter,
		ImprovementType: d.ImprovementType,
		Reasoning:       d.Reasoning,
		Confidence:      Clamp(d.Confidence),
		Status:          proposal.StatusPending,
		CodeHash:        d.CodeHash,
		SemanticHash:    d.SemanticHash,
		ParentID:        d.ParentID,
		Generation:      d.Generation,
	}

	g.score(p, d)

	if err := g.Store.Create(ctx, p); err != nil {
		return nil, err
	}

	if g.Similarity != nil {
		if err := g.Similarity.Add(ctx, p.ID, p.FilePath, p.CodeAfter); err != nil {
			log.Printf("gate: indexing proposal %s: %v", p.ID, err)
		}
	}

	return p, nil
}

// score fills in quality score, approval probability and the recommendation.
func (g *Gate) score(p *proposal.Proposal, d *proposal.Draft) {
	if g.Model == nil {
		p.QualityScore = DefaultScore
		p.ApprovalProbability = DefaultScore
	} else {
		quality, approvalProb := g.Model.Score(ExtractFeatures(d))
		p.QualityScore = Clamp(quality)
		p.ApprovalProbability = Clamp(approvalProb)
	}

	if p.QualityScore > ApproveThreshold {
		p.Recommendation = proposal.RecommendApprove
	} else {
		p.Recommendation = proposal.RecommendReview
	}
}

func (g *Gate) maxPending() int {
	if g.MaxPending > 0 {
		return g.MaxPending
	}
	return DefaultMaxPending
}

func validate(d *proposal.Draft) error {
	if !d.AgentType.Valid() {
		return fmt.Errorf("%w: unknown agent type %q", ErrInvalid, d.AgentType)
	}
	if strings.TrimSpace(d.FilePath) == "" {
		return fmt.Errorf("%w: file path is required", ErrInvalid)
	}
	if strings.TrimSpace(d.CodeAfter) == "" {
		return fmt.Errorf("%w: code_after is required", ErrInvalid)
	}
	return nil
}
