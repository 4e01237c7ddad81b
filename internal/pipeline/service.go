package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/codevanta/propgate/internal/checks"
	"github.com/codevanta/propgate/internal/gate"
	"github.com/codevanta/propgate/internal/learning"
	"github.com/codevanta/propgate/internal/proposal"
	"github.com/codevanta/propgate/internal/similarity"
)

// ErrNotTested is returned when an operation needs a passing test run first.
var ErrNotTested = errors.New("proposal has not passed testing")

// Service drives proposals through their lifecycle: admission, testing,
// review decisions, and application to the working tree.
type Service struct {
	Store  *proposal.Store
	Gate   *gate.Gate
	Runner *checks.Runner
	Loop   *learning.Loop
	// Similarity mirrors the gate's near-duplicate index so finalized
	// proposals stop blocking lookalikes.
	Similarity *similarity.Index
	// RepoRoot is where accepted proposals are applied.
	RepoRoot string
}

// Submit admits a draft through the gate.
func (s *Service) Submit(ctx context.Context, d *proposal.Draft) (*proposal.Proposal, error) {
	return s.Gate.Create(ctx, d)
}

// Test runs the proposal's check plan and records the outcome. A failed run
// triggers the feedback loop; the returned proposal reflects the new status
// either way.
func (s *Service) Test(ctx context.Context, id string) (*proposal.Proposal, error) {
	p, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdateStatus(ctx, p.ID, proposal.StatusTesting); err != nil {
		return nil, err
	}

	verdict, summary, outcomes := s.Runner.TestProposal(ctx, p)

	// Only an overall pass counts. Skipped and errored runs stay failed so
	// an unverifiable proposal can never be accepted on the strength of
	// checks that did not run.
	status := proposal.StatusTestFailed
	if verdict == checks.VerdictPassed {
		status = proposal.StatusTestPassed
	}

	resultsJSON, err := json.Marshal(outcomes)
	if err != nil {
		resultsJSON = []byte("[]")
	}
	if err := s.Store.RecordTestResults(ctx, p.ID, status, summary, string(resultsJSON)); err != nil {
		return nil, err
	}

	updated, err := s.Store.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if status == proposal.StatusTestFailed && s.Loop != nil {
		s.Loop.OnTestFailed(ctx, updated, verdict, summary)
	}

	return updated, nil
}

// Accept marks a test-passed proposal as accepted. Pending proposals are
// tested first; a failing run blocks acceptance.
func (s *Service) Accept(ctx context.Context, id string) (*proposal.Proposal, error) {
	p, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status == proposal.StatusPending || p.Status == proposal.StatusTestFailed {
		p, err = s.Test(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if p.Status != proposal.StatusTestPassed && p.Status != proposal.StatusInReview {
		return nil, fmt.Errorf("%w: status is %s", ErrNotTested, p.Status)
	}

	if err := s.Store.UpdateStatus(ctx, p.ID, proposal.StatusAccepted); err != nil {
		return nil, err
	}
	p.Status = proposal.StatusAccepted

	if s.Loop != nil {
		s.Loop.OnAccepted(ctx, p)
	}
	s.unindex(ctx, p.ID)

	return p, nil
}

// Reject finalizes a proposal as rejected and records the reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*proposal.Proposal, error) {
	p, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdateStatus(ctx, p.ID, proposal.StatusRejected); err != nil {
		return nil, err
	}
	p.Status = proposal.StatusRejected

	if s.Loop != nil {
		s.Loop.OnRejected(ctx, p, reason)
	}
	s.unindex(ctx, p.ID)

	return p, nil
}

// Apply writes an accepted proposal's code to the working tree. The target
// file must still hold the proposal's before-content; anything else means
// the tree moved on and the apply fails.
func (s *Service) Apply(ctx context.Context, id string) (*proposal.Proposal, error) {
	p, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != proposal.StatusAccepted {
		return nil, fmt.Errorf("cannot apply proposal in status %s", p.Status)
	}

	if err := s.applyToTree(p); err != nil {
		if uerr := s.Store.UpdateStatus(ctx, p.ID, proposal.StatusApplyFailed); uerr != nil {
			log.Printf("pipeline: marking proposal %s apply-failed: %v", p.ID, uerr)
		}
		p.Status = proposal.StatusApplyFailed
		return p, err
	}

	if err := s.Store.UpdateStatus(ctx, p.ID, proposal.StatusApplied); err != nil {
		return nil, err
	}
	p.Status = proposal.StatusApplied
	return p, nil
}

func (s *Service) applyToTree(p *proposal.Proposal) error {
	if s.RepoRoot == "" {
		return errors.New("no repository root configured")
	}
	target := filepath.Join(s.RepoRoot, filepath.FromSlash(p.FilePath))

	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(s.RepoRoot)+string(filepath.Separator)) {
		return fmt.Errorf("file path %s escapes the repository root", p.FilePath)
	}

	current, err := os.ReadFile(target)
	switch {
	case err == nil:
		if p.CodeBefore != "" && string(current) != p.CodeBefore {
			return fmt.Errorf("%s changed since the proposal was created", p.FilePath)
		}
	case os.IsNotExist(err):
		if p.CodeBefore != "" {
			return fmt.Errorf("%s no longer exists", p.FilePath)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directories for %s: %w", p.FilePath, err)
		}
	default:
		return fmt.Errorf("reading %s: %w", p.FilePath, err)
	}

	if err := os.WriteFile(target, []byte(p.CodeAfter), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p.FilePath, err)
	}
	return nil
}

// Analysis is the dry-run view of a draft: the checks it would face and the
// score it would receive, without persisting anything.
type Analysis struct {
	Plan                []checks.Type           `json:"plan"`
	Features            gate.Features           `json:"features"`
	QualityScore        float64                 `json:"quality_score"`
	ApprovalProbability float64                 `json:"approval_probability"`
	Recommendation      proposal.Recommendation `json:"recommendation"`
}

// Analyze previews how a draft would fare at the gate.
func (s *Service) Analyze(d *proposal.Draft) Analysis {
	features := gate.ExtractFeatures(d)

	quality, approvalProb := gate.DefaultScore, gate.DefaultScore
	if s.Gate != nil && s.Gate.Model != nil {
		quality, approvalProb = s.Gate.Model.Score(features)
		quality = gate.Clamp(quality)
		approvalProb = gate.Clamp(approvalProb)
	}

	recommendation := proposal.RecommendReview
	if quality > gate.ApproveThreshold {
		recommendation = proposal.RecommendApprove
	}

	return Analysis{
		Plan:                checks.SelectPlan(d.AgentType, d.ImprovementType, d.FilePath),
		Features:            features,
		QualityScore:        quality,
		ApprovalProbability: approvalProb,
		Recommendation:      recommendation,
	}
}

// AnalyzeProposal re-scores a stored proposal against the current model.
func (s *Service) AnalyzeProposal(ctx context.Context, id string) (Analysis, error) {
	p, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return Analysis{}, err
	}
	return s.Analyze(&proposal.Draft{
		AgentType:       p.AgentType,
		FilePath:        p.FilePath,
		CodeBefore:      p.CodeBefore,
		CodeAfter:       p.CodeAfter,
		ImprovementType: p.ImprovementType,
		Reasoning:       p.Reasoning,
		Confidence:      p.Confidence,
	}), nil
}

func (s *Service) unindex(ctx context.Context, id string) {
	if s.Similarity == nil {
		return
	}
	if err := s.Similarity.Remove(ctx, id); err != nil {
		log.Printf("pipeline: removing proposal %s from similarity index: %v", id, err)
	}
}
