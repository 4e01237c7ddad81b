package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/codevanta/propgate/internal/db"
	"github.com/codevanta/propgate/internal/proposal"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(proposal.NewStore(database))
}

func sampleDraft() *proposal.Draft {
	return &proposal.Draft{
		AgentType:       proposal.AgentImperium,
		FilePath:        "app/main.py",
		CodeBefore:      "def f():\n    pass\n",
		CodeAfter:       "def f():\n    return 1\n",
		ImprovementType: "performance",
		Reasoning:       "Returning a constant improves clarity because the stub was dead code.",
		Confidence:      0.8,
	}
}

func TestGateCreate(t *testing.T) {
	g := newTestGate(t)

	p, err := g.Create(context.Background(), sampleDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Error("expected generated id")
	}
	if p.Status != proposal.StatusPending {
		t.Errorf("status = %q, want %q", p.Status, proposal.StatusPending)
	}
	if p.CodeHash == "" || p.SemanticHash == "" {
		t.Error("expected hashes to be filled in")
	}
	if p.QualityScore != DefaultScore {
		t.Errorf("quality score = %v, want the neutral default %v", p.QualityScore, DefaultScore)
	}
	if p.Recommendation != proposal.RecommendReview {
		t.Errorf("recommendation = %q, want %q", p.Recommendation, proposal.RecommendReview)
	}
}

func TestGateRejectsDuplicate(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	if _, err := g.Create(ctx, sampleDraft()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := g.Create(ctx, sampleDraft())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Create err = %v, want ErrDuplicate", err)
	}
}

func TestGateAllowsResubmissionAfterRejection(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	p, err := g.Create(ctx, sampleDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := g.Store.UpdateStatus(ctx, p.ID, proposal.StatusRejected); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if _, err := g.Create(ctx, sampleDraft()); err != nil {
		t.Fatalf("resubmission after rejection failed: %v", err)
	}
}

func TestGateEnforcesPendingCeiling(t *testing.T) {
	g := newTestGate(t)
	g.MaxPending = 3
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := sampleDraft()
		d.CodeAfter = fmt.Sprintf("def f():\n    return %d\n", i)
		if _, err := g.Create(ctx, d); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	d := sampleDraft()
	d.CodeAfter = "def f():\n    return 99\n"
	_, err := g.Create(ctx, d)
	if !errors.Is(err, ErrLimit) {
		t.Fatalf("err = %v, want ErrLimit", err)
	}

	// The ceiling is per agent; another agent still gets in.
	d = sampleDraft()
	d.AgentType = proposal.AgentGuardian
	d.CodeAfter = "def f():\n    return 100\n"
	if _, err := g.Create(ctx, d); err != nil {
		t.Fatalf("other agent blocked by the ceiling: %v", err)
	}
}

func TestGateValidatesDraft(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	cases := []func(*proposal.Draft){
		func(d *proposal.Draft) { d.AgentType = "overlord" },
		func(d *proposal.Draft) { d.FilePath = "  " },
		func(d *proposal.Draft) { d.CodeAfter = "" },
	}
	for i, mutate := range cases {
		d := sampleDraft()
		mutate(d)
		if _, err := g.Create(ctx, d); !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: err = %v, want ErrInvalid", i, err)
		}
	}
}

func TestGateClampsConfidence(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	d := sampleDraft()
	d.Confidence = 1.7
	p, err := g.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", p.Confidence)
	}

	d = sampleDraft()
	d.Confidence = -0.3
	d.CodeAfter = "def f():\n    return 2\n"
	p, err = g.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", p.Confidence)
	}
}

// fixedModel returns preset scores regardless of features.
type fixedModel struct {
	quality, approval float64
}

func (m fixedModel) Score(Features) (float64, float64) {
	return m.quality, m.approval
}

func TestGateClampsModelScores(t *testing.T) {
	g := newTestGate(t)
	g.Model = fixedModel{quality: 1.7, approval: -0.3}

	p, err := g.Create(context.Background(), sampleDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.QualityScore != 1.0 {
		t.Errorf("quality score = %v, want 1.0", p.QualityScore)
	}
	if p.ApprovalProbability != 0.0 {
		t.Errorf("approval probability = %v, want 0.0", p.ApprovalProbability)
	}
}

func TestGateRecommendationThreshold(t *testing.T) {
	cases := []struct {
		quality float64
		want    proposal.Recommendation
	}{
		{0.9, proposal.RecommendApprove},
		{0.71, proposal.RecommendApprove},
		{0.7, proposal.RecommendReview},
		{0.2, proposal.RecommendReview},
	}
	for _, tc := range cases {
		g := newTestGate(t)
		g.Model = fixedModel{quality: tc.quality, approval: tc.quality}

		p, err := g.Create(context.Background(), sampleDraft())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if p.Recommendation != tc.want {
			t.Errorf("quality %v: recommendation = %q, want %q", tc.quality, p.Recommendation, tc.want)
		}
	}
}
