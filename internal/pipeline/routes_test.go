package pipeline

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/codevanta/propgate/internal/checks"
	"github.com/codevanta/propgate/internal/proposal"
)

func newTestRouter(t *testing.T, verdict checks.Verdict) (*Service, chi.Router) {
	t.Helper()
	svc, _ := newTestService(t, verdict)
	r := chi.NewRouter()
	RegisterRoutes(r, svc)
	return svc, r
}

func postJSON(t *testing.T, r chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, r chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutesSubmit(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	w := postJSON(t, r, "/api/proposals", draft())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var p proposal.Proposal
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if p.ID == "" || p.Status != proposal.StatusPending {
		t.Errorf("unexpected proposal %+v", p)
	}
}

func TestRoutesSubmitDuplicate(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	if w := postJSON(t, r, "/api/proposals", draft()); w.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d", w.Code)
	}
	if w := postJSON(t, r, "/api/proposals", draft()); w.Code != http.StatusConflict {
		t.Errorf("duplicate submit status = %d, want 409", w.Code)
	}
}

func TestRoutesSubmitInvalid(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	d := draft()
	d.AgentType = "overlord"
	if w := postJSON(t, r, "/api/proposals", d); w.Code != http.StatusBadRequest {
		t.Errorf("invalid submit status = %d, want 400", w.Code)
	}
}

func TestRoutesSubmitLimit(t *testing.T) {
	svc, r := newTestRouter(t, checks.VerdictPassed)
	svc.Gate.MaxPending = 1

	if w := postJSON(t, r, "/api/proposals", draft()); w.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d", w.Code)
	}

	d := draft()
	d.CodeAfter = "def f():\n    return 2\n"
	if w := postJSON(t, r, "/api/proposals", d); w.Code != http.StatusTooManyRequests {
		t.Errorf("over-limit submit status = %d, want 429", w.Code)
	}
}

func TestRoutesGetAndList(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	w := postJSON(t, r, "/api/proposals", draft())
	var created proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &created)

	if w := get(t, r, "/api/proposals/"+created.ID); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w := get(t, r, "/api/proposals/missing"); w.Code != http.StatusNotFound {
		t.Errorf("get missing status = %d, want 404", w.Code)
	}

	w = get(t, r, "/api/proposals?agent=imperium")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listed []proposal.Proposal
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("listed %d proposals, want 1", len(listed))
	}

	w = get(t, r, "/api/proposals?agent=guardian")
	json.Unmarshal(w.Body.Bytes(), &listed)
	if len(listed) != 0 {
		t.Errorf("listed %d guardian proposals, want 0", len(listed))
	}
}

func TestRoutesTestAndAccept(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	w := postJSON(t, r, "/api/proposals", draft())
	var created proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &created)

	w = postJSON(t, r, "/api/proposals/"+created.ID+"/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("test status = %d, body %s", w.Code, w.Body.String())
	}
	var tested proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &tested)
	if tested.Status != proposal.StatusTestPassed {
		t.Errorf("status = %q, want test-passed", tested.Status)
	}

	w = postJSON(t, r, "/api/proposals/"+created.ID+"/accept", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", w.Code, w.Body.String())
	}
	var accepted proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &accepted)
	if accepted.Status != proposal.StatusAccepted {
		t.Errorf("status = %q, want accepted", accepted.Status)
	}
}

func TestRoutesReject(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	w := postJSON(t, r, "/api/proposals", draft())
	var created proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &created)

	w = postJSON(t, r, "/api/proposals/"+created.ID+"/reject", rejectRequest{Reason: "nope"})
	if w.Code != http.StatusOK {
		t.Fatalf("reject status = %d", w.Code)
	}
	var rejected proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &rejected)
	if rejected.Status != proposal.StatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
}

func TestRoutesAnalyze(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	w := postJSON(t, r, "/api/proposals/analyze", draft())
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d", w.Code)
	}
	var analysis Analysis
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decoding analysis: %v", err)
	}
	if len(analysis.Plan) == 0 {
		t.Error("expected a plan in the analysis")
	}

	// Analyze must not persist anything.
	var listed []proposal.Proposal
	w = get(t, r, "/api/proposals")
	json.Unmarshal(w.Body.Bytes(), &listed)
	if len(listed) != 0 {
		t.Errorf("analyze persisted %d proposals", len(listed))
	}
}

func TestRoutesAnalyzeStored(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	w := postJSON(t, r, "/api/proposals", draft())
	var created proposal.Proposal
	json.Unmarshal(w.Body.Bytes(), &created)

	w = get(t, r, "/api/proposals/"+created.ID+"/analyze")
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d", w.Code)
	}
	var analysis Analysis
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decoding analysis: %v", err)
	}
	if analysis.Recommendation == "" {
		t.Error("expected a recommendation")
	}

	if w := get(t, r, "/api/proposals/missing/analyze"); w.Code != http.StatusNotFound {
		t.Errorf("analyze missing status = %d, want 404", w.Code)
	}
}

func TestRoutesStats(t *testing.T) {
	_, r := newTestRouter(t, checks.VerdictPassed)

	postJSON(t, r, "/api/proposals", draft())

	w := get(t, r, "/api/proposals/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats proposal.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("total = %d, want 1", stats.Total)
	}
}
