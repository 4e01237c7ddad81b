package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codevanta/propgate/internal/gate"
	"github.com/codevanta/propgate/internal/proposal"
)

// RegisterRoutes mounts the proposal lifecycle API.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/proposals", func(r chi.Router) {
		r.Get("/", handleList(svc))
		r.Post("/", handleSubmit(svc))
		r.Get("/stats", handleStats(svc))
		r.Post("/analyze", handleAnalyze(svc))
		r.Get("/{id}", handleGet(svc))
		r.Get("/{id}/analyze", handleAnalyzeStored(svc))
		r.Post("/{id}/test", handleTest(svc))
		r.Post("/{id}/accept", handleAccept(svc))
		r.Post("/{id}/reject", handleReject(svc))
		r.Post("/{id}/apply", handleApply(svc))
	})
}

func handleSubmit(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d proposal.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := svc.Submit(r.Context(), &d)
		if err != nil {
			writeError(w, submitStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// submitStatus maps admission errors onto HTTP status codes.
func submitStatus(err error) int {
	switch {
	case errors.Is(err, gate.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, gate.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, gate.ErrLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := proposal.ListFilter{}
		if v := q.Get("status"); v != "" {
			filter.Status = proposal.Status(v)
		}
		if v := q.Get("agent"); v != "" {
			filter.AgentType = proposal.AgentType(v)
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		proposals, err := svc.Store.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if proposals == nil {
			proposals = []proposal.Proposal{}
		}
		writeJSON(w, http.StatusOK, proposals)
	}
}

func handleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleStats(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Store.GetStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleAnalyze(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d proposal.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		writeJSON(w, http.StatusOK, svc.Analyze(&d))
	}
}

func handleAnalyzeStored(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysis, err := svc.AnalyzeProposal(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

func handleTest(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Test(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleAccept(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Accept(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, ErrNotTested) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func handleReject(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rejectRequest
		// The body is optional; an empty reason is allowed.
		json.NewDecoder(r.Body).Decode(&req)

		p, err := svc.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleApply(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Apply(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, proposal.ErrNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			// The proposal (with apply-failed status, when set) rides along
			// so callers see both the error and the state.
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func notFoundStatus(err error) int {
	if errors.Is(err, proposal.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
