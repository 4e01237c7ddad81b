package review

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codevanta/propgate/internal/proposal"
)

// RegisterRoutes mounts the HTML report endpoint.
func RegisterRoutes(r chi.Router, store *proposal.Store, renderer *Renderer) {
	r.Get("/api/proposals/{id}/report", handleReport(store, renderer))
}

func handleReport(store *proposal.Store, renderer *Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, proposal.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		page, err := renderer.Render(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}
