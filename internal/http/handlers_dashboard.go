package http

import (
	"log/slog"
	"net/http"
	"time"

	"sopdash/internal/log"
	"sopdash/internal/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.session.State() != session.Authenticated {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := struct {
		Today string
	}{
		Today: time.Now().Format("02/01/2006"),
	}
	s.render(w, r, "index.html", data)
}

// handleRefresh refetches the three collections concurrently and tells every
// list container to re-render. Partial failures still refresh the slices
// that succeeded; each list surfaces its own error banner.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := s.stores.FetchAllLists(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "Dashboard refresh completed with errors",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}

	NewResponse().
		TriggerMutation("expenses", 0).
		TriggerMutation("commitments", 0).
		TriggerMutation("payments", 0).
		Write(w)
}
