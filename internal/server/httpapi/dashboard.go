package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/dailyops/internal/server/dashboard"
)

// handleDashboard aggregates a snapshot of the caller's records.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owned := s.store.Snapshot().OwnedBy(userFrom(r.Context()).ID)
	writeJSON(w, http.StatusOK, dashboard.Build(owned, s.today()))
}
