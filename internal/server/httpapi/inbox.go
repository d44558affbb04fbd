package httpapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type createInboxRequest struct {
	Content string  `json:"content"`
	Type    *string `json:"type"`
}

func (s *Server) handleListInbox(w http.ResponseWriter, r *http.Request) {
	owner := userFrom(r.Context()).ID
	out := []models.InboxEntry{}
	all := s.store.ListInbox()
	// Walk backwards so entries created in the same instant list newest first.
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].OwnerID == owner {
			out = append(out, all[i])
		}
	}
	slices.SortStableFunc(out, func(a, b models.InboxEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	writeJSON(w, http.StatusOK, map[string][]models.InboxEntry{"inbox": out})
}

func (s *Server) handleCreateInbox(w http.ResponseWriter, r *http.Request) {
	var req createInboxRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		s.writeError(w, r, fmt.Errorf("%w: content is required", common.ErrValidation))
		return
	}
	entry := models.InboxEntry{
		OwnerID: userFrom(r.Context()).ID,
		Content: content,
		Type:    trimPtr(req.Type),
	}
	if entry.Type == "" {
		entry.Type = "note"
	}

	created, err := s.store.AddInboxEntry(r.Context(), entry)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.InboxEntry{"entry": created})
}

func (s *Server) handleDeleteInbox(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if e, err := s.store.GetInboxEntry(id); err != nil || e.OwnerID != userFrom(r.Context()).ID {
		writeNotFound(w)
		return
	}
	if err := s.store.RemoveInboxEntry(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
