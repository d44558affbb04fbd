package httpapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type createIdeaRequest struct {
	Title      string            `json:"title"`
	Detail     *string           `json:"detail"`
	Tags       tagList           `json:"tags"`
	Status     models.IdeaStatus `json:"status"`
	Impact     *looseInt         `json:"impact"`
	Confidence *looseInt         `json:"confidence"`
}

type updateIdeaRequest struct {
	Title      models.Field[string]            `json:"title"`
	Detail     models.Field[string]            `json:"detail"`
	Tags       models.Field[tagList]           `json:"tags"`
	Status     models.Field[models.IdeaStatus] `json:"status"`
	Impact     models.Field[looseInt]          `json:"impact"`
	Confidence models.Field[looseInt]          `json:"confidence"`
}

func (req createIdeaRequest) toIdea(ownerID string) (models.Idea, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Idea{}, fmt.Errorf("%w: idea title is required", common.ErrValidation)
	}
	i := models.Idea{
		OwnerID:    ownerID,
		Title:      title,
		Detail:     trimPtr(req.Detail),
		Tags:       []string(req.Tags),
		Status:     req.Status,
		Impact:     rating(req.Impact),
		Confidence: rating(req.Confidence),
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.Status == "" {
		i.Status = models.IdeaIncubating
	}
	if !i.Status.Valid() {
		return models.Idea{}, fmt.Errorf("%w: unknown idea status %q", common.ErrValidation, i.Status)
	}
	return i, nil
}

func (req updateIdeaRequest) toPatch() (models.IdeaPatch, error) {
	p := models.IdeaPatch{
		Title:      trimmed(req.Title),
		Detail:     trimmed(req.Detail),
		Tags:       tagsField(req.Tags),
		Status:     optional(req.Status),
		Impact:     ratingField(req.Impact),
		Confidence: ratingField(req.Confidence),
	}
	if p.Title.Present() && p.Title.Value() == "" {
		return p, fmt.Errorf("%w: idea title cannot be empty", common.ErrValidation)
	}
	if p.Status.Present() && !p.Status.Value().Valid() {
		return p, fmt.Errorf("%w: unknown idea status %q", common.ErrValidation, p.Status.Value())
	}
	return p, nil
}

func lastTouched(i models.Idea) time.Time {
	if i.UpdatedAt.IsZero() {
		return i.CreatedAt
	}
	return i.UpdatedAt
}

// handleListIdeas returns the caller's ideas, most recently updated first.
func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	owner := userFrom(r.Context()).ID
	out := []models.Idea{}
	for _, i := range s.store.ListIdeas() {
		if i.OwnerID == owner {
			out = append(out, i)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Idea) int {
		return lastTouched(b).Compare(lastTouched(a))
	})
	writeJSON(w, http.StatusOK, map[string][]models.Idea{"ideas": out})
}

func (s *Server) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var req createIdeaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	i, err := req.toIdea(userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.AddIdea(r.Context(), i)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.Idea{"idea": created})
}

func (s *Server) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if i, err := s.store.GetIdea(id); err != nil || i.OwnerID != userFrom(r.Context()).ID {
		writeNotFound(w)
		return
	}

	var req updateIdeaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateIdea(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.Idea{"idea": updated})
}

func (s *Server) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if i, err := s.store.GetIdea(id); err != nil || i.OwnerID != userFrom(r.Context()).ID {
		writeNotFound(w)
		return
	}
	if err := s.store.RemoveIdea(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
