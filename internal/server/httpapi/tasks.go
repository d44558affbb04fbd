package httpapi

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/timex"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Title            string                 `json:"title"`
	Description      *string                `json:"description"`
	DueDate          *string                `json:"dueDate"`
	Status           models.TaskStatus      `json:"status"`
	Priority         models.Priority        `json:"priority"`
	Category         *string                `json:"category"`
	Tags             tagList                `json:"tags"`
	EstimatedMinutes *looseInt              `json:"estimatedMinutes"`
	Checklist        []models.ChecklistItem `json:"checklist"`
	Note             *string                `json:"note"`
}

type updateTaskRequest struct {
	Title            models.Field[string]                 `json:"title"`
	Description      models.Field[string]                 `json:"description"`
	DueDate          models.Field[string]                 `json:"dueDate"`
	Status           models.Field[models.TaskStatus]      `json:"status"`
	Priority         models.Field[models.Priority]        `json:"priority"`
	Category         models.Field[string]                 `json:"category"`
	Tags             models.Field[tagList]                `json:"tags"`
	EstimatedMinutes models.Field[looseInt]               `json:"estimatedMinutes"`
	Checklist        models.Field[[]models.ChecklistItem] `json:"checklist"`
	Note             models.Field[string]                 `json:"note"`
}

func (req createTaskRequest) toTask(ownerID string) (models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Task{}, fmt.Errorf("%w: task title is required", common.ErrValidation)
	}

	t := models.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: trimPtr(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    trimPtr(req.Category),
		Tags:        []string(req.Tags),
		Checklist:   req.Checklist,
		Note:        trimPtr(req.Note),
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Category == "" {
		t.Category = "general"
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Checklist == nil {
		t.Checklist = []models.ChecklistItem{}
	}
	if req.DueDate != nil {
		if d, ok := timex.NormalizeDate(strings.TrimSpace(*req.DueDate)); ok {
			t.DueDate = &d
		}
	}
	if m := req.EstimatedMinutes; m != nil && m.ok && m.n > 0 {
		n := m.n
		t.EstimatedMinutes = &n
	}

	if !t.Status.Valid() {
		return models.Task{}, fmt.Errorf("%w: unknown status %q", common.ErrValidation, t.Status)
	}
	if !t.Priority.Valid() {
		return models.Task{}, fmt.Errorf("%w: unknown priority %q", common.ErrValidation, t.Priority)
	}
	return t, nil
}

func (req updateTaskRequest) toPatch() (models.TaskPatch, error) {
	due, err := dateField(req.DueDate, "due date")
	if err != nil {
		return models.TaskPatch{}, err
	}

	p := models.TaskPatch{
		Title:       trimmed(req.Title),
		Description: trimmed(req.Description),
		DueDate:     due,
		Status:      optional(req.Status),
		Priority:    optional(req.Priority),
		Category:    trimmed(req.Category),
		Tags:        tagsField(req.Tags),
		Checklist:   optional(req.Checklist),
		Note:        trimmed(req.Note),
	}
	if p.Title.Present() && p.Title.Value() == "" {
		return p, fmt.Errorf("%w: task title cannot be empty", common.ErrValidation)
	}
	if p.Status.Present() && !p.Status.Value().Valid() {
		return p, fmt.Errorf("%w: unknown status %q", common.ErrValidation, p.Status.Value())
	}
	if p.Priority.Present() && !p.Priority.Value().Valid() {
		return p, fmt.Errorf("%w: unknown priority %q", common.ErrValidation, p.Priority.Value())
	}
	if req.EstimatedMinutes.Present() {
		if m := req.EstimatedMinutes.Value(); !req.EstimatedMinutes.IsNull() && m.ok && m.n > 0 {
			p.EstimatedMinutes = models.Set(m.n)
		} else {
			p.EstimatedMinutes = models.Null[int]()
		}
	}
	return p, nil
}

// handleListTasks supports status, date (exact due date) and from/to (due
// date range; undated tasks always pass). Tasks are ordered by due date
// when both have one, then by creation time.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	owner := userFrom(r.Context()).ID
	q := r.URL.Query()
	status, date, from, to := q.Get("status"), q.Get("date"), q.Get("from"), q.Get("to")

	out := []models.Task{}
	for _, t := range s.store.ListTasks() {
		due := t.Due()
		switch {
		case t.OwnerID != owner:
		case status != "" && string(t.Status) != status:
		case date != "" && due != date:
		case from != "" && due != "" && due < from:
		case to != "" && due != "" && due > to:
		default:
			out = append(out, t)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Task) int {
		if da, db := a.Due(), b.Due(); da != "" && db != "" {
			if c := cmp.Compare(da, db); c != 0 {
				return c
			}
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	writeJSON(w, http.StatusOK, map[string][]models.Task{"tasks": out})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := req.toTask(userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.store.AddTask(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.Task{"task": created})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ownsTask(r, id) {
		writeNotFound(w)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.store.UpdateTask(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.Task{"task": updated})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ownsTask(r, id) {
		writeNotFound(w)
		return
	}
	if err := s.store.RemoveTask(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ownsTask(r *http.Request, id string) bool {
	t, err := s.store.GetTask(id)
	return err == nil && t.OwnerID == userFrom(r.Context()).ID
}
