package httpapi

import (
	"cmp"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/timex"
)

type reviewRequest struct {
	Date      *string `json:"date"`
	Highlight *string `json:"highlight"`
	Lessons   *string `json:"lessons"`
	Blockers  *string `json:"blockers"`
	Mood      *string `json:"mood"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	owner := userFrom(r.Context()).ID
	date := r.URL.Query().Get("date")

	out := []models.Review{}
	for _, rv := range s.store.ListReviews() {
		if rv.OwnerID == owner && (date == "" || rv.Date == date) {
			out = append(out, rv)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Review) int {
		return cmp.Compare(b.Date, a.Date)
	})
	writeJSON(w, http.StatusOK, map[string][]models.Review{"reviews": out})
}

// handleUpsertReview writes the caller's review for a day, today when the
// date is missing or unparseable.
func (s *Server) handleUpsertReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	review := models.Review{
		OwnerID:   userFrom(r.Context()).ID,
		Date:      s.today(),
		Highlight: trimPtr(req.Highlight),
		Lessons:   trimPtr(req.Lessons),
		Blockers:  trimPtr(req.Blockers),
		Mood:      trimPtr(req.Mood),
	}
	if req.Date != nil {
		if d, ok := timex.NormalizeDate(strings.TrimSpace(*req.Date)); ok {
			review.Date = d
		}
	}

	stored, err := s.store.UpsertReview(r.Context(), review)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.Review{"review": stored})
}
