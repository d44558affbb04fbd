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

const defaultCurrency = "USDT"

type createProfitRequest struct {
	Date     *string       `json:"date"`
	Amount   models.Amount `json:"amount"`
	Currency *string       `json:"currency"`
	Market   *string       `json:"market"`
	Chain    *string       `json:"chain"`
	TxHash   *string       `json:"txHash"`
	Notes    *string       `json:"notes"`
	Strategy *string       `json:"strategy"`
}

type updateProfitRequest struct {
	Date     models.Field[string]        `json:"date"`
	Amount   models.Field[models.Amount] `json:"amount"`
	Currency models.Field[string]        `json:"currency"`
	Market   models.Field[string]        `json:"market"`
	Chain    models.Field[string]        `json:"chain"`
	TxHash   models.Field[string]        `json:"txHash"`
	Notes    models.Field[string]        `json:"notes"`
	Strategy models.Field[string]        `json:"strategy"`
}

// numericAmount accepts only amounts that are numeric and within bounds. The
// text is kept as sent.
func numericAmount(a models.Amount) (models.Amount, error) {
	if _, ok := a.Decimal(); !ok {
		return models.Amount{}, fmt.Errorf("%w: amount must be a number", common.ErrValidation)
	}
	return a, nil
}

func (req createProfitRequest) toEntry(ownerID, today string) (models.ProfitEntry, error) {
	amount, err := numericAmount(req.Amount)
	if err != nil {
		return models.ProfitEntry{}, err
	}

	e := models.ProfitEntry{
		OwnerID:  ownerID,
		Date:     today,
		Amount:   amount,
		Currency: trimPtr(req.Currency),
		Market:   trimPtr(req.Market),
		Chain:    trimPtr(req.Chain),
		TxHash:   trimPtr(req.TxHash),
		Notes:    trimPtr(req.Notes),
		Strategy: trimPtr(req.Strategy),
	}
	if req.Date != nil {
		if d, ok := timex.NormalizeDate(strings.TrimSpace(*req.Date)); ok {
			e.Date = d
		}
	}
	if e.Currency == "" {
		e.Currency = defaultCurrency
	}
	return e, nil
}

func (req updateProfitRequest) toPatch() (models.ProfitPatch, error) {
	date, err := dateField(req.Date, "date")
	if err != nil {
		return models.ProfitPatch{}, err
	}
	// A profit entry always keeps a date.
	if date.IsNull() {
		date = models.Field[string]{}
	}

	p := models.ProfitPatch{
		Date:     date,
		Currency: trimmed(req.Currency),
		Market:   trimmed(req.Market),
		Chain:    trimmed(req.Chain),
		TxHash:   trimmed(req.TxHash),
		Notes:    trimmed(req.Notes),
		Strategy: trimmed(req.Strategy),
	}
	if req.Amount.Present() {
		amount, err := numericAmount(req.Amount.Value())
		if err != nil {
			return p, err
		}
		p.Amount = models.Set(amount)
	}
	return p, nil
}

// handleListProfits supports start/end (inclusive date bounds) and chain.
// Entries come back newest date first.
func (s *Server) handleListProfits(w http.ResponseWriter, r *http.Request) {
	owner := userFrom(r.Context()).ID
	q := r.URL.Query()
	start, end, chain := q.Get("start"), q.Get("end"), q.Get("chain")

	out := []models.ProfitEntry{}
	for _, p := range s.store.ListProfits() {
		switch {
		case p.OwnerID != owner:
		case start != "" && (p.Date == "" || p.Date < start):
		case end != "" && (p.Date == "" || p.Date > end):
		case chain != "" && p.Chain != chain:
		default:
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b models.ProfitEntry) int {
		return cmp.Compare(b.Date, a.Date)
	})

	writeJSON(w, http.StatusOK, map[string][]models.ProfitEntry{"profits": out})
}

func (s *Server) handleCreateProfit(w http.ResponseWriter, r *http.Request) {
	var req createProfitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := req.toEntry(userFrom(r.Context()).ID, s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.AddProfit(r.Context(), entry)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.ProfitEntry{"profit": created})
}

func (s *Server) handleUpdateProfit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if p, err := s.store.GetProfit(id); err != nil || p.OwnerID != userFrom(r.Context()).ID {
		writeNotFound(w)
		return
	}

	var req updateProfitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateProfit(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.ProfitEntry{"profit": updated})
}

func (s *Server) handleDeleteProfit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if p, err := s.store.GetProfit(id); err != nil || p.OwnerID != userFrom(r.Context()).ID {
		writeNotFound(w)
		return
	}
	if err := s.store.RemoveProfit(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
