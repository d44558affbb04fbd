package models

import "time"

type ProfitEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Date      string    `json:"date"`
	Amount    Amount    `json:"amount"`
	Currency  string    `json:"currency"`
	Market    string    `json:"market"`
	Chain     string    `json:"chain"`
	TxHash    string    `json:"txHash"`
	Notes     string    `json:"notes"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p ProfitEntry) Clone() ProfitEntry { return p }

type ProfitPatch struct {
	Date     Field[string]
	Amount   Field[Amount]
	Currency Field[string]
	Market   Field[string]
	Chain    Field[string]
	TxHash   Field[string]
	Notes    Field[string]
	Strategy Field[string]
}

func (p ProfitPatch) Apply(e *ProfitEntry) {
	applyValue(&e.Date, p.Date)
	applyValue(&e.Amount, p.Amount)
	applyValue(&e.Currency, p.Currency)
	applyValue(&e.Market, p.Market)
	applyValue(&e.Chain, p.Chain)
	applyValue(&e.TxHash, p.TxHash)
	applyValue(&e.Notes, p.Notes)
	applyValue(&e.Strategy, p.Strategy)
}
