package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/shopspring/decimal"
)

// Bounds for amounts that take part in arithmetic. Anything longer or with a
// larger exponent counts as non-numeric.
const (
	maxAmountLen      = 64
	maxAmountExponent = 64
)

// Amount is a signed money value. It keeps the text it was decoded from so
// that a malformed amount in an old file never blocks loading; Decimal
// reports whether the text is numeric.
type Amount struct {
	raw string
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{raw: d.String()}
}

// ParseAmount accepts a decimal number within the amount bounds.
func ParseAmount(s string) (Amount, error) {
	a := Amount{raw: strings.TrimSpace(s)}
	if _, ok := a.Decimal(); !ok {
		return Amount{}, fmt.Errorf("%w: %q is not a valid amount", common.ErrValidation, s)
	}
	return a, nil
}

// Decimal returns the parsed value; ok is false when the stored text is
// empty, not a number, or outside the amount bounds.
func (a Amount) Decimal() (d decimal.Decimal, ok bool) {
	if a.raw == "" || len(a.raw) > maxAmountLen {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(a.raw)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

func (a Amount) String() string { return a.raw }

// MarshalJSON writes a numeric token exactly as it was read. Anything else
// is written as a string.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.raw == "" {
		return []byte("null"), nil
	}
	if isJSONNumber(a.raw) {
		return []byte(a.raw), nil
	}
	return json.Marshal(a.raw)
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		a.raw = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.raw = strings.TrimSpace(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			// Booleans, objects and arrays are kept as text and count as zero.
			a.raw = string(b)
			return nil
		}
		a.raw = n.String()
	}
	return nil
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}
