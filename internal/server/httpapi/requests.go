package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/timex"
)

// tagList accepts either a JSON array or a comma separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = models.SplitTags(s)
		return nil
	}
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	tags := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		tags = append(tags, fmt.Sprint(v))
	}
	*t = models.NormalizeTags(tags)
	return nil
}

// looseInt accepts a number or a numeric string. Anything else decodes
// without error but reports ok == false.
type looseInt struct {
	n  int
	ok bool
}

func (l *looseInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			*l = looseInt{}
			return nil
		}
		f = parsed
	default:
		*l = looseInt{}
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		*l = looseInt{}
		return nil
	}
	*l = looseInt{n: int(math.Round(f)), ok: true}
	return nil
}

// trimmed turns a string field into a patch entry. Null and absent both
// leave the stored value alone.
func trimmed(f models.Field[string]) models.Field[string] {
	if !f.Present() || f.IsNull() {
		return models.Field[string]{}
	}
	return models.Set(strings.TrimSpace(f.Value()))
}

func optional[T any](f models.Field[T]) models.Field[T] {
	if !f.Present() || f.IsNull() {
		return models.Field[T]{}
	}
	return f
}

func trimPtr(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// dateField validates a date patch: null or "" clears it, a date or
// timestamp is normalized to YYYY-MM-DD, anything else is rejected.
func dateField(f models.Field[string], name string) (models.Field[string], error) {
	if !f.Present() {
		return f, nil
	}
	if f.IsNull() || strings.TrimSpace(f.Value()) == "" {
		return models.Null[string](), nil
	}
	d, ok := timex.NormalizeDate(strings.TrimSpace(f.Value()))
	if !ok {
		return f, fmt.Errorf("%w: invalid %s", common.ErrValidation, name)
	}
	return models.Set(d), nil
}

// rating maps a loose number to an optional int: zero and non-numbers mean
// "no value".
func rating(l *looseInt) *int {
	if l == nil || !l.ok || l.n == 0 {
		return nil
	}
	n := l.n
	return &n
}

func ratingField(f models.Field[looseInt]) models.Field[int] {
	if !f.Present() {
		return models.Field[int]{}
	}
	v := f.Value()
	if p := rating(&v); p != nil && !f.IsNull() {
		return models.Set(*p)
	}
	return models.Null[int]()
}

func tagsField(f models.Field[tagList]) models.Field[[]string] {
	if !f.Present() || f.IsNull() {
		return models.Field[[]string]{}
	}
	return models.Set([]string(f.Value()))
}
