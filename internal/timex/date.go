package timex

import "time"

// DateLayout is the calendar-date format used for due dates, profit dates
// and review dates. Dates in this layout compare correctly as strings.
const DateLayout = "2006-01-02"

// FormatDate returns t's calendar date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days. ok is false when
// date does not parse.
func AddDays(date string, n int) (string, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return "", false
	}
	return FormatDate(t.AddDate(0, 0, n)), true
}

// NormalizeDate accepts a calendar date or an RFC 3339 timestamp and returns
// its UTC calendar date. ok is false for anything else.
func NormalizeDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if t, err := ParseDate(s); err == nil {
		return FormatDate(t), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return FormatDate(t.UTC()), true
	}
	return "", false
}
