package datemath

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date layout used by the record store.
const DateLayout = "2006-01-02"

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate converts a stored date string into a UTC calendar date. Missing or
// malformed values report ok=false instead of failing.
func ParseDate(value string) (time.Time, bool) {
	str := strings.TrimSpace(value)
	if str == "" {
		return time.Time{}, false
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return StartOfDay(t), true
		}
	}

	if len(str) > 10 {
		str = str[:10]
	}
	t, err := time.Parse(DateLayout, str)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StartOfDay returns midnight UTC of the calendar date t falls on in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the calendar-day difference to - from. The result is
// negative when from falls after to.
func DaysBetween(from, to time.Time) int {
	return int(StartOfDay(to).Sub(StartOfDay(from)).Hours() / 24)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}

// Format renders t as a calendar date.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}
