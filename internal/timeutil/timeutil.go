package timeutil

import (
	"fmt"
	"time"
)

// DateLayout defines the canonical date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// MaxRangeDays caps date ranges accepted from callers.
const MaxRangeDays = 62

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// FormatDate formats a time as YYYY-MM-DD in its current location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateRange expands start..end (inclusive) into dates. An empty end means start.
func DateRange(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	if end == "" {
		end = start
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s before start date %s", end, start)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, fmt.Errorf("date range of %d days exceeds %d", days, MaxRangeDays)
	}
	out := make([]string, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, FormatDate(d))
	}
	return out, nil
}
