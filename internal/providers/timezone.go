package providers

import "time"

// ResolveTimezone returns a location for a tz string, or nil if invalid.
func ResolveTimezone(tz string) *time.Location {
	if tz == "" {
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil
	}
	return loc
}

// LocalDate formats now as YYYY-MM-DD in loc, falling back to UTC.
func LocalDate(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}
