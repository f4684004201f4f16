package services

import "time"

const dateLayout = "2006-01-02"

// CalendarDate truncates t to its calendar day in loc. Calendar days are carried as
// midnight UTC so they round-trip through DATE columns unchanged.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// storedDate normalizes a date read back from the database. Drivers return DATE values
// as midnight in their configured location, so the wall-clock date is kept as is.
func storedDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(storedDate(b).Sub(storedDate(a)) / (24 * time.Hour))
}

// MonthCode is the bonus code for the month containing t in loc, e.g. MONTH-2025-10.
func MonthCode(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return "MONTH-" + t.In(loc).Format("2006-01")
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := storedDate(*t).Format(dateLayout)
	return &s
}
