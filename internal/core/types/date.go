package types

import (
	"time"
)

// The fiscal calendar works on whole days. All dates are normalized to
// UTC midnight so equality and ordering comparisons are exact.

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date constructs a normalized date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current date in UTC.
func Today() time.Time {
	return DateOf(time.Now())
}

// MonthStart returns the first day of the month containing d.
func MonthStart(d time.Time) time.Time {
	y, m, _ := d.UTC().Date()
	return Date(y, m, 1)
}

// MonthEnd returns the last day of the month containing d.
func MonthEnd(d time.Time) time.Time {
	return MonthStart(d).AddDate(0, 1, -1)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
