// Package calendar provides the fiscal calendar: years and periods that
// partition time for the ledger. Both are generated lazily, extending
// forward from the latest known boundary.
package calendar

import (
	"fmt"
	"time"

	"kontor/internal/core/id"
)

// FiscalYear is a closed date range covering roughly one year.
// Ranges never overlap and are ordered by start. A closed year is
// immutable to new postings.
type FiscalYear struct {
	ID     id.ID     `db:"id" json:"id"`
	Start  time.Time `db:"start_date" json:"start"`
	End    time.Time `db:"end_date" json:"end"`
	Closed bool      `db:"closed" json:"closed"`
}

// Contains reports whether the date falls within the year.
func (y FiscalYear) Contains(d time.Time) bool {
	return !d.Before(y.Start) && !d.After(y.End)
}

// Label renders the year by its end date, e.g. "2024".
func (y FiscalYear) Label() string {
	return fmt.Sprintf("%d", y.End.Year())
}

// FiscalPeriod is a calendar-month range. It must lie entirely within
// one fiscal year.
type FiscalPeriod struct {
	ID           id.ID     `db:"id" json:"id"`
	Start        time.Time `db:"start_date" json:"start"`
	End          time.Time `db:"end_date" json:"end"`
	FiscalYearID id.ID     `db:"fiscal_year_id" json:"fiscalYearId"`
}

// Contains reports whether the date falls within the period.
func (p FiscalPeriod) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Label renders the period as "month/year", e.g. "3/2024".
func (p FiscalPeriod) Label() string {
	return fmt.Sprintf("%d/%d", int(p.Start.Month()), p.Start.Year())
}
