package calendar

import (
	"context"
	"time"

	"kontor/internal/core/id"
)

// Repository defines persistence operations for the fiscal calendar.
// Implementations live in the infrastructure layer.
type Repository interface {
	// GetYear retrieves a fiscal year by ID.
	GetYear(ctx context.Context, yearID id.ID) (FiscalYear, error)

	// YearByDate finds the year whose range contains the date.
	// Returns a NotFound error when no such year exists.
	YearByDate(ctx context.Context, date time.Time) (FiscalYear, error)

	// YearByLabel finds the year contained in the given calendar year.
	// Returns a NotFound error when no such year exists.
	YearByLabel(ctx context.Context, label int) (FiscalYear, error)

	// LatestYear returns the year with the greatest end date.
	// Returns a NotFound error when no years exist yet.
	LatestYear(ctx context.Context) (FiscalYear, error)

	// EarliestYear returns the year with the smallest start date.
	// Returns a NotFound error when no years exist yet.
	EarliestYear(ctx context.Context) (FiscalYear, error)

	// ListYears returns all fiscal years ordered by start.
	ListYears(ctx context.Context) ([]FiscalYear, error)

	// CreateYear inserts a new fiscal year.
	CreateYear(ctx context.Context, year *FiscalYear) error

	// UpdateYear persists changes to a fiscal year (closing it).
	UpdateYear(ctx context.Context, year *FiscalYear) error

	// GetPeriod retrieves a fiscal period by ID.
	GetPeriod(ctx context.Context, periodID id.ID) (FiscalPeriod, error)

	// PeriodByDate finds the period whose range contains the date.
	// Returns a NotFound error when no such period exists.
	PeriodByDate(ctx context.Context, date time.Time) (FiscalPeriod, error)

	// ListPeriods returns all periods of a fiscal year ordered by start.
	ListPeriods(ctx context.Context, yearID id.ID) ([]FiscalPeriod, error)

	// CreatePeriod inserts a new fiscal period.
	CreatePeriod(ctx context.Context, period *FiscalPeriod) error
}
