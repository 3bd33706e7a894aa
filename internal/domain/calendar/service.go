package calendar

import (
	"context"
	"time"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/pkg/logger"
)

// yearSpan approximates one year when extending the calendar; the end is
// snapped back to the preceding month end, so year boundaries always land
// on the last day of a month.
const yearSpan = 366

// Service provides fiscal calendar operations: lookup by date with lazy
// forward generation of missing years and periods.
type Service struct {
	repo Repository
}

// NewService creates a new calendar service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Year retrieves a fiscal year by ID.
func (s *Service) Year(ctx context.Context, yearID id.ID) (FiscalYear, error) {
	return s.repo.GetYear(ctx, yearID)
}

// Years returns all fiscal years ordered by start.
func (s *Service) Years(ctx context.Context) ([]FiscalYear, error) {
	return s.repo.ListYears(ctx)
}

// YearByLabel finds the fiscal year contained in the given calendar year.
func (s *Service) YearByLabel(ctx context.Context, label int) (FiscalYear, error) {
	return s.repo.YearByLabel(ctx, label)
}

// YearByDate finds the fiscal year containing the date, generating missing
// years when the date falls past the latest known year. The calendar only
// extends forward: dates before the earliest year's start are NotFound.
func (s *Service) YearByDate(ctx context.Context, date time.Time) (FiscalYear, error) {
	date = types.DateOf(date)

	year, err := s.repo.YearByDate(ctx, date)
	if err == nil {
		return year, nil
	}
	if !apperror.IsNotFound(err) {
		return FiscalYear{}, err
	}

	earliest, err := s.repo.EarliestYear(ctx)
	if err == nil && date.Before(earliest.Start) {
		return FiscalYear{}, apperror.NewNotFound("fiscal year", date.Format("2006-01-02")).
			WithDetail("reason", "date precedes the fiscal calendar start")
	}
	if err != nil && !apperror.IsNotFound(err) {
		return FiscalYear{}, err
	}

	return s.GenerateYear(ctx, date)
}

// GenerateYear extends the year sequence forward one year at a time from
// the latest existing year until a year's end covers the date. No year is
// ever skipped, so the sequence stays gap-free and non-overlapping.
func (s *Service) GenerateYear(ctx context.Context, date time.Time) (FiscalYear, error) {
	date = types.DateOf(date)

	latest, err := s.repo.LatestYear(ctx)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return FiscalYear{}, err
		}
		// No years yet: seed a virtual predecessor ending the day before
		// Jan 1 of the target year, so the first real year starts there.
		latest = FiscalYear{End: types.Date(date.Year()-1, time.December, 31)}
	}

	for latest.End.Before(date) {
		start := latest.End.AddDate(0, 0, 1)
		reach := start.AddDate(0, 0, yearSpan)
		end := types.MonthStart(reach).AddDate(0, 0, -1)

		year := FiscalYear{ID: id.New(), Start: start, End: end}
		if err := s.repo.CreateYear(ctx, &year); err != nil {
			return FiscalYear{}, err
		}
		logger.Info(ctx, "fiscal year generated",
			"start", start.Format("2006-01-02"),
			"end", end.Format("2006-01-02"))
		latest = year
	}

	return latest, nil
}

// Period retrieves a fiscal period by ID.
func (s *Service) Period(ctx context.Context, periodID id.ID) (FiscalPeriod, error) {
	return s.repo.GetPeriod(ctx, periodID)
}

// Periods returns all periods of a fiscal year ordered by start.
func (s *Service) Periods(ctx context.Context, yearID id.ID) ([]FiscalPeriod, error) {
	return s.repo.ListPeriods(ctx, yearID)
}

// PeriodByDate finds the fiscal period containing the date, generating the
// calendar-month period (and its fiscal year) when missing.
func (s *Service) PeriodByDate(ctx context.Context, date time.Time) (FiscalPeriod, error) {
	date = types.DateOf(date)

	period, err := s.repo.PeriodByDate(ctx, date)
	if err == nil {
		return period, nil
	}
	if !apperror.IsNotFound(err) {
		return FiscalPeriod{}, err
	}

	return s.GeneratePeriod(ctx, date)
}

// GeneratePeriod creates the calendar-month period containing the date.
// A period straddling two fiscal years is a validation failure, never an
// auto-fix.
func (s *Service) GeneratePeriod(ctx context.Context, date time.Time) (FiscalPeriod, error) {
	start := types.MonthStart(date)
	end := types.MonthEnd(date)

	startYear, err := s.YearByDate(ctx, start)
	if err != nil {
		return FiscalPeriod{}, err
	}
	endYear, err := s.YearByDate(ctx, end)
	if err != nil {
		return FiscalPeriod{}, err
	}
	if startYear.ID != endYear.ID {
		return FiscalPeriod{}, apperror.NewPeriodSpansYears(
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	period := FiscalPeriod{
		ID:           id.New(),
		Start:        start,
		End:          end,
		FiscalYearID: startYear.ID,
	}
	if err := s.repo.CreatePeriod(ctx, &period); err != nil {
		return FiscalPeriod{}, err
	}

	return period, nil
}
