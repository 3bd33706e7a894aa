package memory

import (
	"context"
	"sort"
	"time"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/calendar"
)

var _ calendar.Repository = (*Store)(nil)

// GetYear retrieves a fiscal year by ID.
func (s *Store) GetYear(ctx context.Context, yearID id.ID) (calendar.FiscalYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	year, ok := s.years[yearID]
	if !ok {
		return calendar.FiscalYear{}, apperror.NewNotFound("fiscal year", yearID)
	}
	return year, nil
}

// YearByDate finds the fiscal year containing the date.
func (s *Store) YearByDate(ctx context.Context, date time.Time) (calendar.FiscalYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, year := range s.years {
		if year.Contains(date) {
			return year, nil
		}
	}
	return calendar.FiscalYear{}, apperror.NewNotFound("fiscal year", date.Format("2006-01-02"))
}

// YearByLabel finds the fiscal year contained in the given calendar year.
func (s *Store) YearByLabel(ctx context.Context, label int) (calendar.FiscalYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lower := time.Date(label-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	upper := time.Date(label+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, year := range s.years {
		if year.Start.After(lower) && year.End.Before(upper) {
			return year, nil
		}
	}
	return calendar.FiscalYear{}, apperror.NewNotFound("fiscal year", label)
}

// LatestYear returns the fiscal year with the latest end.
func (s *Store) LatestYear(ctx context.Context) (calendar.FiscalYear, error) {
	years, err := s.ListYears(ctx)
	if err != nil || len(years) == 0 {
		return calendar.FiscalYear{}, apperror.NewNotFound("fiscal year", "latest")
	}
	return years[len(years)-1], nil
}

// EarliestYear returns the fiscal year with the earliest start.
func (s *Store) EarliestYear(ctx context.Context) (calendar.FiscalYear, error) {
	years, err := s.ListYears(ctx)
	if err != nil || len(years) == 0 {
		return calendar.FiscalYear{}, apperror.NewNotFound("fiscal year", "earliest")
	}
	return years[0], nil
}

// ListYears returns all fiscal years ordered by start.
func (s *Store) ListYears(ctx context.Context) ([]calendar.FiscalYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	years := make([]calendar.FiscalYear, 0, len(s.years))
	for _, year := range s.years {
		years = append(years, year)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Start.Before(years[j].Start) })
	return years, nil
}

// CreateYear inserts a new fiscal year.
func (s *Store) CreateYear(ctx context.Context, year *calendar.FiscalYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[year.ID] = *year
	return nil
}

// UpdateYear persists changes to a fiscal year.
func (s *Store) UpdateYear(ctx context.Context, year *calendar.FiscalYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.years[year.ID]; !ok {
		return apperror.NewNotFound("fiscal year", year.ID)
	}
	s.years[year.ID] = *year
	return nil
}

// GetPeriod retrieves a fiscal period by ID.
func (s *Store) GetPeriod(ctx context.Context, periodID id.ID) (calendar.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[periodID]
	if !ok {
		return calendar.FiscalPeriod{}, apperror.NewNotFound("fiscal period", periodID)
	}
	return period, nil
}

// PeriodByDate finds the fiscal period containing the date.
func (s *Store) PeriodByDate(ctx context.Context, date time.Time) (calendar.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, period := range s.periods {
		if period.Contains(date) {
			return period, nil
		}
	}
	return calendar.FiscalPeriod{}, apperror.NewNotFound("fiscal period", date.Format("2006-01-02"))
}

// ListPeriods returns all periods of a fiscal year ordered by start.
func (s *Store) ListPeriods(ctx context.Context, yearID id.ID) ([]calendar.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var periods []calendar.FiscalPeriod
	for _, period := range s.periods {
		if period.FiscalYearID == yearID {
			periods = append(periods, period)
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })
	return periods, nil
}

// CreatePeriod inserts a new fiscal period.
func (s *Store) CreatePeriod(ctx context.Context, period *calendar.FiscalPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[period.ID] = *period
	return nil
}
