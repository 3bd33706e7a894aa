package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/calendar"
	"kontor/internal/infrastructure/storage/memory"
)

func newCalendar() (*calendar.Service, *memory.Store) {
	store := memory.NewStore()
	return calendar.NewService(store), store
}

func TestYearByDate_GeneratesFirstYear(t *testing.T) {
	svc, _ := newCalendar()
	ctx := context.Background()

	year, err := svc.YearByDate(ctx, types.Date(2024, time.March, 15))
	require.NoError(t, err)

	assert.Equal(t, types.Date(2024, time.January, 1), year.Start)
	assert.Equal(t, types.Date(2024, time.December, 31), year.End)
	assert.Equal(t, "2024", year.Label())
	assert.False(t, year.Closed)
}

func TestYearByDate_ExtendsForwardGapFree(t *testing.T) {
	svc, _ := newCalendar()
	ctx := context.Background()

	_, err := svc.YearByDate(ctx, types.Date(2024, time.June, 1))
	require.NoError(t, err)

	// Two years ahead: the missing 2025 must be generated on the way.
	year, err := svc.YearByDate(ctx, types.Date(2026, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, "2026", year.Label())

	years, err := svc.Years(ctx)
	require.NoError(t, err)
	require.Len(t, years, 3)
	for i := 1; i < len(years); i++ {
		assert.Equal(t, years[i-1].End.AddDate(0, 0, 1), years[i].Start,
			"years must be contiguous")
	}
}

func TestYearByDate_EndSnapsToMonthEnd(t *testing.T) {
	svc, _ := newCalendar()
	ctx := context.Background()

	for _, date := range []time.Time{
		types.Date(2024, time.February, 29),
		types.Date(2025, time.July, 1),
		types.Date(2027, time.December, 31),
	} {
		year, err := svc.YearByDate(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, types.MonthEnd(year.End), year.End,
			"year end must land on a month end")
		assert.True(t, year.Contains(date))
	}
}

func TestYearByDate_NeverExtendsBackwards(t *testing.T) {
	svc, _ := newCalendar()
	ctx := context.Background()

	_, err := svc.YearByDate(ctx, types.Date(2024, time.June, 1))
	require.NoError(t, err)

	_, err = svc.YearByDate(ctx, types.Date(2023, time.May, 1))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	years, err := svc.Years(ctx)
	require.NoError(t, err)
	assert.Len(t, years, 1, "a failed backwards lookup must not create years")
}

func TestPeriodByDate_GeneratesCalendarMonth(t *testing.T) {
	svc, _ := newCalendar()
	ctx := context.Background()

	period, err := svc.PeriodByDate(ctx, types.Date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, types.Date(2024, time.March, 1), period.Start)
	assert.Equal(t, types.Date(2024, time.March, 31), period.End)
	assert.Equal(t, "3/2024", period.Label())

	year, err := svc.Year(ctx, period.FiscalYearID)
	require.NoError(t, err)
	assert.True(t, year.Contains(period.Start))
	assert.True(t, year.Contains(period.End))

	// Second lookup reuses the existing period.
	again, err := svc.PeriodByDate(ctx, types.Date(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, period.ID, again.ID)
}

func TestGeneratePeriod_RejectsPeriodSpanningYears(t *testing.T) {
	svc, store := newCalendar()
	ctx := context.Background()

	// A hand-made calendar with a year boundary in the middle of March.
	first := calendar.FiscalYear{
		ID:    id.New(),
		Start: types.Date(2024, time.January, 1),
		End:   types.Date(2024, time.March, 15),
	}
	second := calendar.FiscalYear{
		ID:    id.New(),
		Start: types.Date(2024, time.March, 16),
		End:   types.Date(2024, time.December, 31),
	}
	require.NoError(t, store.CreateYear(ctx, &first))
	require.NoError(t, store.CreateYear(ctx, &second))

	_, err := svc.GeneratePeriod(ctx, types.Date(2024, time.March, 10))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodSpansYears))
}
