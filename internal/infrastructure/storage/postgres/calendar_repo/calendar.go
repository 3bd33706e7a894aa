// Package calendar_repo implements calendar.Repository on PostgreSQL.
package calendar_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/calendar"
	"kontor/internal/infrastructure/storage/postgres"
)

const (
	yearTable   = "fiscal_years"
	periodTable = "fiscal_periods"
)

var _ calendar.Repository = (*CalendarRepo)(nil)

// CalendarRepo implements calendar.Repository.
type CalendarRepo struct {
	txm *postgres.TxManager
}

// NewCalendarRepo creates a new calendar repository.
func NewCalendarRepo(txm *postgres.TxManager) *CalendarRepo {
	return &CalendarRepo{txm: txm}
}

func (r *CalendarRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *CalendarRepo) selectYears() squirrel.SelectBuilder {
	return r.builder().
		Select("id", "start_date", "end_date", "closed").
		From(yearTable)
}

func (r *CalendarRepo) selectPeriods() squirrel.SelectBuilder {
	return r.builder().
		Select("id", "start_date", "end_date", "fiscal_year_id").
		From(periodTable)
}

// GetYear retrieves a fiscal year by ID.
func (r *CalendarRepo) GetYear(ctx context.Context, yearID id.ID) (calendar.FiscalYear, error) {
	return r.getYear(ctx, r.selectYears().Where(squirrel.Eq{"id": yearID}), yearID)
}

// YearByDate finds the fiscal year containing the date.
func (r *CalendarRepo) YearByDate(ctx context.Context, date time.Time) (calendar.FiscalYear, error) {
	q := r.selectYears().
		Where(squirrel.LtOrEq{"start_date": date}).
		Where(squirrel.GtOrEq{"end_date": date}).
		Limit(1)
	return r.getYear(ctx, q, date.Format("2006-01-02"))
}

// YearByLabel finds the fiscal year contained in the given calendar year.
func (r *CalendarRepo) YearByLabel(ctx context.Context, label int) (calendar.FiscalYear, error) {
	q := r.selectYears().
		Where(squirrel.Gt{"start_date": time.Date(label-1, time.December, 31, 0, 0, 0, 0, time.UTC)}).
		Where(squirrel.Lt{"end_date": time.Date(label+1, time.January, 1, 0, 0, 0, 0, time.UTC)}).
		Limit(1)
	return r.getYear(ctx, q, label)
}

// LatestYear returns the fiscal year with the latest end.
func (r *CalendarRepo) LatestYear(ctx context.Context) (calendar.FiscalYear, error) {
	q := r.selectYears().OrderBy("end_date DESC").Limit(1)
	return r.getYear(ctx, q, "latest")
}

// EarliestYear returns the fiscal year with the earliest start.
func (r *CalendarRepo) EarliestYear(ctx context.Context) (calendar.FiscalYear, error) {
	q := r.selectYears().OrderBy("start_date ASC").Limit(1)
	return r.getYear(ctx, q, "earliest")
}

func (r *CalendarRepo) getYear(ctx context.Context, q squirrel.SelectBuilder, key any) (calendar.FiscalYear, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return calendar.FiscalYear{}, fmt.Errorf("build query: %w", err)
	}

	var year calendar.FiscalYear
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &year, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return calendar.FiscalYear{}, apperror.NewNotFound("fiscal year", key)
		}
		return calendar.FiscalYear{}, fmt.Errorf("get fiscal year: %w", err)
	}
	return year, nil
}

// ListYears returns all fiscal years ordered by start.
func (r *CalendarRepo) ListYears(ctx context.Context) ([]calendar.FiscalYear, error) {
	sql, args, err := r.selectYears().OrderBy("start_date ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var years []calendar.FiscalYear
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &years, sql, args...); err != nil {
		return nil, fmt.Errorf("list fiscal years: %w", err)
	}
	return years, nil
}

// CreateYear inserts a new fiscal year.
func (r *CalendarRepo) CreateYear(ctx context.Context, year *calendar.FiscalYear) error {
	sql, args, err := r.builder().
		Insert(yearTable).
		Columns("id", "start_date", "end_date", "closed").
		Values(year.ID, year.Start, year.End, year.Closed).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// UpdateYear persists changes to a fiscal year.
func (r *CalendarRepo) UpdateYear(ctx context.Context, year *calendar.FiscalYear) error {
	sql, args, err := r.builder().
		Update(yearTable).
		Set("start_date", year.Start).
		Set("end_date", year.End).
		Set("closed", year.Closed).
		Where(squirrel.Eq{"id": year.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("fiscal year", year.ID)
	}
	return nil
}

// GetPeriod retrieves a fiscal period by ID.
func (r *CalendarRepo) GetPeriod(ctx context.Context, periodID id.ID) (calendar.FiscalPeriod, error) {
	return r.getPeriod(ctx, r.selectPeriods().Where(squirrel.Eq{"id": periodID}), periodID)
}

// PeriodByDate finds the fiscal period containing the date.
func (r *CalendarRepo) PeriodByDate(ctx context.Context, date time.Time) (calendar.FiscalPeriod, error) {
	q := r.selectPeriods().
		Where(squirrel.LtOrEq{"start_date": date}).
		Where(squirrel.GtOrEq{"end_date": date}).
		Limit(1)
	return r.getPeriod(ctx, q, date.Format("2006-01-02"))
}

func (r *CalendarRepo) getPeriod(ctx context.Context, q squirrel.SelectBuilder, key any) (calendar.FiscalPeriod, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return calendar.FiscalPeriod{}, fmt.Errorf("build query: %w", err)
	}

	var period calendar.FiscalPeriod
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &period, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return calendar.FiscalPeriod{}, apperror.NewNotFound("fiscal period", key)
		}
		return calendar.FiscalPeriod{}, fmt.Errorf("get fiscal period: %w", err)
	}
	return period, nil
}

// ListPeriods returns all periods of a fiscal year ordered by start.
func (r *CalendarRepo) ListPeriods(ctx context.Context, yearID id.ID) ([]calendar.FiscalPeriod, error) {
	sql, args, err := r.selectPeriods().
		Where(squirrel.Eq{"fiscal_year_id": yearID}).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var periods []calendar.FiscalPeriod
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &periods, sql, args...); err != nil {
		return nil, fmt.Errorf("list fiscal periods: %w", err)
	}
	return periods, nil
}

// CreatePeriod inserts a new fiscal period.
func (r *CalendarRepo) CreatePeriod(ctx context.Context, period *calendar.FiscalPeriod) error {
	sql, args, err := r.builder().
		Insert(periodTable).
		Columns("id", "start_date", "end_date", "fiscal_year_id").
		Values(period.ID, period.Start, period.End, period.FiscalYearID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}
