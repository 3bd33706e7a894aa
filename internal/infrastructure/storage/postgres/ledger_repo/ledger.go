// Package ledger_repo implements ledger.Repository on PostgreSQL.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/ledger"
	"kontor/internal/infrastructure/storage/postgres"
)

const (
	txnTable  = "transactions"
	itemTable = "transaction_items"
	lotTable  = "lots"
)

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm *postgres.TxManager
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{txm: txm}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LedgerRepo) selectTransactions() squirrel.SelectBuilder {
	return r.builder().
		Select("t.id", "t.journal_id", "t.number", "t.txn_date", "t.description",
			"t.state", "t.closing", "t.fiscal_year_id", "t.period_id").
		From(txnTable + " t")
}

// CreateTransaction inserts a transaction with its items.
func (r *LedgerRepo) CreateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	sql, args, err := r.builder().
		Insert(txnTable).
		Columns("id", "journal_id", "number", "txn_date", "description",
			"state", "closing", "fiscal_year_id", "period_id").
		Values(txn.ID, txn.JournalID, txn.Number, txn.Date, txn.Description,
			txn.State, txn.Closing, txn.FiscalYearID, txn.PeriodID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return r.insertItems(ctx, txn)
}

// UpdateTransaction persists the header and replaces the items.
func (r *LedgerRepo) UpdateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	sql, args, err := r.builder().
		Update(txnTable).
		Set("journal_id", txn.JournalID).
		Set("number", txn.Number).
		Set("txn_date", txn.Date).
		Set("description", txn.Description).
		Set("state", txn.State).
		Set("closing", txn.Closing).
		Set("fiscal_year_id", txn.FiscalYearID).
		Set("period_id", txn.PeriodID).
		Where(squirrel.Eq{"id": txn.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", txn.ID)
	}

	delSQL, delArgs, err := r.builder().
		Delete(itemTable).
		Where(squirrel.Eq{"transaction_id": txn.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return postgres.MapError(err)
	}
	return r.insertItems(ctx, txn)
}

func (r *LedgerRepo) insertItems(ctx context.Context, txn *ledger.Transaction) error {
	if len(txn.Items) == 0 {
		return nil
	}
	q := r.builder().
		Insert(itemTable).
		Columns("id", "transaction_id", "account_id", "lot_id", "amount", "description")
	for _, item := range txn.Items {
		q = q.Values(item.ID, item.TransactionID, item.AccountID, item.LotID,
			item.Amount, item.Description)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// GetTransaction retrieves a transaction with its items loaded.
func (r *LedgerRepo) GetTransaction(ctx context.Context, txnID id.ID) (ledger.Transaction, error) {
	sql, args, err := r.selectTransactions().
		Where(squirrel.Eq{"t.id": txnID}).
		ToSql()
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("build query: %w", err)
	}

	var txn ledger.Transaction
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &txn, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.Transaction{}, apperror.NewNotFound("transaction", txnID)
		}
		return ledger.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := r.loadItems(ctx, &txn); err != nil {
		return ledger.Transaction{}, err
	}
	return txn, nil
}

func (r *LedgerRepo) loadItems(ctx context.Context, txn *ledger.Transaction) error {
	sql, args, err := r.builder().
		Select("id", "transaction_id", "account_id", "lot_id", "amount", "description").
		From(itemTable).
		Where(squirrel.Eq{"transaction_id": txn.ID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &txn.Items, sql, args...); err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	return nil
}

// ListTransactions returns transactions matching the filter, items loaded.
func (r *LedgerRepo) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	q := r.selectTransactions()
	if filter.JournalID != nil {
		q = q.Where(squirrel.Eq{"t.journal_id": *filter.JournalID})
	}
	if filter.FiscalYearID != nil {
		q = q.Where(squirrel.Eq{"t.fiscal_year_id": *filter.FiscalYearID})
	}
	if filter.State != nil {
		q = q.Where(squirrel.Eq{"t.state": *filter.State})
	}
	if filter.DateOrder {
		q = q.OrderBy("t.txn_date ASC NULLS LAST", "t.number ASC NULLS LAST", "t.id ASC")
	} else {
		q = q.OrderBy("t.id ASC")
	}
	return r.listWithItems(ctx, q)
}

// ListAccountTransactions returns committed transactions touching the
// account, ordered by (date, number).
func (r *LedgerRepo) ListAccountTransactions(ctx context.Context, accountID id.ID) ([]ledger.Transaction, error) {
	q := r.selectTransactions().
		Where(squirrel.Eq{"t.state": ledger.StateCommitted}).
		Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM "+itemTable+" i WHERE i.transaction_id = t.id AND i.account_id = ?)",
			accountID)).
		OrderBy("t.txn_date ASC", "t.number ASC", "t.id ASC")
	return r.listWithItems(ctx, q)
}

func (r *LedgerRepo) listWithItems(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.Transaction, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var txns []ledger.Transaction
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &txns, sql, args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	for i := range txns {
		if err := r.loadItems(ctx, &txns[i]); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// MaxTransactionNumber returns the highest issued number in the
// (journal, fiscal year) sequence. Drafts carry no fiscal year, so only
// committed transactions participate.
func (r *LedgerRepo) MaxTransactionNumber(ctx context.Context, journalID, fiscalYearID id.ID) (int, error) {
	sql, args, err := r.builder().
		Select("COALESCE(MAX(number), 0)").
		From(txnTable).
		Where(squirrel.Eq{"journal_id": journalID, "fiscal_year_id": fiscalYearID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var max int
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &max, sql, args...); err != nil {
		return 0, fmt.Errorf("max transaction number: %w", err)
	}
	return max, nil
}

// NumberExists reports whether the committed number slot is taken.
func (r *LedgerRepo) NumberExists(ctx context.Context, journalID, fiscalYearID id.ID, number int) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From(txnTable).
		Where(squirrel.Eq{
			"journal_id":     journalID,
			"fiscal_year_id": fiscalYearID,
			"number":         number,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check transaction number: %w", err)
	}
	return true, nil
}

// SumItems returns the signed sum of committed item amounts matching the
// filter.
func (r *LedgerRepo) SumItems(ctx context.Context, filter ledger.ItemFilter) (types.Money, error) {
	q := r.builder().
		Select("COALESCE(SUM(i.amount), 0)").
		From(itemTable + " i").
		Join(txnTable + " t ON t.id = i.transaction_id").
		Where(squirrel.Eq{"t.state": ledger.StateCommitted})

	if len(filter.AccountIDs) > 0 {
		q = q.Where(squirrel.Eq{"i.account_id": filter.AccountIDs})
	}
	if filter.LotID != nil {
		q = q.Where(squirrel.Eq{"i.lot_id": *filter.LotID})
	}
	if filter.TransactionID != nil {
		q = q.Where(squirrel.Eq{"i.transaction_id": *filter.TransactionID})
	}
	if filter.FiscalYearID != nil {
		q = q.Where(squirrel.Eq{"t.fiscal_year_id": *filter.FiscalYearID})
	}
	if filter.PeriodID != nil {
		q = q.Where(squirrel.Eq{"t.period_id": *filter.PeriodID})
	}
	if filter.ClosingOnly {
		q = q.Where(squirrel.Eq{"t.closing": true})
	}
	if filter.AsOf != nil {
		if filter.IncludeClosing {
			q = q.Where(squirrel.LtOrEq{"t.txn_date": *filter.AsOf})
		} else {
			// Closing entries dated exactly on the year end do not count
			// toward the position "as of" that date.
			q = q.Where(squirrel.Or{
				squirrel.Lt{"t.txn_date": *filter.AsOf},
				squirrel.And{
					squirrel.Eq{"t.txn_date": *filter.AsOf},
					squirrel.Eq{"t.closing": false},
				},
			})
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var sum types.Money
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sum, sql, args...); err != nil {
		return types.Zero(), fmt.Errorf("sum items: %w", err)
	}
	return sum, nil
}

// PeriodTotals returns per-period absolute debit and credit sums of
// committed items for the accounts, within the fiscal year.
func (r *LedgerRepo) PeriodTotals(ctx context.Context, accountIDs []id.ID, fiscalYearID id.ID) ([]ledger.PeriodTotal, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	q := r.builder().
		Select(
			"t.period_id AS period_id",
			"COALESCE(SUM(CASE WHEN i.amount < 0 THEN -i.amount ELSE 0 END), 0) AS debit",
			"COALESCE(SUM(CASE WHEN i.amount > 0 THEN i.amount ELSE 0 END), 0) AS credit",
		).
		From(itemTable + " i").
		Join(txnTable + " t ON t.id = i.transaction_id").
		Join("fiscal_periods p ON p.id = t.period_id").
		Where(squirrel.Eq{"t.state": ledger.StateCommitted}).
		Where(squirrel.Eq{"i.account_id": accountIDs}).
		Where(squirrel.Eq{"t.fiscal_year_id": fiscalYearID}).
		GroupBy("t.period_id", "p.start_date").
		OrderBy("p.start_date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var totals []ledger.PeriodTotal
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &totals, sql, args...); err != nil {
		return nil, fmt.Errorf("period totals: %w", err)
	}
	return totals, nil
}

// CreateLot inserts a lot.
func (r *LedgerRepo) CreateLot(ctx context.Context, lot *ledger.Lot) error {
	sql, args, err := r.builder().
		Insert(lotTable).
		Columns("id", "account_id", "fiscal_year_id", "number", "description").
		Values(lot.ID, lot.AccountID, lot.FiscalYearID, lot.Number, lot.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// GetLot retrieves a lot by ID.
func (r *LedgerRepo) GetLot(ctx context.Context, lotID id.ID) (ledger.Lot, error) {
	sql, args, err := r.builder().
		Select("id", "account_id", "fiscal_year_id", "number", "description").
		From(lotTable).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return ledger.Lot{}, fmt.Errorf("build query: %w", err)
	}

	var lot ledger.Lot
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.Lot{}, apperror.NewNotFound("lot", lotID)
		}
		return ledger.Lot{}, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// ListLots returns the lots of an account ordered by fiscal year and
// number.
func (r *LedgerRepo) ListLots(ctx context.Context, accountID id.ID) ([]ledger.Lot, error) {
	sql, args, err := r.builder().
		Select("l.id", "l.account_id", "l.fiscal_year_id", "l.number", "l.description").
		From(lotTable + " l").
		Join("fiscal_years y ON y.id = l.fiscal_year_id").
		Where(squirrel.Eq{"l.account_id": accountID}).
		OrderBy("y.start_date ASC", "l.number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []ledger.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}

// MaxLotNumber returns the highest lot number in the (account, fiscal
// year) sequence, or 0 when none.
func (r *LedgerRepo) MaxLotNumber(ctx context.Context, accountID, fiscalYearID id.ID) (int, error) {
	sql, args, err := r.builder().
		Select("COALESCE(MAX(number), 0)").
		From(lotTable).
		Where(squirrel.Eq{"account_id": accountID, "fiscal_year_id": fiscalYearID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var max int
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &max, sql, args...); err != nil {
		return 0, fmt.Errorf("max lot number: %w", err)
	}
	return max, nil
}
