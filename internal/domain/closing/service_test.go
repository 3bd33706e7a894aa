package closing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/account"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/closing"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/infrastructure/storage/memory"
)

type fixture struct {
	store    *memory.Store
	calendar *calendar.Service
	engine   *ledger.Service
	accounts *account.Service
	closer   *closing.Service

	general        journal.Journal
	closingJournal journal.Journal

	cash        account.Account
	sales       account.Account
	expenses    account.Account
	netEarnings account.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	txm := memory.NewTxManager(store)
	cal := calendar.NewService(store)
	journals := journal.NewService(store.Journals(), store)
	engine := ledger.NewService(store, cal, journals, account.NewLedgerSource(store), txm)
	accounts := account.NewService(store, store, engine, journals, cal, txm)
	closer := closing.NewService(cal, store, accounts, journals, engine, txm)

	f := &fixture{
		store:          store,
		calendar:       cal,
		engine:         engine,
		accounts:       accounts,
		closer:         closer,
		general:        journal.Journal{Code: "GJ"},
		closingJournal: journal.Journal{Code: "CL", Closing: true},
	}
	require.NoError(t, journals.Create(ctx, &f.general))
	require.NoError(t, journals.Create(ctx, &f.closingJournal))

	f.cash = f.addAccount(t, "Cash", "1100", account.TypeAsset)
	f.sales = f.addAccount(t, "Sales", "4000", account.TypeIncome)
	f.expenses = f.addAccount(t, "Expenses", "5000", account.TypeExpense)
	f.netEarnings = f.addAccount(t, "Net Earnings", "3900", account.TypeNetEarnings)
	return f
}

func (f *fixture) addAccount(t *testing.T, name, code string, accType account.Type) account.Account {
	t.Helper()
	acc := account.Account{Name: name, Code: code, Type: accType}
	require.NoError(t, f.accounts.Save(context.Background(), &acc))
	return acc
}

func (f *fixture) commitEntry(t *testing.T, debit, credit id.ID, amount string, date time.Time) {
	t.Helper()
	ctx := context.Background()
	d := date
	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Date:      &d,
		Items: []ledger.TransactionItem{
			{AccountID: debit, Amount: types.MustMoney(amount).Neg()},
			{AccountID: credit, Amount: types.MustMoney(amount)},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))
	_, err := f.engine.Commit(ctx, txn.ID)
	require.NoError(t, err)
}

func TestCloseYear_SweepsProfitIntoNetEarnings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.commitEntry(t, f.cash.ID, f.sales.ID, "1000", types.Date(2024, time.March, 1))
	f.commitEntry(t, f.expenses.ID, f.cash.ID, "200", types.Date(2024, time.June, 1))

	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.March, 1))
	require.NoError(t, err)

	result, err := f.closer.CloseYear(ctx, year.ID)
	require.NoError(t, err)

	assert.True(t, result.FiscalYear.Closed)
	assert.Equal(t, "800.00", types.CurrencyDisplay(result.Profit))
	require.NotNil(t, result.TransactionID)

	closingTxn, err := f.engine.Get(ctx, *result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StateCommitted, closingTxn.State)
	assert.True(t, closingTxn.Closing)
	assert.Equal(t, f.closingJournal.ID, closingTxn.JournalID)
	assert.Equal(t, year.End, *closingTxn.Date)
	assert.True(t, closingTxn.Balance().IsZero())

	// P&L accounts end the year at zero once closing entries count.
	yearEnd := year.End
	balance, err := f.accounts.Balance(ctx, f.sales.ID,
		account.BalanceQuery{AsOf: &yearEnd, IncludeClosing: true})
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	balance, err = f.accounts.Balance(ctx, f.expenses.ID,
		account.BalanceQuery{AsOf: &yearEnd, IncludeClosing: true})
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	// Net earnings carries the year's profit.
	balance, err = f.accounts.Balance(ctx, f.netEarnings.ID,
		account.BalanceQuery{AsOf: &yearEnd, IncludeClosing: true})
	require.NoError(t, err)
	assert.Equal(t, "800.00", types.CurrencyDisplay(balance))

	// The closed year rejects new postings.
	d := types.Date(2024, time.July, 1)
	late := ledger.Transaction{
		JournalID: f.general.ID,
		Date:      &d,
		Items: []ledger.TransactionItem{
			{AccountID: f.cash.ID, Amount: types.MustMoney("-10")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("10")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &late))
	_, err = f.engine.Commit(ctx, late.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeFiscalYearClosed))
}

func TestCloseYear_AlreadyClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.commitEntry(t, f.cash.ID, f.sales.ID, "100", types.Date(2024, time.March, 1))
	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.March, 1))
	require.NoError(t, err)

	_, err = f.closer.CloseYear(ctx, year.ID)
	require.NoError(t, err)

	_, err = f.closer.CloseYear(ctx, year.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyClosed))
}

func TestCloseYear_NoActivityPostsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.March, 1))
	require.NoError(t, err)

	result, err := f.closer.CloseYear(ctx, year.ID)
	require.NoError(t, err)

	assert.True(t, result.FiscalYear.Closed)
	assert.Nil(t, result.TransactionID, "a year without P&L balances needs no closing entry")
	assert.True(t, result.Profit.IsZero())

	txns, err := f.engine.List(ctx, ledger.TransactionFilter{JournalID: &f.closingJournal.ID})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCloseYear_BreakEvenSweepsWithoutNetEarningsItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Income exactly offsets expenses: both accounts need sweeping but
	// the net-earnings item is omitted.
	f.commitEntry(t, f.cash.ID, f.sales.ID, "300", types.Date(2024, time.March, 1))
	f.commitEntry(t, f.expenses.ID, f.cash.ID, "300", types.Date(2024, time.April, 1))

	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.March, 1))
	require.NoError(t, err)

	result, err := f.closer.CloseYear(ctx, year.ID)
	require.NoError(t, err)
	assert.True(t, result.Profit.IsZero())
	require.NotNil(t, result.TransactionID)

	closingTxn, err := f.engine.Get(ctx, *result.TransactionID)
	require.NoError(t, err)
	assert.Len(t, closingTxn.Items, 2)
	for _, item := range closingTxn.Items {
		assert.NotEqual(t, f.netEarnings.ID, item.AccountID)
	}
}

func TestCloseYear_FailureLeavesYearOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second net-earnings account breaks the close midway; the year
	// must stay open and no closing entry may survive.
	rogue := account.Account{Name: "Rogue NE", Code: "3901", Type: account.TypeNetEarnings}
	require.NoError(t, f.accounts.Save(ctx, &rogue))

	f.commitEntry(t, f.cash.ID, f.sales.ID, "100", types.Date(2024, time.March, 1))
	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.March, 1))
	require.NoError(t, err)

	_, err = f.closer.CloseYear(ctx, year.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNetEarnings))

	reloaded, err := f.calendar.Year(ctx, year.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Closed)

	txns, err := f.engine.List(ctx, ledger.TransactionFilter{JournalID: &f.closingJournal.ID})
	require.NoError(t, err)
	assert.Empty(t, txns)
}
