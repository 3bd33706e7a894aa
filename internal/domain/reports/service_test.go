package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kontor/internal/core/apperror"
	"kontor/internal/core/types"
	"kontor/internal/domain/account"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/domain/reports"
	"kontor/internal/infrastructure/storage/memory"
)

type fixture struct {
	engine   *ledger.Service
	accounts *account.Service
	reports  *reports.Service

	general journal.Journal
	cash    account.Account
	sales   account.Account
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

	f := &fixture{
		engine:   engine,
		accounts: accounts,
		reports:  reports.NewService(cal, accounts, journals, engine),
		general:  journal.Journal{Code: "GJ"},
	}
	require.NoError(t, journals.Create(ctx, &f.general))

	f.cash = account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset, Public: true}
	require.NoError(t, accounts.Save(ctx, &f.cash))
	f.sales = account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome, Public: true}
	require.NoError(t, accounts.Save(ctx, &f.sales))
	return f
}

func (f *fixture) commitSale(t *testing.T, amount string, date time.Time) ledger.Transaction {
	t.Helper()
	ctx := context.Background()
	d := date
	txn := ledger.Transaction{
		JournalID:   f.general.ID,
		Date:        &d,
		Description: "Sale",
		Items: []ledger.TransactionItem{
			{AccountID: f.cash.ID, Amount: types.MustMoney(amount).Neg()},
			{AccountID: f.sales.ID, Amount: types.MustMoney(amount)},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))
	committed, err := f.engine.Commit(ctx, txn.ID)
	require.NoError(t, err)
	return committed
}

func TestGeneralJournal_ListsCommittedInDateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := f.commitSale(t, "200", types.Date(2024, time.June, 10))
	first := f.commitSale(t, "100", types.Date(2024, time.February, 5))

	// Drafts never show up.
	draft := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: f.cash.ID, Amount: types.MustMoney("-50")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("50")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &draft))

	report, err := f.reports.GeneralJournal(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, "2024", report.FiscalYear.Label())
	require.Len(t, report.Transactions, 2)

	assert.Equal(t, first.ID, report.Transactions[0].ID)
	assert.Equal(t, second.ID, report.Transactions[1].ID)
	assert.Equal(t, "2024/GJ2", report.Transactions[0].Label)
	assert.Equal(t, "2024/GJ1", report.Transactions[1].Label)

	require.Len(t, report.Transactions[0].Items, 2)
	assert.Equal(t, "1100 Cash", report.Transactions[0].Items[0].Account)
	assert.Equal(t, "100.00", report.Transactions[0].Items[0].Debit)
	assert.Equal(t, "100.00", report.Transactions[0].Items[1].Credit)
}

func TestGeneralJournal_UnknownYear(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.GeneralJournal(context.Background(), 1999)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGeneralLedger_PublicAccountsWithBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hidden := account.Account{Name: "Internal", Code: "9000", Type: account.TypeAsset}
	require.NoError(t, f.accounts.Save(ctx, &hidden))

	f.commitSale(t, "100", types.Date(2024, time.February, 5))
	f.commitSale(t, "200", types.Date(2024, time.June, 10))

	report, err := f.reports.GeneralLedger(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, report.Accounts, 2, "non-public accounts are excluded")

	var cashEntry *reports.LedgerAccount
	for i := range report.Accounts {
		if report.Accounts[i].AccountID == f.cash.ID {
			cashEntry = &report.Accounts[i]
		}
		assert.NotEqual(t, hidden.ID, report.Accounts[i].AccountID)
	}
	require.NotNil(t, cashEntry)

	assert.Equal(t, "0.00", cashEntry.OpeningBalance)
	assert.Equal(t, "300.00", cashEntry.ClosingBalance)
	assert.Len(t, cashEntry.Transactions, 2)
}

func TestGeneralLedger_SpansTwoYears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.commitSale(t, "100", types.Date(2024, time.November, 1))
	f.commitSale(t, "50", types.Date(2025, time.March, 1))

	report, err := f.reports.GeneralLedger(ctx, 2025)
	require.NoError(t, err)

	var cashEntry *reports.LedgerAccount
	for i := range report.Accounts {
		if report.Accounts[i].AccountID == f.cash.ID {
			cashEntry = &report.Accounts[i]
		}
	}
	require.NotNil(t, cashEntry)

	assert.Equal(t, "100.00", cashEntry.OpeningBalance,
		"the opening balance carries prior years forward")
	assert.Equal(t, "150.00", cashEntry.ClosingBalance)
	assert.Len(t, cashEntry.Transactions, 1, "only the year's own transactions are listed")
}
