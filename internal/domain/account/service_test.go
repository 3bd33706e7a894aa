package account_test

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
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/infrastructure/storage/memory"
)

type fixture struct {
	store    *memory.Store
	calendar *calendar.Service
	journals *journal.Service
	engine   *ledger.Service
	accounts *account.Service

	general journal.Journal
	closing journal.Journal
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
		store:    store,
		calendar: cal,
		journals: journals,
		engine:   engine,
		accounts: accounts,
		general:  journal.Journal{Code: "GJ"},
		closing:  journal.Journal{Code: "CL", Closing: true},
	}
	require.NoError(t, journals.Create(ctx, &f.general))
	require.NoError(t, journals.Create(ctx, &f.closing))
	return f
}

func (f *fixture) saveAccount(t *testing.T, acc *account.Account) {
	t.Helper()
	require.NoError(t, f.accounts.Save(context.Background(), acc))
}

// commitEntry commits a two-item transaction moving amount from debit to
// credit on the date.
func (f *fixture) commitEntry(t *testing.T, debit, credit id.ID, amount string, date time.Time) ledger.Transaction {
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
	committed, err := f.engine.Commit(ctx, txn.ID)
	require.NoError(t, err)
	return committed
}

func TestSave_DerivesOrderFromCode(t *testing.T) {
	f := newFixture(t)

	cash := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset}
	f.saveAccount(t, &cash)

	saved, err := f.accounts.Get(context.Background(), cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "1100", saved.Order)
}

func TestSave_ParentOrderFollowsChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := account.Account{Name: "Current Assets", Type: account.TypeAsset}
	f.saveAccount(t, &parent)

	first := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset, ParentID: &parent.ID}
	f.saveAccount(t, &first)

	saved, err := f.accounts.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "1100", saved.Order, "a codeless parent inherits its children's minimum order")

	second := account.Account{Name: "Petty Cash", Code: "1050", Type: account.TypeAsset, ParentID: &parent.ID}
	f.saveAccount(t, &second)

	saved, err = f.accounts.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "1050", saved.Order)
}

func TestSave_RejectsDuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cash := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset}
	f.saveAccount(t, &cash)

	clone := account.Account{Name: "Other Cash", Code: "1100", Type: account.TypeAsset}
	err := f.accounts.Save(ctx, &clone)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateCode))
}

func TestSave_RejectsLotTrackingOnProfitAndLoss(t *testing.T) {
	f := newFixture(t)

	sales := account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome, LotTracking: true}
	err := f.accounts.Save(context.Background(), &sales)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLotTracking))
}

func TestNetEarnings_ExactlyOneRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.NetEarnings(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNetEarnings))

	netEarnings := account.Account{Name: "Net Earnings", Code: "3900", Type: account.TypeNetEarnings}
	f.saveAccount(t, &netEarnings)

	found, err := f.accounts.NetEarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, netEarnings.ID, found.ID)
}

func TestSave_EnablingLotTrackingMigratesBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inventory := account.Account{Name: "Inventory", Code: "1300", Type: account.TypeAsset}
	sales := account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome}
	f.saveAccount(t, &inventory)
	f.saveAccount(t, &sales)

	f.commitEntry(t, inventory.ID, sales.ID, "500", types.Date(2024, time.March, 1))

	inventory.LotTracking = true
	f.saveAccount(t, &inventory)

	lots, err := f.accounts.Lots(ctx, inventory.ID, false)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, 1, lots[0].Number)

	// The overall balance is unchanged; it just moved into the lot.
	balance, err := f.accounts.Balance(ctx, inventory.ID, account.BalanceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "-500.00", types.CurrencyDisplay(balance))

	lotID := lots[0].ID
	lotBalance, err := f.accounts.Balance(ctx, inventory.ID, account.BalanceQuery{LotID: &lotID})
	require.NoError(t, err)
	assert.Equal(t, "-500.00", types.CurrencyDisplay(lotBalance))

	active, err := f.accounts.Lots(ctx, inventory.ID, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// The migration posted through the closing journal.
	migrations, err := f.engine.List(ctx, ledger.TransactionFilter{JournalID: &f.closing.ID})
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Equal(t, ledger.StateCommitted, migrations[0].State)
}

func TestSave_ZeroBalanceSkipsMigration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inventory := account.Account{Name: "Inventory", Code: "1300", Type: account.TypeAsset}
	f.saveAccount(t, &inventory)

	inventory.LotTracking = true
	f.saveAccount(t, &inventory)

	lots, err := f.accounts.Lots(ctx, inventory.ID, false)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestBalance_AsOfExcludesSameDayClosingEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cash := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset}
	sales := account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome}
	netEarnings := account.Account{Name: "Net Earnings", Code: "3900", Type: account.TypeNetEarnings}
	f.saveAccount(t, &cash)
	f.saveAccount(t, &sales)
	f.saveAccount(t, &netEarnings)

	f.commitEntry(t, cash.ID, sales.ID, "100", types.Date(2024, time.June, 15))

	// A closing entry dated on the year end, posted straight to the store.
	yearEnd := types.Date(2024, time.December, 31)
	closingTxn := ledger.Transaction{
		ID:        id.New(),
		JournalID: f.closing.ID,
		Date:      &yearEnd,
		State:     ledger.StateCommitted,
		Closing:   true,
		Items: []ledger.TransactionItem{
			{ID: id.New(), AccountID: sales.ID, Amount: types.MustMoney("-100")},
			{ID: id.New(), AccountID: netEarnings.ID, Amount: types.MustMoney("100")},
		},
	}
	require.NoError(t, f.store.CreateTransaction(ctx, &closingTxn))

	balance, err := f.accounts.Balance(ctx, sales.ID, account.BalanceQuery{AsOf: &yearEnd})
	require.NoError(t, err)
	assert.Equal(t, "100.00", types.CurrencyDisplay(balance),
		"the year-end position excludes same-day closing entries")

	balance, err = f.accounts.Balance(ctx, sales.ID,
		account.BalanceQuery{AsOf: &yearEnd, IncludeClosing: true})
	require.NoError(t, err)
	assert.Equal(t, "0.00", types.CurrencyDisplay(balance))

	// ClosingOnly: ordinary accounts contribute nothing, net earnings
	// reports the aggregate P&L position.
	balance, err = f.accounts.Balance(ctx, cash.ID, account.BalanceQuery{ClosingOnly: true})
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	balance, err = f.accounts.Balance(ctx, netEarnings.ID,
		account.BalanceQuery{ClosingOnly: true, AsOf: &yearEnd})
	require.NoError(t, err)
	assert.Equal(t, "100.00", types.CurrencyDisplay(balance))
}

func TestBalance_IncludesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := account.Account{Name: "Assets", Code: "1000", Type: account.TypeAsset}
	f.saveAccount(t, &parent)
	cash := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset, ParentID: &parent.ID}
	f.saveAccount(t, &cash)
	sales := account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome}
	f.saveAccount(t, &sales)

	f.commitEntry(t, cash.ID, sales.ID, "250", types.Date(2024, time.April, 1))

	own, err := f.accounts.Balance(ctx, parent.ID, account.BalanceQuery{})
	require.NoError(t, err)
	assert.True(t, own.IsZero())

	subtree, err := f.accounts.Balance(ctx, parent.ID, account.BalanceQuery{Children: true})
	require.NoError(t, err)
	assert.Equal(t, "-250.00", types.CurrencyDisplay(subtree))
}

func TestDisplayBalance_FlipsSignByAccountType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cash := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset}
	sales := account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome}
	f.saveAccount(t, &cash)
	f.saveAccount(t, &sales)

	f.commitEntry(t, cash.ID, sales.ID, "100", types.Date(2024, time.April, 1))

	display, err := f.accounts.DisplayBalance(ctx, cash.ID, account.BalanceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "100.00", display, "asset debit balances display positive")

	display, err = f.accounts.DisplayBalance(ctx, sales.ID, account.BalanceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "100.00", display)
}

func TestPeriodTotals_AggregatesSubtreePerMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := account.Account{Name: "Assets", Code: "1000", Type: account.TypeAsset}
	f.saveAccount(t, &parent)
	cash := account.Account{Name: "Cash", Code: "1100", Type: account.TypeAsset, ParentID: &parent.ID}
	f.saveAccount(t, &cash)
	sales := account.Account{Name: "Sales", Code: "4000", Type: account.TypeIncome}
	f.saveAccount(t, &sales)

	march := f.commitEntry(t, cash.ID, sales.ID, "100", types.Date(2024, time.March, 10))
	f.commitEntry(t, cash.ID, sales.ID, "200", types.Date(2024, time.April, 10))

	totals, err := f.accounts.PeriodTotals(ctx, parent.ID, *march.FiscalYearID)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, "100.00", types.CurrencyDisplay(totals[0].Debit))
	assert.Equal(t, "0.00", types.CurrencyDisplay(totals[0].Credit))
	assert.Equal(t, "100.00", types.CurrencyDisplay(totals[0].Balance),
		"asset movement displays debit-positive")

	assert.Equal(t, "200.00", types.CurrencyDisplay(totals[1].Debit))

	salesTotals, err := f.accounts.PeriodTotals(ctx, sales.ID, *march.FiscalYearID)
	require.NoError(t, err)
	require.Len(t, salesTotals, 2)
	assert.Equal(t, "100.00", types.CurrencyDisplay(salesTotals[0].Credit))
	assert.Equal(t, "100.00", types.CurrencyDisplay(salesTotals[0].Balance))
}
