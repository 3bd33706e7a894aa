package ledger_test

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

	f := &fixture{
		store:    store,
		calendar: cal,
		journals: journals,
		engine:   engine,
		general:  journal.Journal{Code: "GJ", Description: "General Journal"},
	}
	require.NoError(t, journals.Create(ctx, &f.general))

	f.cash = f.addAccount(t, "Cash", "1100", account.TypeAsset)
	f.sales = f.addAccount(t, "Sales", "4000", account.TypeIncome)
	return f
}

func (f *fixture) addAccount(t *testing.T, name, code string, accType account.Type) account.Account {
	t.Helper()
	acc := account.Account{ID: id.New(), Name: name, Code: code, Order: code, Type: accType}
	require.NoError(t, f.store.Create(context.Background(), &acc))
	return acc
}

// saleDraft builds a balanced cash/sales draft: cash debited, sales
// credited.
func (f *fixture) saleDraft(t *testing.T, amount string, date time.Time) ledger.Transaction {
	t.Helper()
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
	require.NoError(t, f.engine.CreateDraft(context.Background(), &txn))
	return txn
}

func TestCommit_AssignsNumberAndPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := types.Date(2024, time.March, 15)

	draft := f.saleDraft(t, "100", date)
	assert.True(t, draft.IsDraft())
	assert.Nil(t, draft.Number)

	committed, err := f.engine.Commit(ctx, draft.ID)
	require.NoError(t, err)

	assert.Equal(t, ledger.StateCommitted, committed.State)
	require.NotNil(t, committed.Number)
	assert.Equal(t, 1, *committed.Number)
	assert.Equal(t, date, *committed.Date)
	require.NotNil(t, committed.FiscalYearID)
	require.NotNil(t, committed.PeriodID)

	period, err := f.calendar.Period(ctx, *committed.PeriodID)
	require.NoError(t, err)
	assert.True(t, period.Contains(date))
	assert.Equal(t, *committed.FiscalYearID, period.FiscalYearID)

	salesBalance, err := f.store.SumItems(ctx, ledger.ItemFilter{AccountIDs: []id.ID{f.sales.ID}})
	require.NoError(t, err)
	assert.Equal(t, "100.00", types.CurrencyDisplay(salesBalance))

	cashBalance, err := f.store.SumItems(ctx, ledger.ItemFilter{AccountIDs: []id.ID{f.cash.ID}})
	require.NoError(t, err)
	assert.Equal(t, "-100.00", types.CurrencyDisplay(cashBalance))

	assert.Equal(t, "100.00", committed.Items[0].Debit())
	assert.Empty(t, committed.Items[0].Credit())
	assert.Equal(t, "100.00", committed.Items[1].Credit())
	assert.Empty(t, committed.Items[1].Debit())
}

func TestCommit_NumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.saleDraft(t, "10", types.Date(2024, time.March, 1))
	second := f.saleDraft(t, "20", types.Date(2024, time.March, 2))

	committed, err := f.engine.Commit(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *committed.Number)

	committed, err = f.engine.Commit(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *committed.Number)
}

func TestCommit_RejectsEmptyTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn := ledger.Transaction{JournalID: f.general.ID}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	_, err := f.engine.Commit(ctx, txn.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyTransaction))
}

func TestCommit_RejectsImbalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: f.cash.ID, Amount: types.MustMoney("-100")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("90")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	_, err := f.engine.Commit(ctx, txn.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeImbalanced))

	reloaded, err := f.engine.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDraft(), "a failed commit must leave the draft untouched")
}

func TestCommit_CommittedIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.saleDraft(t, "50", types.Date(2024, time.April, 1))
	committed, err := f.engine.Commit(ctx, draft.ID)
	require.NoError(t, err)

	_, err = f.engine.Commit(ctx, draft.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeTransactionCommitted))

	committed.Description = "tampered"
	err = f.engine.UpdateDraft(ctx, &committed)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeTransactionCommitted))
}

func TestCommit_DefaultsDateToToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: f.cash.ID, Amount: types.MustMoney("-5")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("5")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	committed, err := f.engine.Commit(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, committed.Date)
	assert.Equal(t, types.Today(), *committed.Date)
}

func TestCommit_RejectsClosedYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.June, 1))
	require.NoError(t, err)
	year.Closed = true
	require.NoError(t, f.store.UpdateYear(ctx, &year))

	draft := f.saleDraft(t, "100", types.Date(2024, time.June, 15))
	_, err = f.engine.Commit(ctx, draft.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeFiscalYearClosed))
}

func TestCommit_RejectsFrozenAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	frozen := account.Account{ID: id.New(), Name: "Old Cash", Code: "1190",
		Type: account.TypeAsset, Frozen: true}
	require.NoError(t, f.store.Create(ctx, &frozen))

	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: frozen.ID, Amount: types.MustMoney("-100")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("100")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	_, err := f.engine.Commit(ctx, txn.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAccountFrozen))
}

func TestCommit_AllocatesLotPerItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inventory := account.Account{ID: id.New(), Name: "Inventory", Code: "1300",
		Type: account.TypeAsset, LotTracking: true}
	require.NoError(t, f.store.Create(ctx, &inventory))

	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: inventory.ID, Amount: types.MustMoney("-300")},
			{AccountID: inventory.ID, Amount: types.MustMoney("-200")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("500")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	committed, err := f.engine.Commit(ctx, txn.ID)
	require.NoError(t, err)

	require.NotNil(t, committed.Items[0].LotID)
	require.NotNil(t, committed.Items[1].LotID)
	assert.NotEqual(t, *committed.Items[0].LotID, *committed.Items[1].LotID,
		"each lot-tracked item gets its own lot")
	assert.Nil(t, committed.Items[2].LotID)

	lots, err := f.engine.Lots(ctx, inventory.ID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, 1, lots[0].Number)
	assert.Equal(t, 2, lots[1].Number)
}

func TestCommit_RejectsForeignLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inventory := account.Account{ID: id.New(), Name: "Inventory", Code: "1300",
		Type: account.TypeAsset, LotTracking: true}
	other := account.Account{ID: id.New(), Name: "Materials", Code: "1310",
		Type: account.TypeAsset, LotTracking: true}
	require.NoError(t, f.store.Create(ctx, &inventory))
	require.NoError(t, f.store.Create(ctx, &other))

	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.January, 1))
	require.NoError(t, err)
	foreign := ledger.Lot{AccountID: other.ID, FiscalYearID: year.ID}
	require.NoError(t, f.engine.CreateLot(ctx, &foreign))

	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: inventory.ID, LotID: &foreign.ID, Amount: types.MustMoney("-100")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("100")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	_, err = f.engine.Commit(ctx, txn.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLotMismatch))
}

func TestCommit_FailureRollsBackAllocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inventory := account.Account{ID: id.New(), Name: "Inventory", Code: "1300",
		Type: account.TypeAsset, LotTracking: true}
	frozen := account.Account{ID: id.New(), Name: "Frozen", Code: "1400",
		Type: account.TypeAsset, Frozen: true}
	require.NoError(t, f.store.Create(ctx, &inventory))
	require.NoError(t, f.store.Create(ctx, &frozen))

	// The first item allocates a lot before the second item hits the
	// frozen account; the rollback must discard the lot.
	txn := ledger.Transaction{
		JournalID: f.general.ID,
		Items: []ledger.TransactionItem{
			{AccountID: inventory.ID, Amount: types.MustMoney("-100")},
			{AccountID: frozen.ID, Amount: types.MustMoney("100")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &txn))

	_, err := f.engine.Commit(ctx, txn.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAccountFrozen))

	lots, err := f.engine.Lots(ctx, inventory.ID)
	require.NoError(t, err)
	assert.Empty(t, lots)

	// The number sequence was not consumed either.
	committed, err := f.engine.Commit(ctx, f.saleDraft(t, "10", types.Date(2024, time.May, 1)).ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *committed.Number)
}

func TestCommit_PresetNumberIsHonored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.saleDraft(t, "100", types.Date(2024, time.March, 1))
	seven := 7
	draft.Number = &seven
	require.NoError(t, f.store.UpdateTransaction(ctx, &draft))

	committed, err := f.engine.Commit(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, *committed.Number)

	// The slot is now taken; another preset draft with the same number
	// cannot commit.
	duplicate := f.saleDraft(t, "50", types.Date(2024, time.March, 2))
	duplicate.Number = &seven
	require.NoError(t, f.store.UpdateTransaction(ctx, &duplicate))

	_, err = f.engine.Commit(ctx, duplicate.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateNumber))

	// Auto-numbering continues after the preset slot.
	committed, err = f.engine.Commit(ctx, f.saleDraft(t, "20", types.Date(2024, time.March, 3)).ID)
	require.NoError(t, err)
	assert.Equal(t, 8, *committed.Number)
}

func TestCommitBatch_OrdersByDateAndStopsAtFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	late := f.saleDraft(t, "30", types.Date(2024, time.March, 20))
	early := f.saleDraft(t, "10", types.Date(2024, time.March, 5))

	brokenDate := types.Date(2024, time.March, 10)
	broken := ledger.Transaction{
		JournalID: f.general.ID,
		Date:      &brokenDate,
		Items: []ledger.TransactionItem{
			{AccountID: f.cash.ID, Amount: types.MustMoney("-100")},
			{AccountID: f.sales.ID, Amount: types.MustMoney("99")},
		},
	}
	require.NoError(t, f.engine.CreateDraft(ctx, &broken))

	result := f.engine.CommitBatch(ctx, []id.ID{late.ID, broken.ID, early.ID})

	require.Len(t, result.Committed, 1)
	assert.Equal(t, early.ID, result.Committed[0], "drafts commit in date order")
	require.NotNil(t, result.Failed)
	assert.Equal(t, broken.ID, *result.Failed)
	assert.True(t, apperror.IsCode(result.Err, apperror.CodeImbalanced))

	// Everything after the failure stays a draft.
	remaining, err := f.engine.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.True(t, remaining.IsDraft())

	committed, err := f.engine.Get(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *committed.Number)
}

func TestCreateLot_RequiresLotTracking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	year, err := f.calendar.YearByDate(ctx, types.Date(2024, time.January, 1))
	require.NoError(t, err)

	lot := ledger.Lot{AccountID: f.cash.ID, FiscalYearID: year.ID}
	err = f.engine.CreateLot(ctx, &lot)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLotMismatch))
}
