package ledger

import (
	"context"
	"time"

	"kontor/internal/core/id"
	"kontor/internal/core/types"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	JournalID    *id.ID
	FiscalYearID *id.ID
	State        *State
	// DateOrder lists by (date, id) ascending instead of creation order.
	DateOrder bool
}

// ItemFilter narrows item aggregation. AsOf applies the balance date rule:
// items of transactions strictly before AsOf count, and items dated exactly
// AsOf count only when their transaction is not a closing entry (unless
// IncludeClosing). ClosingOnly restricts to closing transactions.
type ItemFilter struct {
	AccountIDs     []id.ID
	LotID          *id.ID
	TransactionID  *id.ID
	FiscalYearID   *id.ID
	PeriodID       *id.ID
	AsOf           *time.Time
	IncludeClosing bool
	ClosingOnly    bool
}

// PeriodTotal is the aggregated debit/credit movement of one fiscal period.
type PeriodTotal struct {
	PeriodID id.ID
	Debit    types.Money
	Credit   types.Money
}

// Repository defines persistence operations for transactions, items and
// lots. Aggregations only ever see committed transactions.
type Repository interface {
	// CreateTransaction inserts a transaction with its items.
	CreateTransaction(ctx context.Context, txn *Transaction) error

	// UpdateTransaction persists the transaction header and replaces its
	// items with the given set.
	UpdateTransaction(ctx context.Context, txn *Transaction) error

	// GetTransaction retrieves a transaction with its items loaded.
	GetTransaction(ctx context.Context, txnID id.ID) (Transaction, error)

	// ListTransactions returns transactions (items loaded) matching the
	// filter.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// ListAccountTransactions returns committed transactions touching the
	// account, ordered by (date, number).
	ListAccountTransactions(ctx context.Context, accountID id.ID) ([]Transaction, error)

	// MaxTransactionNumber returns the highest committed number in the
	// (journal, fiscal year) sequence, or 0 when none.
	MaxTransactionNumber(ctx context.Context, journalID, fiscalYearID id.ID) (int, error)

	// NumberExists reports whether the committed number slot is taken.
	NumberExists(ctx context.Context, journalID, fiscalYearID id.ID, number int) (bool, error)

	// SumItems returns the signed sum of committed item amounts matching
	// the filter.
	SumItems(ctx context.Context, filter ItemFilter) (types.Money, error)

	// PeriodTotals returns per-period absolute debit and credit sums of
	// committed items for the accounts, within the fiscal year.
	PeriodTotals(ctx context.Context, accountIDs []id.ID, fiscalYearID id.ID) ([]PeriodTotal, error)

	// CreateLot inserts a lot.
	CreateLot(ctx context.Context, lot *Lot) error

	// GetLot retrieves a lot by ID.
	GetLot(ctx context.Context, lotID id.ID) (Lot, error)

	// ListLots returns the lots of an account ordered by fiscal year and
	// number.
	ListLots(ctx context.Context, accountID id.ID) ([]Lot, error)

	// MaxLotNumber returns the highest lot number in the (account, fiscal
	// year) sequence, or 0 when none.
	MaxLotNumber(ctx context.Context, accountID, fiscalYearID id.ID) (int, error)
}

// AccountInfo carries the account facts the commit engine validates
// against. Defined here so the ledger package stays free of account
// imports.
type AccountInfo struct {
	ID          id.ID
	Code        string
	Name        string
	Frozen      bool
	LotTracking bool
}

// AccountSource resolves accounts for item validation. Implemented by the
// account service.
type AccountSource interface {
	AccountInfo(ctx context.Context, accountID id.ID) (AccountInfo, error)
}
