// Package ledger provides transactions, their items, cost lots, and the
// commit state machine turning drafts into immutable ledger entries.
package ledger

import (
	"fmt"
	"time"

	"kontor/internal/core/id"
	"kontor/internal/core/types"
)

// State is the transaction lifecycle state. The only transition is
// Draft to Committed; there is no way back.
type State string

const (
	// StateDraft transactions and their items are freely mutable and do
	// not affect balances.
	StateDraft State = "D"

	// StateCommitted transactions are immutable; reversal happens through
	// a new offsetting transaction.
	StateCommitted State = "C"
)

// Transaction is a balanced set of debit/credit items in a journal.
// Number, Date, FiscalYearID and PeriodID stay nil until commit assigns
// them. Once committed, (fiscal year, journal, number) is unique.
type Transaction struct {
	ID           id.ID      `db:"id" json:"id"`
	JournalID    id.ID      `db:"journal_id" json:"journalId"`
	Number       *int       `db:"number" json:"number,omitempty"`
	Date         *time.Time `db:"txn_date" json:"date,omitempty"`
	Description  string     `db:"description" json:"description,omitempty"`
	State        State      `db:"state" json:"state"`
	Closing      bool       `db:"closing" json:"closing"`
	FiscalYearID *id.ID     `db:"fiscal_year_id" json:"fiscalYearId,omitempty"`
	PeriodID     *id.ID     `db:"period_id" json:"periodId,omitempty"`

	// Table part: debit/credit items
	Items []TransactionItem `db:"-" json:"items"`
}

// Balance sums the item amounts. Zero for a balanced transaction.
func (t *Transaction) Balance() types.Money {
	sum := types.Zero()
	for _, item := range t.Items {
		sum = sum.Add(item.Amount)
	}
	return sum
}

// IsDraft reports whether the transaction is still mutable.
func (t *Transaction) IsDraft() bool {
	return t.State == StateDraft
}

// String renders "journal code slot" for committed transactions and a
// draft marker otherwise. The journal code is not loaded on the model, so
// only the numeric part is rendered here.
func (t *Transaction) String() string {
	if t.State == StateCommitted && t.Number != nil {
		return fmt.Sprintf("#%d", *t.Number)
	}
	if t.Date != nil {
		return fmt.Sprintf("draft %s (%s)", t.ID, t.Date.Format("2006-01-02"))
	}
	return fmt.Sprintf("draft %s", t.ID)
}

// TransactionItem is a single debit or credit line.
// Sign convention: positive amounts are credits, negative are debits.
type TransactionItem struct {
	ID            id.ID       `db:"id" json:"id"`
	TransactionID id.ID       `db:"transaction_id" json:"transactionId"`
	AccountID     id.ID       `db:"account_id" json:"accountId"`
	LotID         *id.ID      `db:"lot_id" json:"lotId,omitempty"`
	Amount        types.Money `db:"amount" json:"amount"`
	Description   string      `db:"description" json:"description,omitempty"`
}

// Debit renders the debit column value, empty for credit items.
func (i TransactionItem) Debit() string {
	if i.Amount.IsNegative() {
		return types.CurrencyDisplay(i.Amount.Neg())
	}
	return ""
}

// Credit renders the credit column value, empty for debit items.
func (i TransactionItem) Credit() string {
	if i.Amount.IsPositive() {
		return types.CurrencyDisplay(i.Amount)
	}
	return ""
}

// Lot is a numbered cost-basis bucket within an account and fiscal year.
// (account, fiscal year, number) is unique; numbers start at 1 per pair.
type Lot struct {
	ID           id.ID  `db:"id" json:"id"`
	AccountID    id.ID  `db:"account_id" json:"accountId"`
	FiscalYearID id.ID  `db:"fiscal_year_id" json:"fiscalYearId"`
	Number       int    `db:"number" json:"number"`
	Description  string `db:"description" json:"description,omitempty"`
}
