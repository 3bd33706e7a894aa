// Package reports provides the read-only reporting surface: general
// journal and general ledger views over one fiscal year.
package reports

import (
	"time"

	"kontor/internal/core/id"
	"kontor/internal/domain/calendar"
)

// ItemLine is one debit/credit line of a reported transaction.
type ItemLine struct {
	AccountID   id.ID  `json:"accountId"`
	Account     string `json:"account"`
	Lot         string `json:"lot,omitempty"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	Description string `json:"description,omitempty"`
}

// TransactionEntry is one committed transaction in a report.
type TransactionEntry struct {
	ID          id.ID      `json:"id"`
	Label       string     `json:"label"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
	Items       []ItemLine `json:"items"`
}

// GeneralJournal lists every committed transaction of a fiscal year in
// date order.
type GeneralJournal struct {
	FiscalYear   calendar.FiscalYear `json:"fiscalYear"`
	Transactions []TransactionEntry  `json:"transactions"`
}

// LedgerAccount is one account section of the general ledger: opening
// and closing display balances around the year's committed activity.
type LedgerAccount struct {
	AccountID      id.ID              `json:"accountId"`
	Account        string             `json:"account"`
	OpeningBalance string             `json:"openingBalance"`
	Transactions   []TransactionEntry `json:"transactions"`
	ClosingBalance string             `json:"closingBalance"`
}

// GeneralLedger presents the public accounts of a fiscal year.
type GeneralLedger struct {
	FiscalYear calendar.FiscalYear `json:"fiscalYear"`
	Accounts   []LedgerAccount     `json:"accounts"`
}
