package reports

import (
	"context"
	"fmt"

	"kontor/internal/core/id"
	"kontor/internal/domain/account"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
)

// Service builds read-only reports. Queries may run concurrently with
// commits; they only ever see fully committed transactions.
type Service struct {
	calendar *calendar.Service
	accounts *account.Service
	journals *journal.Service
	engine   *ledger.Service
}

// NewService creates a new reports service.
func NewService(
	cal *calendar.Service,
	accounts *account.Service,
	journals *journal.Service,
	engine *ledger.Service,
) *Service {
	return &Service{
		calendar: cal,
		accounts: accounts,
		journals: journals,
		engine:   engine,
	}
}

// GeneralJournal lists the committed transactions of the fiscal year
// identified by its label, in date order.
func (s *Service) GeneralJournal(ctx context.Context, label int) (GeneralJournal, error) {
	year, err := s.calendar.YearByLabel(ctx, label)
	if err != nil {
		return GeneralJournal{}, err
	}

	committed := ledger.StateCommitted
	txns, err := s.engine.List(ctx, ledger.TransactionFilter{
		FiscalYearID: &year.ID,
		State:        &committed,
		DateOrder:    true,
	})
	if err != nil {
		return GeneralJournal{}, err
	}

	r := newResolver(s)
	entries := make([]TransactionEntry, 0, len(txns))
	for i := range txns {
		entry, err := r.entry(ctx, &txns[i], year)
		if err != nil {
			return GeneralJournal{}, err
		}
		entries = append(entries, entry)
	}
	return GeneralJournal{FiscalYear: year, Transactions: entries}, nil
}

// GeneralLedger presents each public account over the fiscal year:
// opening balance the morning of day one, the year's transactions, and
// the closing balance on the last day before closing entries.
func (s *Service) GeneralLedger(ctx context.Context, label int) (GeneralLedger, error) {
	year, err := s.calendar.YearByLabel(ctx, label)
	if err != nil {
		return GeneralLedger{}, err
	}

	all, err := s.accounts.List(ctx)
	if err != nil {
		return GeneralLedger{}, err
	}

	r := newResolver(s)
	report := GeneralLedger{FiscalYear: year}
	for i := range all {
		acc := all[i]
		if !acc.Public {
			continue
		}

		// The opening balance is the state at the end of the previous
		// day, after any closing entries of the prior year.
		dayBefore := year.Start.AddDate(0, 0, -1)
		opening, err := s.accounts.DisplayBalance(ctx, acc.ID, account.BalanceQuery{
			AsOf: &dayBefore, IncludeClosing: true, Children: true,
		})
		if err != nil {
			return GeneralLedger{}, err
		}
		closing, err := s.accounts.DisplayBalance(ctx, acc.ID, account.BalanceQuery{
			AsOf: &year.End, Children: true,
		})
		if err != nil {
			return GeneralLedger{}, err
		}

		txns, err := s.accounts.Transactions(ctx, acc.ID)
		if err != nil {
			return GeneralLedger{}, err
		}
		entries := make([]TransactionEntry, 0, len(txns))
		for j := range txns {
			if txns[j].FiscalYearID == nil || *txns[j].FiscalYearID != year.ID {
				continue
			}
			entry, err := r.entry(ctx, &txns[j], year)
			if err != nil {
				return GeneralLedger{}, err
			}
			entries = append(entries, entry)
		}

		report.Accounts = append(report.Accounts, LedgerAccount{
			AccountID:      acc.ID,
			Account:        acc.String(),
			OpeningBalance: opening,
			Transactions:   entries,
			ClosingBalance: closing,
		})
	}
	return report, nil
}

// resolver memoizes account, journal and lot lookups across the report.
type resolver struct {
	s        *Service
	accounts map[id.ID]string
	journals map[id.ID]string
	lots     map[id.ID]string
}

func newResolver(s *Service) *resolver {
	return &resolver{
		s:        s,
		accounts: make(map[id.ID]string),
		journals: make(map[id.ID]string),
		lots:     make(map[id.ID]string),
	}
}

func (r *resolver) entry(ctx context.Context, txn *ledger.Transaction, year calendar.FiscalYear) (TransactionEntry, error) {
	journalCode, err := r.journalCode(ctx, txn.JournalID)
	if err != nil {
		return TransactionEntry{}, err
	}

	entry := TransactionEntry{
		ID:          txn.ID,
		Label:       fmt.Sprintf("%s/%s%d", year.Label(), journalCode, *txn.Number),
		Date:        txn.Date,
		Description: txn.Description,
	}
	for _, item := range txn.Items {
		name, err := r.accountName(ctx, item.AccountID)
		if err != nil {
			return TransactionEntry{}, err
		}
		line := ItemLine{
			AccountID:   item.AccountID,
			Account:     name,
			Debit:       item.Debit(),
			Credit:      item.Credit(),
			Description: item.Description,
		}
		if item.LotID != nil {
			lot, err := r.lotLabel(ctx, *item.LotID)
			if err != nil {
				return TransactionEntry{}, err
			}
			line.Lot = lot
		}
		entry.Items = append(entry.Items, line)
	}
	return entry, nil
}

func (r *resolver) accountName(ctx context.Context, accountID id.ID) (string, error) {
	if name, ok := r.accounts[accountID]; ok {
		return name, nil
	}
	acc, err := r.s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	r.accounts[accountID] = acc.String()
	return acc.String(), nil
}

func (r *resolver) journalCode(ctx context.Context, journalID id.ID) (string, error) {
	if code, ok := r.journals[journalID]; ok {
		return code, nil
	}
	jrn, err := r.s.journals.Get(ctx, journalID)
	if err != nil {
		return "", err
	}
	r.journals[journalID] = jrn.Code
	return jrn.Code, nil
}

// lotLabel renders "fiscal year/lot number", e.g. "2024/1".
func (r *resolver) lotLabel(ctx context.Context, lotID id.ID) (string, error) {
	if label, ok := r.lots[lotID]; ok {
		return label, nil
	}
	lot, err := r.s.engine.Lot(ctx, lotID)
	if err != nil {
		return "", err
	}
	lotYear, err := r.s.calendar.Year(ctx, lot.FiscalYearID)
	if err != nil {
		return "", err
	}
	label := fmt.Sprintf("%s/%d", lotYear.Label(), lot.Number)
	r.lots[lotID] = label
	return label, nil
}
