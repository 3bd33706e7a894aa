package memory

import (
	"bytes"
	"context"
	"sort"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/ledger"
)

var _ ledger.Repository = (*Store)(nil)

// CreateTransaction inserts a transaction with its items.
func (s *Store) CreateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[txn.ID] = copyTxn(*txn)
	return nil
}

// UpdateTransaction persists the header and replaces the items.
func (s *Store) UpdateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[txn.ID]; !ok {
		return apperror.NewNotFound("transaction", txn.ID)
	}
	s.txns[txn.ID] = copyTxn(*txn)
	return nil
}

// GetTransaction retrieves a transaction with its items.
func (s *Store) GetTransaction(ctx context.Context, txnID id.ID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.txns[txnID]
	if !ok {
		return ledger.Transaction{}, apperror.NewNotFound("transaction", txnID)
	}
	return copyTxn(txn), nil
}

// ListTransactions returns transactions matching the filter.
func (s *Store) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txns []ledger.Transaction
	for _, txn := range s.txns {
		if filter.JournalID != nil && txn.JournalID != *filter.JournalID {
			continue
		}
		if filter.FiscalYearID != nil &&
			(txn.FiscalYearID == nil || *txn.FiscalYearID != *filter.FiscalYearID) {
			continue
		}
		if filter.State != nil && txn.State != *filter.State {
			continue
		}
		txns = append(txns, copyTxn(txn))
	}
	if filter.DateOrder {
		sortTxnsByDate(txns)
	} else {
		sort.Slice(txns, func(i, j int) bool {
			return bytes.Compare(txns[i].ID[:], txns[j].ID[:]) < 0
		})
	}
	return txns, nil
}

// ListAccountTransactions returns committed transactions touching the
// account, ordered by (date, number).
func (s *Store) ListAccountTransactions(ctx context.Context, accountID id.ID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txns []ledger.Transaction
	for _, txn := range s.txns {
		if txn.State != ledger.StateCommitted {
			continue
		}
		for _, item := range txn.Items {
			if item.AccountID == accountID {
				txns = append(txns, copyTxn(txn))
				break
			}
		}
	}
	sortTxnsByDate(txns)
	return txns, nil
}

func sortTxnsByDate(txns []ledger.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		switch {
		case a.Date == nil && b.Date != nil:
			return false
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
			return a.Date.Before(*b.Date)
		}
		an, bn := 0, 0
		if a.Number != nil {
			an = *a.Number
		}
		if b.Number != nil {
			bn = *b.Number
		}
		if an != bn {
			return an < bn
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

// MaxTransactionNumber returns the highest issued number in the
// (journal, fiscal year) sequence.
func (s *Store) MaxTransactionNumber(ctx context.Context, journalID, fiscalYearID id.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, txn := range s.txns {
		if txn.JournalID != journalID || txn.Number == nil {
			continue
		}
		if txn.FiscalYearID == nil || *txn.FiscalYearID != fiscalYearID {
			continue
		}
		if *txn.Number > max {
			max = *txn.Number
		}
	}
	return max, nil
}

// NumberExists reports whether the number slot is taken.
func (s *Store) NumberExists(ctx context.Context, journalID, fiscalYearID id.ID, number int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, txn := range s.txns {
		if txn.JournalID == journalID && txn.Number != nil && *txn.Number == number &&
			txn.FiscalYearID != nil && *txn.FiscalYearID == fiscalYearID {
			return true, nil
		}
	}
	return false, nil
}

// SumItems returns the signed sum of committed item amounts matching the
// filter.
func (s *Store) SumItems(ctx context.Context, filter ledger.ItemFilter) (types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := types.Zero()
	for _, txn := range s.txns {
		if !s.txnMatches(txn, filter) {
			continue
		}
		for _, item := range txn.Items {
			if !itemMatches(item, filter) {
				continue
			}
			sum = sum.Add(item.Amount)
		}
	}
	return sum, nil
}

func (s *Store) txnMatches(txn ledger.Transaction, filter ledger.ItemFilter) bool {
	if txn.State != ledger.StateCommitted {
		return false
	}
	if filter.TransactionID != nil && txn.ID != *filter.TransactionID {
		return false
	}
	if filter.FiscalYearID != nil &&
		(txn.FiscalYearID == nil || *txn.FiscalYearID != *filter.FiscalYearID) {
		return false
	}
	if filter.PeriodID != nil &&
		(txn.PeriodID == nil || *txn.PeriodID != *filter.PeriodID) {
		return false
	}
	if filter.ClosingOnly && !txn.Closing {
		return false
	}
	if filter.AsOf != nil {
		if txn.Date == nil || txn.Date.After(*filter.AsOf) {
			return false
		}
		if !filter.IncludeClosing && txn.Closing && txn.Date.Equal(*filter.AsOf) {
			return false
		}
	}
	return true
}

func itemMatches(item ledger.TransactionItem, filter ledger.ItemFilter) bool {
	if len(filter.AccountIDs) > 0 {
		found := false
		for _, accID := range filter.AccountIDs {
			if item.AccountID == accID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.LotID != nil && (item.LotID == nil || *item.LotID != *filter.LotID) {
		return false
	}
	return true
}

// PeriodTotals returns per-period absolute debit and credit sums of
// committed items for the accounts, within the fiscal year.
func (s *Store) PeriodTotals(ctx context.Context, accountIDs []id.ID, fiscalYearID id.ID) ([]ledger.PeriodTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPeriod := make(map[id.ID]*ledger.PeriodTotal)
	for _, txn := range s.txns {
		if txn.State != ledger.StateCommitted || txn.PeriodID == nil {
			continue
		}
		if txn.FiscalYearID == nil || *txn.FiscalYearID != fiscalYearID {
			continue
		}
		for _, item := range txn.Items {
			matched := false
			for _, accID := range accountIDs {
				if item.AccountID == accID {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			total, ok := byPeriod[*txn.PeriodID]
			if !ok {
				total = &ledger.PeriodTotal{
					PeriodID: *txn.PeriodID,
					Debit:    types.Zero(),
					Credit:   types.Zero(),
				}
				byPeriod[*txn.PeriodID] = total
			}
			if item.Amount.IsNegative() {
				total.Debit = total.Debit.Add(item.Amount.Neg())
			} else {
				total.Credit = total.Credit.Add(item.Amount)
			}
		}
	}

	totals := make([]ledger.PeriodTotal, 0, len(byPeriod))
	for _, total := range byPeriod {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		pi, pj := s.periods[totals[i].PeriodID], s.periods[totals[j].PeriodID]
		return pi.Start.Before(pj.Start)
	})
	return totals, nil
}

// CreateLot inserts a lot.
func (s *Store) CreateLot(ctx context.Context, lot *ledger.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.lots {
		if existing.AccountID == lot.AccountID &&
			existing.FiscalYearID == lot.FiscalYearID &&
			existing.Number == lot.Number {
			return apperror.NewConflict("duplicate lot number").
				WithDetail("number", lot.Number)
		}
	}
	s.lots[lot.ID] = *lot
	return nil
}

// GetLot retrieves a lot by ID.
func (s *Store) GetLot(ctx context.Context, lotID id.ID) (ledger.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[lotID]
	if !ok {
		return ledger.Lot{}, apperror.NewNotFound("lot", lotID)
	}
	return lot, nil
}

// ListLots returns the lots of an account ordered by fiscal year and
// number.
func (s *Store) ListLots(ctx context.Context, accountID id.ID) ([]ledger.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var lots []ledger.Lot
	for _, lot := range s.lots {
		if lot.AccountID == accountID {
			lots = append(lots, lot)
		}
	}
	sort.Slice(lots, func(i, j int) bool {
		yi, yj := s.years[lots[i].FiscalYearID], s.years[lots[j].FiscalYearID]
		if !yi.Start.Equal(yj.Start) {
			return yi.Start.Before(yj.Start)
		}
		return lots[i].Number < lots[j].Number
	})
	return lots, nil
}

// MaxLotNumber returns the highest lot number in the (account, fiscal
// year) sequence, or 0 when none.
func (s *Store) MaxLotNumber(ctx context.Context, accountID, fiscalYearID id.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, lot := range s.lots {
		if lot.AccountID == accountID && lot.FiscalYearID == fiscalYearID && lot.Number > max {
			max = lot.Number
		}
	}
	return max, nil
}
