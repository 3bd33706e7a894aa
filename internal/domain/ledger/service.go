package ledger

import (
	"context"
	"sort"
	"strconv"
	"time"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/tx"
	"kontor/internal/core/types"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/pkg/logger"
)

// Service is the transaction engine: draft management and the commit
// pipeline turning drafts into immutable, numbered ledger entries.
type Service struct {
	repo      Repository
	calendar  *calendar.Service
	journals  *journal.Service
	accounts  AccountSource
	txManager tx.Manager
}

// NewService creates a new transaction service.
func NewService(
	repo Repository,
	cal *calendar.Service,
	journals *journal.Service,
	accounts AccountSource,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		calendar:  cal,
		journals:  journals,
		accounts:  accounts,
		txManager: txManager,
	}
}

// Get retrieves a transaction with its items.
func (s *Service) Get(ctx context.Context, txnID id.ID) (Transaction, error) {
	return s.repo.GetTransaction(ctx, txnID)
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// CreateDraft inserts a new draft transaction with its items. Items may
// be unbalanced while the transaction stays a draft.
func (s *Service) CreateDraft(ctx context.Context, txn *Transaction) error {
	if id.IsNil(txn.JournalID) {
		return apperror.NewValidation("journal is required").WithDetail("field", "journalId")
	}
	if _, err := s.journals.Get(ctx, txn.JournalID); err != nil {
		return err
	}
	if id.IsNil(txn.ID) {
		txn.ID = id.New()
	}
	txn.State = StateDraft
	txn.Number = nil
	for i := range txn.Items {
		if id.IsNil(txn.Items[i].ID) {
			txn.Items[i].ID = id.New()
		}
		txn.Items[i].TransactionID = txn.ID
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateTransaction(ctx, txn)
	})
}

// UpdateDraft replaces the header and items of a draft transaction.
// Committed transactions are immutable.
func (s *Service) UpdateDraft(ctx context.Context, txn *Transaction) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		if !current.IsDraft() {
			return apperror.NewTransactionCommitted(current.String())
		}
		txn.State = StateDraft
		txn.Number = nil
		for i := range txn.Items {
			if id.IsNil(txn.Items[i].ID) {
				txn.Items[i].ID = id.New()
			}
			txn.Items[i].TransactionID = txn.ID
		}
		return s.repo.UpdateTransaction(ctx, txn)
	})
}

// Commit runs the commit pipeline on a draft transaction inside a single
// database transaction: every check passes or nothing changes.
func (s *Service) Commit(ctx context.Context, txnID id.ID) (Transaction, error) {
	var committed Transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.repo.GetTransaction(ctx, txnID)
		if err != nil {
			return err
		}
		if err := s.commit(ctx, &txn); err != nil {
			return err
		}
		committed = txn
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return committed, nil
}

// commit validates and commits the loaded transaction. Checks run in a
// fixed order so callers see the same failure for the same draft every
// time.
func (s *Service) commit(ctx context.Context, txn *Transaction) error {
	if !txn.IsDraft() {
		return apperror.NewTransactionCommitted(txn.String())
	}
	if len(txn.Items) == 0 {
		return apperror.NewEmptyTransaction(txn.String())
	}
	if balance := txn.Balance(); !balance.IsZero() {
		return apperror.NewImbalanced(txn.String(), types.CurrencyDisplay(balance))
	}

	if txn.Date == nil {
		today := types.Today()
		txn.Date = &today
	}

	period, err := s.calendar.PeriodByDate(ctx, *txn.Date)
	if err != nil {
		return err
	}
	year, err := s.calendar.Year(ctx, period.FiscalYearID)
	if err != nil {
		return err
	}
	if year.Closed {
		return apperror.NewFiscalYearClosed(year.Label())
	}
	txn.PeriodID = &period.ID
	txn.FiscalYearID = &period.FiscalYearID

	if err := s.validateItems(ctx, txn, year.ID); err != nil {
		return err
	}

	jrn, err := s.journals.Get(ctx, txn.JournalID)
	if err != nil {
		return err
	}
	if txn.Number != nil {
		// Drafts may reserve an explicit number; it must still be free
		// within the (fiscal year, journal) sequence.
		taken, err := s.repo.NumberExists(ctx, txn.JournalID, year.ID, *txn.Number)
		if err != nil {
			return err
		}
		if taken {
			return apperror.NewDuplicateNumber(jrn.Code, *txn.Number)
		}
	} else {
		number, err := s.journals.IssueNumber(ctx, txn.JournalID, year.ID)
		if err != nil {
			return err
		}
		txn.Number = &number
	}
	txn.State = StateCommitted
	if err := s.repo.UpdateTransaction(ctx, txn); err != nil {
		return err
	}

	logger.Info(ctx, "transaction committed",
		"journal", jrn.Code,
		"number", *txn.Number,
		"fiscal_year", year.Label(),
		"date", txn.Date.Format("2006-01-02"),
		"items", len(txn.Items))
	return nil
}

// validateItems checks each item against its account and resolves lots:
// frozen accounts reject postings, lot-tracking accounts get a fresh lot
// allocated per item when none is set, and a set lot must belong to the
// item's account.
func (s *Service) validateItems(ctx context.Context, txn *Transaction, fiscalYearID id.ID) error {
	for i := range txn.Items {
		item := &txn.Items[i]

		acc, err := s.accounts.AccountInfo(ctx, item.AccountID)
		if err != nil {
			return err
		}

		if acc.LotTracking && item.LotID == nil {
			lot, err := s.allocateLot(ctx, acc.ID, fiscalYearID)
			if err != nil {
				return err
			}
			item.LotID = &lot.ID
		}

		if acc.Frozen {
			return apperror.NewAccountFrozen(acc.Code + " " + acc.Name)
		}
		if item.LotID != nil {
			lot, err := s.repo.GetLot(ctx, *item.LotID)
			if err != nil {
				return err
			}
			if lot.AccountID != acc.ID {
				return apperror.NewLotMismatch(acc.Code+" "+acc.Name, strconv.Itoa(lot.Number))
			}
		}
	}
	return nil
}

// allocateLot creates the next-numbered lot for the (account, fiscal
// year) sequence.
func (s *Service) allocateLot(ctx context.Context, accountID, fiscalYearID id.ID) (Lot, error) {
	max, err := s.repo.MaxLotNumber(ctx, accountID, fiscalYearID)
	if err != nil {
		return Lot{}, err
	}
	lot := Lot{
		ID:           id.New(),
		AccountID:    accountID,
		FiscalYearID: fiscalYearID,
		Number:       max + 1,
	}
	if err := s.repo.CreateLot(ctx, &lot); err != nil {
		return Lot{}, err
	}
	return lot, nil
}

// BatchResult reports the outcome of a batch commit.
type BatchResult struct {
	Committed []id.ID
	// Failed is the transaction the batch stopped at, nil when all passed.
	Failed *id.ID
	Err    error
}

// CommitBatch commits drafts ordered by (date, id) and stops at the first
// failure. Transactions committed before the failure stay committed; the
// failed draft and everything after it stay drafts.
func (s *Service) CommitBatch(ctx context.Context, txnIDs []id.ID) BatchResult {
	drafts := make([]Transaction, 0, len(txnIDs))
	for _, txnID := range txnIDs {
		txn, err := s.repo.GetTransaction(ctx, txnID)
		if err != nil {
			failed := txnID
			return BatchResult{Failed: &failed, Err: err}
		}
		drafts = append(drafts, txn)
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		di, dj := batchDate(drafts[i]), batchDate(drafts[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return drafts[i].ID.String() < drafts[j].ID.String()
	})

	var result BatchResult
	for _, draft := range drafts {
		if _, err := s.Commit(ctx, draft.ID); err != nil {
			failed := draft.ID
			result.Failed = &failed
			result.Err = err
			return result
		}
		result.Committed = append(result.Committed, draft.ID)
	}
	return result
}

func batchDate(txn Transaction) time.Time {
	if txn.Date != nil {
		return *txn.Date
	}
	return types.Today()
}

// Lot retrieves a lot by ID.
func (s *Service) Lot(ctx context.Context, lotID id.ID) (Lot, error) {
	return s.repo.GetLot(ctx, lotID)
}

// Lots returns the lots of an account.
func (s *Service) Lots(ctx context.Context, accountID id.ID) ([]Lot, error) {
	return s.repo.ListLots(ctx, accountID)
}

// CreateLot creates an explicitly numbered or auto-numbered lot for a
// lot-tracking account.
func (s *Service) CreateLot(ctx context.Context, lot *Lot) error {
	acc, err := s.accounts.AccountInfo(ctx, lot.AccountID)
	if err != nil {
		return err
	}
	if !acc.LotTracking {
		return apperror.NewLotMismatch(acc.Code+" "+acc.Name, strconv.Itoa(lot.Number))
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if lot.Number == 0 {
			max, err := s.repo.MaxLotNumber(ctx, lot.AccountID, lot.FiscalYearID)
			if err != nil {
				return err
			}
			lot.Number = max + 1
		}
		if id.IsNil(lot.ID) {
			lot.ID = id.New()
		}
		return s.repo.CreateLot(ctx, lot)
	})
}
