// Package closing provides the fiscal year-end close: sweeping
// profit-and-loss balances into the net-earnings account and locking the
// year against further postings.
package closing

import (
	"context"
	"fmt"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/tx"
	"kontor/internal/core/types"
	"kontor/internal/domain/account"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/pkg/logger"
)

// Service runs the year-end close.
type Service struct {
	calendar     *calendar.Service
	calendarRepo calendar.Repository
	accounts     *account.Service
	journals     *journal.Service
	engine       *ledger.Service
	txManager    tx.Manager
}

// NewService creates a new closing service.
func NewService(
	cal *calendar.Service,
	calRepo calendar.Repository,
	accounts *account.Service,
	journals *journal.Service,
	engine *ledger.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		calendar:     cal,
		calendarRepo: calRepo,
		accounts:     accounts,
		journals:     journals,
		engine:       engine,
		txManager:    txManager,
	}
}

// Result describes a completed close.
type Result struct {
	FiscalYear calendar.FiscalYear `json:"fiscalYear"`
	// TransactionID is the closing entry, nil when no P&L balance needed
	// sweeping.
	TransactionID *id.ID      `json:"transactionId,omitempty"`
	Profit        types.Money `json:"profit"`
}

// CloseYear zeroes every profit-and-loss account into the net-earnings
// account through a closing transaction dated on the year's last day,
// then marks the year closed. The whole close is atomic.
func (s *Service) CloseYear(ctx context.Context, yearID id.ID) (Result, error) {
	var result Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		year, err := s.calendar.Year(ctx, yearID)
		if err != nil {
			return err
		}
		if year.Closed {
			return apperror.NewAlreadyClosed(year.Label())
		}

		items, profit, err := s.sweepItems(ctx, year)
		if err != nil {
			return err
		}

		if len(items) > 0 {
			txnID, err := s.postClosing(ctx, year, items, profit)
			if err != nil {
				return err
			}
			result.TransactionID = &txnID
		}

		year.Closed = true
		if err := s.calendarRepo.UpdateYear(ctx, &year); err != nil {
			return err
		}

		result.FiscalYear = year
		result.Profit = profit
		logger.Info(ctx, "fiscal year closed",
			"fiscal_year", year.Label(),
			"profit", types.CurrencyDisplay(profit),
			"swept_accounts", len(items))
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// sweepItems builds one offsetting item per profit-and-loss account with
// a nonzero balance at year end, and accumulates the profit they carry.
func (s *Service) sweepItems(ctx context.Context, year calendar.FiscalYear) ([]ledger.TransactionItem, types.Money, error) {
	pnl, err := s.accounts.ListByTypes(ctx, account.TypeIncome, account.TypeExpense)
	if err != nil {
		return nil, types.Zero(), err
	}

	asOf := year.End
	profit := types.Zero()
	var items []ledger.TransactionItem
	for _, acc := range pnl {
		balance, err := s.accounts.Balance(ctx, acc.ID, account.BalanceQuery{
			AsOf:           &asOf,
			IncludeClosing: true,
		})
		if err != nil {
			return nil, types.Zero(), err
		}
		if balance.IsZero() {
			continue
		}
		items = append(items, ledger.TransactionItem{
			AccountID: acc.ID,
			Amount:    balance.Neg(),
		})
		profit = profit.Add(balance)
	}
	return items, profit, nil
}

// postClosing commits the closing transaction: the sweep items plus the
// net-earnings counterpart when the year produced a profit or loss.
func (s *Service) postClosing(ctx context.Context, year calendar.FiscalYear, items []ledger.TransactionItem, profit types.Money) (id.ID, error) {
	if !profit.IsZero() {
		netEarnings, err := s.accounts.NetEarnings(ctx)
		if err != nil {
			return id.Nil(), err
		}
		items = append(items, ledger.TransactionItem{
			AccountID: netEarnings.ID,
			Amount:    profit,
		})
	}

	closingJournal, err := s.journals.ClosingJournal(ctx)
	if err != nil {
		return id.Nil(), err
	}

	date := year.End
	txn := ledger.Transaction{
		JournalID:   closingJournal.ID,
		Date:        &date,
		Description: fmt.Sprintf("Closing of fiscal year %s", year.Label()),
		Closing:     true,
		Items:       items,
	}
	if err := s.engine.CreateDraft(ctx, &txn); err != nil {
		return id.Nil(), err
	}
	if _, err := s.engine.Commit(ctx, txn.ID); err != nil {
		return id.Nil(), err
	}
	return txn.ID, nil
}
