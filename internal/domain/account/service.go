package account

import (
	"context"
	"fmt"
	"time"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/tx"
	"kontor/internal/core/types"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/pkg/logger"
)

// BalanceQuery narrows a balance computation. The zero value is the
// current raw balance of the account alone.
type BalanceQuery struct {
	// AsOf restricts to transactions dated strictly before the date, plus
	// same-day transactions that are not closing entries.
	AsOf *time.Time
	// Children adds the balances of the whole subtree.
	Children bool
	// LotID restricts to items of one lot.
	LotID *id.ID
	// TransactionID restricts to items of one transaction.
	TransactionID *id.ID
	// IncludeClosing counts same-day closing entries at AsOf.
	IncludeClosing bool
	// ClosingOnly reports the incremental effect of closing entries:
	// zero for ordinary accounts, the aggregate P&L balance for the
	// net-earnings account.
	ClosingOnly bool
}

// PeriodTotal is the per-period movement of an account subtree: absolute
// debit and credit flows plus the signed display balance.
type PeriodTotal struct {
	PeriodID id.ID       `json:"periodId"`
	Debit    types.Money `json:"debit"`
	Credit   types.Money `json:"credit"`
	Balance  types.Money `json:"balance"`
}

// Service provides account hierarchy operations: saves with derived-order
// maintenance and lot migration, and balance queries over committed items.
type Service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	engine     *ledger.Service
	journals   *journal.Service
	calendar   *calendar.Service
	txManager  tx.Manager
}

// NewService creates a new account service.
func NewService(
	repo Repository,
	ledgerRepo ledger.Repository,
	engine *ledger.Service,
	journals *journal.Service,
	cal *calendar.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		engine:     engine,
		journals:   journals,
		calendar:   cal,
		txManager:  txManager,
	}
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, accountID id.ID) (Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// GetByCode retrieves an account by code.
func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns all accounts in depth-first display order.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Children returns the direct children of an account.
func (s *Service) Children(ctx context.Context, accountID id.ID) ([]Account, error) {
	return s.repo.ListChildren(ctx, accountID)
}

// ListByTypes returns accounts of the given types.
func (s *Service) ListByTypes(ctx context.Context, accountTypes ...Type) ([]Account, error) {
	return s.repo.ListByTypes(ctx, accountTypes...)
}

// NetEarnings returns the single net-earnings account. Zero or multiple
// is a chart-of-accounts misconfiguration surfaced loudly.
func (s *Service) NetEarnings(ctx context.Context) (Account, error) {
	accounts, err := s.repo.ListByTypes(ctx, TypeNetEarnings)
	if err != nil {
		return Account{}, err
	}
	if len(accounts) != 1 {
		return Account{}, apperror.NewBusinessRule(apperror.CodeNetEarnings,
			"exactly one net-earnings account must be configured").
			WithDetail("count", len(accounts))
	}
	return accounts[0], nil
}

// Save creates or updates an account, maintaining the derived order key
// up the tree. Newly enabling lot tracking on an account with a nonzero
// balance migrates the balance into a fresh lot first.
func (s *Service) Save(ctx context.Context, acc *Account) error {
	if err := acc.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if acc.Code != "" {
			inUse, err := s.repo.CodeInUse(ctx, acc.Code, acc.ID)
			if err != nil {
				return err
			}
			if inUse {
				return apperror.NewDuplicateCode(acc.Code)
			}
		}

		var current *Account
		isNew := id.IsNil(acc.ID)
		if isNew {
			acc.ID = id.New()
		} else {
			existing, err := s.repo.GetByID(ctx, acc.ID)
			if err != nil {
				return err
			}
			current = &existing
		}

		// Migrate before the flag change lands, so the zeroing item still
		// posts to the plain (lot-less) balance.
		if current != nil && !current.LotTracking && acc.LotTracking {
			if err := s.migrateToLots(ctx, current); err != nil {
				return err
			}
		}

		order, err := s.computeOrder(ctx, acc)
		if err != nil {
			return err
		}
		acc.Order = order

		if isNew {
			if err := s.repo.Create(ctx, acc); err != nil {
				return err
			}
		} else {
			if err := s.repo.Update(ctx, acc); err != nil {
				return err
			}
		}

		if acc.ParentID != nil {
			if err := s.refreshOrder(ctx, *acc.ParentID); err != nil {
				return err
			}
		}
		// A reparented account leaves its old parent's order stale too.
		if current != nil && current.ParentID != nil &&
			(acc.ParentID == nil || *acc.ParentID != *current.ParentID) {
			if err := s.refreshOrder(ctx, *current.ParentID); err != nil {
				return err
			}
		}
		return nil
	})
}

// computeOrder derives the sort key: the account's own code, else the
// minimum order among its children, else empty.
func (s *Service) computeOrder(ctx context.Context, acc *Account) (string, error) {
	if acc.Code != "" {
		return acc.Code, nil
	}
	children, err := s.repo.ListChildren(ctx, acc.ID)
	if err != nil {
		return "", err
	}
	order := ""
	for _, child := range children {
		if order == "" || child.Order < order {
			order = child.Order
		}
	}
	return order, nil
}

// refreshOrder recomputes one account's order and walks up while the key
// keeps changing.
func (s *Service) refreshOrder(ctx context.Context, accountID id.ID) error {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	order, err := s.computeOrder(ctx, &acc)
	if err != nil {
		return err
	}
	if order == acc.Order {
		return nil
	}
	acc.Order = order
	if err := s.repo.Update(ctx, &acc); err != nil {
		return err
	}
	if acc.ParentID != nil {
		return s.refreshOrder(ctx, *acc.ParentID)
	}
	return nil
}

// migrateToLots moves a nonzero plain balance into a freshly created lot
// through a committed transaction in the closing journal, dated at the
// start of the earliest open fiscal year.
func (s *Service) migrateToLots(ctx context.Context, acc *Account) error {
	balance, err := s.ledgerRepo.SumItems(ctx, ledger.ItemFilter{
		AccountIDs:     []id.ID{acc.ID},
		IncludeClosing: true,
	})
	if err != nil {
		return err
	}
	if balance.IsZero() {
		return nil
	}

	year, err := s.earliestOpenYear(ctx)
	if err != nil {
		return err
	}
	closingJournal, err := s.journals.ClosingJournal(ctx)
	if err != nil {
		return err
	}

	max, err := s.ledgerRepo.MaxLotNumber(ctx, acc.ID, year.ID)
	if err != nil {
		return err
	}
	lot := ledger.Lot{
		ID:           id.New(),
		AccountID:    acc.ID,
		FiscalYearID: year.ID,
		Number:       max + 1,
		Description:  "Lot tracking migration",
	}
	if err := s.ledgerRepo.CreateLot(ctx, &lot); err != nil {
		return err
	}

	migration := ledger.Transaction{
		JournalID:   closingJournal.ID,
		Date:        &year.Start,
		Description: fmt.Sprintf("Lot tracking migration for %s", acc.String()),
		Items: []ledger.TransactionItem{
			{AccountID: acc.ID, Amount: balance.Neg()},
			{AccountID: acc.ID, LotID: &lot.ID, Amount: balance},
		},
	}
	if err := s.engine.CreateDraft(ctx, &migration); err != nil {
		return err
	}
	if _, err := s.engine.Commit(ctx, migration.ID); err != nil {
		return err
	}

	logger.Info(ctx, "account balance migrated to lot",
		"account", acc.String(),
		"fiscal_year", year.Label(),
		"lot", lot.Number,
		"amount", types.CurrencyDisplay(balance))
	return nil
}

// earliestOpenYear finds the first fiscal year still open for posting,
// extending the calendar past the latest closed year when none is.
func (s *Service) earliestOpenYear(ctx context.Context) (calendar.FiscalYear, error) {
	years, err := s.calendar.Years(ctx)
	if err != nil {
		return calendar.FiscalYear{}, err
	}
	for _, year := range years {
		if !year.Closed {
			return year, nil
		}
	}
	if len(years) == 0 {
		return s.calendar.GenerateYear(ctx, types.Today())
	}
	latest := years[len(years)-1]
	return s.calendar.GenerateYear(ctx, latest.End.AddDate(0, 0, 1))
}

// Balance computes the raw (credit-positive) balance of an account.
func (s *Service) Balance(ctx context.Context, accountID id.ID, q BalanceQuery) (types.Money, error) {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return types.Zero(), err
	}
	return s.balance(ctx, &acc, q)
}

// DisplayBalance renders the balance flipped by the account's sign.
func (s *Service) DisplayBalance(ctx context.Context, accountID id.ID, q BalanceQuery) (string, error) {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	balance, err := s.balance(ctx, &acc, q)
	if err != nil {
		return "", err
	}
	return types.CurrencyDisplay(balance.Mul(types.NewMoneyFromInt(int64(acc.Sign())))), nil
}

func (s *Service) balance(ctx context.Context, acc *Account, q BalanceQuery) (types.Money, error) {
	if q.ClosingOnly {
		return s.closingBalance(ctx, acc, q)
	}

	sum, err := s.ledgerRepo.SumItems(ctx, ledger.ItemFilter{
		AccountIDs:     []id.ID{acc.ID},
		LotID:          q.LotID,
		TransactionID:  q.TransactionID,
		AsOf:           q.AsOf,
		IncludeClosing: q.IncludeClosing,
	})
	if err != nil {
		return types.Zero(), err
	}
	if !q.Children {
		return sum, nil
	}

	children, err := s.repo.ListChildren(ctx, acc.ID)
	if err != nil {
		return types.Zero(), err
	}
	for i := range children {
		childSum, err := s.balance(ctx, &children[i], q)
		if err != nil {
			return types.Zero(), err
		}
		sum = sum.Add(childSum)
	}
	return sum, nil
}

// closingBalance reports the incremental effect of the year-end close:
// ordinary accounts contribute nothing, while the net-earnings account
// picks up the aggregate profit-and-loss balance.
func (s *Service) closingBalance(ctx context.Context, acc *Account, q BalanceQuery) (types.Money, error) {
	if acc.Type != TypeNetEarnings {
		return types.Zero(), nil
	}
	pnl, err := s.repo.ListByTypes(ctx, TypeIncome, TypeExpense)
	if err != nil {
		return types.Zero(), err
	}
	sum := types.Zero()
	for _, p := range pnl {
		partial, err := s.ledgerRepo.SumItems(ctx, ledger.ItemFilter{
			AccountIDs:     []id.ID{p.ID},
			AsOf:           q.AsOf,
			IncludeClosing: q.IncludeClosing,
		})
		if err != nil {
			return types.Zero(), err
		}
		sum = sum.Add(partial)
	}
	return sum, nil
}

// Lots returns the account's lots; with activeOnly, just those with a
// nonzero accumulated committed amount.
func (s *Service) Lots(ctx context.Context, accountID id.ID, activeOnly bool) ([]ledger.Lot, error) {
	lots, err := s.ledgerRepo.ListLots(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return lots, nil
	}
	active := lots[:0]
	for _, lot := range lots {
		lotID := lot.ID
		sum, err := s.ledgerRepo.SumItems(ctx, ledger.ItemFilter{
			AccountIDs:     []id.ID{accountID},
			LotID:          &lotID,
			IncludeClosing: true,
		})
		if err != nil {
			return nil, err
		}
		if !sum.IsZero() {
			active = append(active, lot)
		}
	}
	return active, nil
}

// Transactions returns committed transactions touching the account.
func (s *Service) Transactions(ctx context.Context, accountID id.ID) ([]ledger.Transaction, error) {
	return s.ledgerRepo.ListAccountTransactions(ctx, accountID)
}

// PeriodTotals aggregates absolute debit and credit flows per fiscal
// period over the account and its subtree, with the signed balance per
// period.
func (s *Service) PeriodTotals(ctx context.Context, accountID, fiscalYearID id.ID) ([]PeriodTotal, error) {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	subtree, err := s.subtreeIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	raw, err := s.ledgerRepo.PeriodTotals(ctx, subtree, fiscalYearID)
	if err != nil {
		return nil, err
	}
	sign := types.NewMoneyFromInt(int64(acc.Sign()))
	totals := make([]PeriodTotal, 0, len(raw))
	for _, t := range raw {
		totals = append(totals, PeriodTotal{
			PeriodID: t.PeriodID,
			Debit:    t.Debit,
			Credit:   t.Credit,
			Balance:  t.Credit.Sub(t.Debit).Mul(sign),
		})
	}
	return totals, nil
}

func (s *Service) subtreeIDs(ctx context.Context, accountID id.ID) ([]id.ID, error) {
	ids := []id.ID{accountID}
	children, err := s.repo.ListChildren(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		childIDs, err := s.subtreeIDs(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, childIDs...)
	}
	return ids, nil
}
