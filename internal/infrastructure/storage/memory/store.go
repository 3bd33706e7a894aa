// Package memory provides an in-memory implementation of the ledger
// repositories with a snapshot-based transaction manager. It backs the
// domain test suites and keeps the same all-or-nothing semantics as the
// PostgreSQL store.
package memory

import (
	"context"
	"sync"

	"kontor/internal/core/id"
	"kontor/internal/core/tx"
	"kontor/internal/domain/account"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
)

// Store holds all ledger entities in maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	years    map[id.ID]calendar.FiscalYear
	periods  map[id.ID]calendar.FiscalPeriod
	accounts map[id.ID]account.Account
	journals map[id.ID]journal.Journal
	txns     map[id.ID]ledger.Transaction
	lots     map[id.ID]ledger.Lot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		years:    make(map[id.ID]calendar.FiscalYear),
		periods:  make(map[id.ID]calendar.FiscalPeriod),
		accounts: make(map[id.ID]account.Account),
		journals: make(map[id.ID]journal.Journal),
		txns:     make(map[id.ID]ledger.Transaction),
		lots:     make(map[id.ID]ledger.Lot),
	}
}

type snapshot struct {
	years    map[id.ID]calendar.FiscalYear
	periods  map[id.ID]calendar.FiscalPeriod
	accounts map[id.ID]account.Account
	journals map[id.ID]journal.Journal
	txns     map[id.ID]ledger.Transaction
	lots     map[id.ID]ledger.Lot
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		years:    make(map[id.ID]calendar.FiscalYear, len(s.years)),
		periods:  make(map[id.ID]calendar.FiscalPeriod, len(s.periods)),
		accounts: make(map[id.ID]account.Account, len(s.accounts)),
		journals: make(map[id.ID]journal.Journal, len(s.journals)),
		txns:     make(map[id.ID]ledger.Transaction, len(s.txns)),
		lots:     make(map[id.ID]ledger.Lot, len(s.lots)),
	}
	for k, v := range s.years {
		snap.years[k] = v
	}
	for k, v := range s.periods {
		snap.periods[k] = v
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.journals {
		snap.journals[k] = v
	}
	for k, v := range s.txns {
		snap.txns[k] = copyTxn(v)
	}
	for k, v := range s.lots {
		snap.lots[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years = snap.years
	s.periods = snap.periods
	s.accounts = snap.accounts
	s.journals = snap.journals
	s.txns = snap.txns
	s.lots = snap.lots
}

func copyTxn(txn ledger.Transaction) ledger.Transaction {
	out := txn
	out.Items = make([]ledger.TransactionItem, len(txn.Items))
	copy(out.Items, txn.Items)
	if txn.Number != nil {
		n := *txn.Number
		out.Number = &n
	}
	if txn.Date != nil {
		d := *txn.Date
		out.Date = &d
	}
	if txn.FiscalYearID != nil {
		fy := *txn.FiscalYearID
		out.FiscalYearID = &fy
	}
	if txn.PeriodID != nil {
		p := *txn.PeriodID
		out.PeriodID = &p
	}
	return out
}

// txDepthKey marks that a snapshot transaction is already open.
type txDepthKey struct{}

// TxManager implements tx.Manager by snapshotting the whole store and
// restoring it when the function fails. Single-writer: transactions are
// serialized by a mutex, matching the serializable isolation the ledger
// expects from its store.
type TxManager struct {
	store *Store
	mu    sync.Mutex
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager creates a transaction manager over the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction executes fn, rolling the store back to its previous
// state when fn fails. Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txDepthKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txDepthKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}
