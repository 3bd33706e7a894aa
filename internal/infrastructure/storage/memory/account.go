package memory

import (
	"context"
	"sort"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/account"
)

var _ account.Repository = (*Store)(nil)

// Create inserts a new account.
func (s *Store) Create(ctx context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = *acc
	return nil
}

// Update persists changes to an account.
func (s *Store) Update(ctx context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.ID]; !ok {
		return apperror.NewNotFound("account", acc.ID)
	}
	s.accounts[acc.ID] = *acc
	return nil
}

// GetByID retrieves an account by ID.
func (s *Store) GetByID(ctx context.Context, accountID id.ID) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return account.Account{}, apperror.NewNotFound("account", accountID)
	}
	return acc, nil
}

// GetByCode retrieves an account by its code.
func (s *Store) GetByCode(ctx context.Context, code string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.Code != "" && acc.Code == code {
			return acc, nil
		}
	}
	return account.Account{}, apperror.NewNotFound("account", code)
}

// List returns all accounts ordered by the derived sort key.
func (s *Store) List(ctx context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accounts = append(accounts, acc)
	}
	sortAccounts(accounts)
	return accounts, nil
}

// ListRoots returns parentless accounts ordered by the sort key.
func (s *Store) ListRoots(ctx context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roots []account.Account
	for _, acc := range s.accounts {
		if acc.ParentID == nil {
			roots = append(roots, acc)
		}
	}
	sortAccounts(roots)
	return roots, nil
}

// ListChildren returns direct children ordered by the sort key.
func (s *Store) ListChildren(ctx context.Context, parentID id.ID) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var children []account.Account
	for _, acc := range s.accounts {
		if acc.ParentID != nil && *acc.ParentID == parentID {
			children = append(children, acc)
		}
	}
	sortAccounts(children)
	return children, nil
}

// ListByTypes returns accounts of the given types.
func (s *Store) ListByTypes(ctx context.Context, accountTypes ...account.Type) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []account.Account
	for _, acc := range s.accounts {
		for _, t := range accountTypes {
			if acc.Type == t {
				matched = append(matched, acc)
				break
			}
		}
	}
	sortAccounts(matched)
	return matched, nil
}

// CodeInUse reports whether another account already carries the code.
func (s *Store) CodeInUse(ctx context.Context, code string, selfID id.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.Code == code && acc.ID != selfID {
			return true, nil
		}
	}
	return false, nil
}

func sortAccounts(accounts []account.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Order != accounts[j].Order {
			return accounts[i].Order < accounts[j].Order
		}
		return accounts[i].Name < accounts[j].Name
	})
}
