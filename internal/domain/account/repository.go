package account

import (
	"context"

	"kontor/internal/core/id"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	// Create inserts a new account.
	Create(ctx context.Context, account *Account) error

	// Update persists changes to an account.
	Update(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, accountID id.ID) (Account, error)

	// GetByCode retrieves an account by its code.
	GetByCode(ctx context.Context, code string) (Account, error)

	// List returns all accounts ordered by the derived sort key.
	List(ctx context.Context) ([]Account, error)

	// ListRoots returns parentless accounts ordered by the sort key.
	ListRoots(ctx context.Context) ([]Account, error)

	// ListChildren returns direct children ordered by the sort key.
	ListChildren(ctx context.Context, parentID id.ID) ([]Account, error)

	// ListByTypes returns accounts of the given types.
	ListByTypes(ctx context.Context, accountTypes ...Type) ([]Account, error)

	// CodeInUse reports whether another account already carries the code.
	CodeInUse(ctx context.Context, code string, selfID id.ID) (bool, error)
}
