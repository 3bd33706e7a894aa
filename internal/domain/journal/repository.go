package journal

import (
	"context"

	"kontor/internal/core/id"
)

// Repository defines persistence operations for journals.
type Repository interface {
	// Create inserts a new journal.
	Create(ctx context.Context, journal *Journal) error

	// Update persists changes to a journal.
	Update(ctx context.Context, journal *Journal) error

	// GetByID retrieves a journal by ID.
	GetByID(ctx context.Context, journalID id.ID) (Journal, error)

	// GetByCode retrieves a journal by its unique code.
	GetByCode(ctx context.Context, code string) (Journal, error)

	// List returns all journals ordered by code.
	List(ctx context.Context) ([]Journal, error)

	// ListClosing returns journals flagged as closing.
	ListClosing(ctx context.Context) ([]Journal, error)
}

// NumberSource reports issued transaction numbers. Implemented by the
// ledger store; defined here so the journal package stays free of ledger
// imports.
type NumberSource interface {
	// MaxTransactionNumber returns the highest committed transaction
	// number in the (journal, fiscal year) sequence, or 0 when none.
	MaxTransactionNumber(ctx context.Context, journalID, fiscalYearID id.ID) (int, error)
}
