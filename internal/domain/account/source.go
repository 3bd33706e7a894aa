package account

import (
	"context"

	"kontor/internal/core/id"
	"kontor/internal/domain/ledger"
)

// LedgerSource adapts the account repository to the transaction engine's
// account lookups.
type LedgerSource struct {
	repo Repository
}

// NewLedgerSource creates an account source for the transaction engine.
func NewLedgerSource(repo Repository) *LedgerSource {
	return &LedgerSource{repo: repo}
}

// AccountInfo implements ledger.AccountSource.
func (s *LedgerSource) AccountInfo(ctx context.Context, accountID id.ID) (ledger.AccountInfo, error) {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return ledger.AccountInfo{}, err
	}
	return ledger.AccountInfo{
		ID:          acc.ID,
		Code:        acc.Code,
		Name:        acc.Name,
		Frozen:      acc.Frozen,
		LotTracking: acc.LotTracking,
	}, nil
}
