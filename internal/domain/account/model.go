// Package account provides the account hierarchy: a tree of typed
// accounts with derived ordering and balances computed from committed
// ledger items.
package account

import (
	"context"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
)

// Type classifies an account and fixes its sign convention.
type Type string

const (
	TypeAsset       Type = "As"
	TypeEquity      Type = "Eq"
	TypeNetEarnings Type = "NE"
	TypeLiability   Type = "Li"
	TypeIncome      Type = "In"
	TypeExpense     Type = "Ex"
)

// Valid reports whether the type is one of the known account types.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeEquity, TypeNetEarnings, TypeLiability, TypeIncome, TypeExpense:
		return true
	}
	return false
}

// IsProfitAndLoss reports whether the type participates in the year-end
// closing sweep.
func (t Type) IsProfitAndLoss() bool {
	return t == TypeIncome || t == TypeExpense
}

// Account is a node in the account tree. Order is a derived sort key:
// the account's own code when set, else the minimum order among its
// children, maintained bottom-up on every save.
type Account struct {
	ID          id.ID  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Code        string `db:"code" json:"code,omitempty"`
	ParentID    *id.ID `db:"parent_id" json:"parentId,omitempty"`
	Order       string `db:"sort_order" json:"order"`
	Type        Type   `db:"account_type" json:"type"`
	Public      bool   `db:"public" json:"public"`
	Frozen      bool   `db:"frozen" json:"frozen"`
	LotTracking bool   `db:"lot_tracking" json:"lotTracking"`
}

// Sign is the display multiplier: raw ledger amounts are credit-positive,
// so debit-normal accounts flip for display.
func (a *Account) Sign() int {
	if a.Type == TypeAsset || a.Type == TypeExpense {
		return -1
	}
	return 1
}

// Validate implements self-validation without database access.
func (a *Account) Validate(ctx context.Context) error {
	if a.Name == "" {
		return apperror.NewValidation("account name is required").
			WithDetail("field", "name")
	}
	if !a.Type.Valid() {
		return apperror.NewValidation("unknown account type").
			WithDetail("type", string(a.Type))
	}
	if a.LotTracking && (a.Type.IsProfitAndLoss() || a.Type == TypeNetEarnings) {
		return apperror.NewBusinessRule(apperror.CodeLotTracking,
			"lot tracking is not allowed on profit-and-loss or net-earnings accounts").
			WithDetail("type", string(a.Type))
	}
	return nil
}

// String renders "CODE NAME", or just the name for codeless accounts.
func (a *Account) String() string {
	if a.Code != "" {
		return a.Code + " " + a.Name
	}
	return a.Name
}
