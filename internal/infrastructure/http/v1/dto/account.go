package dto

import (
	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/account"
)

// SaveAccountRequest creates or updates an account.
type SaveAccountRequest struct {
	Name        string  `json:"name" binding:"required"`
	Code        string  `json:"code"`
	ParentID    *string `json:"parentId"`
	Type        string  `json:"type" binding:"required"`
	Public      bool    `json:"public"`
	Frozen      bool    `json:"frozen"`
	LotTracking bool    `json:"lotTracking"`
}

// ToModel converts the request into a domain account.
func (r *SaveAccountRequest) ToModel(accountID id.ID) (*account.Account, error) {
	acc := &account.Account{
		ID:          accountID,
		Name:        r.Name,
		Code:        r.Code,
		Type:        account.Type(r.Type),
		Public:      r.Public,
		Frozen:      r.Frozen,
		LotTracking: r.LotTracking,
	}
	if r.ParentID != nil && *r.ParentID != "" {
		parentID, err := id.Parse(*r.ParentID)
		if err != nil {
			return nil, apperror.NewValidation("invalid parent id").
				WithDetail("parentId", *r.ParentID)
		}
		acc.ParentID = &parentID
	}
	return acc, nil
}

// AccountResponse is the account representation on the wire.
type AccountResponse struct {
	ID          id.ID  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	ParentID    *id.ID `json:"parentId,omitempty"`
	Order       string `json:"order"`
	Type        string `json:"type"`
	Public      bool   `json:"public"`
	Frozen      bool   `json:"frozen"`
	LotTracking bool   `json:"lotTracking"`
	Display     string `json:"display"`
}

// NewAccountResponse maps a domain account onto the wire shape.
func NewAccountResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:          acc.ID,
		Name:        acc.Name,
		Code:        acc.Code,
		ParentID:    acc.ParentID,
		Order:       acc.Order,
		Type:        string(acc.Type),
		Public:      acc.Public,
		Frozen:      acc.Frozen,
		LotTracking: acc.LotTracking,
		Display:     acc.String(),
	}
}

// BalanceResponse reports a computed balance.
type BalanceResponse struct {
	AccountID id.ID  `json:"accountId"`
	Balance   string `json:"balance"`
	Display   string `json:"display"`
}
