package dto

import (
	"time"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/ledger"
)

const dateLayout = "2006-01-02"

// TransactionItemRequest is one debit/credit line of a draft.
type TransactionItemRequest struct {
	AccountID   string  `json:"accountId" binding:"required"`
	LotID       *string `json:"lotId"`
	Amount      string  `json:"amount" binding:"required"`
	Description string  `json:"description"`
}

// SaveTransactionRequest creates or updates a draft transaction.
type SaveTransactionRequest struct {
	JournalID   string                   `json:"journalId" binding:"required"`
	Number      *int                     `json:"number"`
	Date        *string                  `json:"date"`
	Description string                   `json:"description"`
	Items       []TransactionItemRequest `json:"items"`
}

// ToModel converts the request into a domain transaction.
func (r *SaveTransactionRequest) ToModel(txnID id.ID) (*ledger.Transaction, error) {
	journalID, err := id.Parse(r.JournalID)
	if err != nil {
		return nil, apperror.NewValidation("invalid journal id").
			WithDetail("journalId", r.JournalID)
	}

	txn := &ledger.Transaction{
		ID:          txnID,
		JournalID:   journalID,
		Number:      r.Number,
		Description: r.Description,
	}
	if r.Date != nil && *r.Date != "" {
		date, err := time.ParseInLocation(dateLayout, *r.Date, time.UTC)
		if err != nil {
			return nil, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
				WithDetail("date", *r.Date)
		}
		txn.Date = &date
	}

	for i, item := range r.Items {
		accountID, err := id.Parse(item.AccountID)
		if err != nil {
			return nil, apperror.NewValidation("invalid account id").
				WithDetail("item", i)
		}
		amount, err := types.NewMoneyFromString(item.Amount)
		if err != nil {
			return nil, apperror.NewValidation("invalid amount").
				WithDetail("item", i).WithDetail("amount", item.Amount)
		}
		line := ledger.TransactionItem{
			AccountID:   accountID,
			Amount:      amount,
			Description: item.Description,
		}
		if item.LotID != nil && *item.LotID != "" {
			lotID, err := id.Parse(*item.LotID)
			if err != nil {
				return nil, apperror.NewValidation("invalid lot id").
					WithDetail("item", i)
			}
			line.LotID = &lotID
		}
		txn.Items = append(txn.Items, line)
	}
	return txn, nil
}

// TransactionItemResponse is one line of a transaction on the wire.
type TransactionItemResponse struct {
	ID          id.ID  `json:"id"`
	AccountID   id.ID  `json:"accountId"`
	LotID       *id.ID `json:"lotId,omitempty"`
	Amount      string `json:"amount"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	Description string `json:"description,omitempty"`
}

// TransactionResponse is the transaction representation on the wire.
type TransactionResponse struct {
	ID           id.ID                     `json:"id"`
	JournalID    id.ID                     `json:"journalId"`
	Number       *int                      `json:"number,omitempty"`
	Date         *string                   `json:"date,omitempty"`
	Description  string                    `json:"description,omitempty"`
	State        string                    `json:"state"`
	Closing      bool                      `json:"closing"`
	FiscalYearID *id.ID                    `json:"fiscalYearId,omitempty"`
	PeriodID     *id.ID                    `json:"periodId,omitempty"`
	Balance      string                    `json:"balance"`
	Items        []TransactionItemResponse `json:"items"`
}

// NewTransactionResponse maps a domain transaction onto the wire shape.
func NewTransactionResponse(txn *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:           txn.ID,
		JournalID:    txn.JournalID,
		Number:       txn.Number,
		Description:  txn.Description,
		State:        string(txn.State),
		Closing:      txn.Closing,
		FiscalYearID: txn.FiscalYearID,
		PeriodID:     txn.PeriodID,
		Balance:      types.CurrencyDisplay(txn.Balance()),
	}
	if txn.Date != nil {
		date := txn.Date.Format(dateLayout)
		resp.Date = &date
	}
	for _, item := range txn.Items {
		resp.Items = append(resp.Items, TransactionItemResponse{
			ID:          item.ID,
			AccountID:   item.AccountID,
			LotID:       item.LotID,
			Amount:      item.Amount.String(),
			Debit:       item.Debit(),
			Credit:      item.Credit(),
			Description: item.Description,
		})
	}
	return resp
}

// CommitBatchRequest commits several drafts in (date, id) order.
type CommitBatchRequest struct {
	TransactionIDs []string `json:"transactionIds" binding:"required,min=1"`
}

// CommitBatchResponse reports which drafts were committed and, when the
// batch stopped early, which one failed and why.
type CommitBatchResponse struct {
	Committed []id.ID        `json:"committed"`
	Failed    *id.ID         `json:"failed,omitempty"`
	Error     map[string]any `json:"error,omitempty"`
}
