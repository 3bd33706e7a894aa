package dto

import (
	"kontor/internal/core/id"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
)

// SaveJournalRequest creates a journal.
type SaveJournalRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	Closing     bool   `json:"closing"`
}

// ToModel converts the request into a domain journal.
func (r *SaveJournalRequest) ToModel(journalID id.ID) *journal.Journal {
	return &journal.Journal{
		ID:          journalID,
		Code:        r.Code,
		Description: r.Description,
		Closing:     r.Closing,
	}
}

// JournalResponse is the journal representation on the wire.
type JournalResponse struct {
	ID          id.ID  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Closing     bool   `json:"closing"`
}

// NewJournalResponse maps a domain journal onto the wire shape.
func NewJournalResponse(j *journal.Journal) JournalResponse {
	return JournalResponse{
		ID:          j.ID,
		Code:        j.Code,
		Description: j.Description,
		Closing:     j.Closing,
	}
}

// LotResponse is the lot representation on the wire.
type LotResponse struct {
	ID           id.ID  `json:"id"`
	AccountID    id.ID  `json:"accountId"`
	FiscalYearID id.ID  `json:"fiscalYearId"`
	Number       int    `json:"number"`
	Description  string `json:"description,omitempty"`
}

// NewLotResponse maps a domain lot onto the wire shape.
func NewLotResponse(lot *ledger.Lot) LotResponse {
	return LotResponse{
		ID:           lot.ID,
		AccountID:    lot.AccountID,
		FiscalYearID: lot.FiscalYearID,
		Number:       lot.Number,
		Description:  lot.Description,
	}
}
