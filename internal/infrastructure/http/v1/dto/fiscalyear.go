package dto

import (
	"kontor/internal/core/id"
	"kontor/internal/domain/calendar"
)

// FiscalYearResponse is the fiscal year representation on the wire.
type FiscalYearResponse struct {
	ID     id.ID  `json:"id"`
	Label  string `json:"label"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Closed bool   `json:"closed"`
}

// NewFiscalYearResponse maps a fiscal year onto the wire shape.
func NewFiscalYearResponse(year *calendar.FiscalYear) FiscalYearResponse {
	return FiscalYearResponse{
		ID:     year.ID,
		Label:  year.Label(),
		Start:  year.Start.Format(dateLayout),
		End:    year.End.Format(dateLayout),
		Closed: year.Closed,
	}
}

// FiscalPeriodResponse is the fiscal period representation on the wire.
type FiscalPeriodResponse struct {
	ID           id.ID  `json:"id"`
	Label        string `json:"label"`
	Start        string `json:"start"`
	End          string `json:"end"`
	FiscalYearID id.ID  `json:"fiscalYearId"`
}

// NewFiscalPeriodResponse maps a fiscal period onto the wire shape.
func NewFiscalPeriodResponse(period *calendar.FiscalPeriod) FiscalPeriodResponse {
	return FiscalPeriodResponse{
		ID:           period.ID,
		Label:        period.Label(),
		Start:        period.Start.Format(dateLayout),
		End:          period.End.Format(dateLayout),
		FiscalYearID: period.FiscalYearID,
	}
}
