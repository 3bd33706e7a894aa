package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kontor/internal/core/apperror"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/closing"
	"kontor/internal/infrastructure/http/v1/dto"
)

// FiscalYearHandler serves the fiscal calendar and the year-end close.
type FiscalYearHandler struct {
	BaseHandler
	calendar *calendar.Service
	closing  *closing.Service
}

// NewFiscalYearHandler creates a new fiscal year handler.
func NewFiscalYearHandler(cal *calendar.Service, closingService *closing.Service) *FiscalYearHandler {
	return &FiscalYearHandler{calendar: cal, closing: closingService}
}

// List returns all fiscal years.
// GET /api/v1/fiscal-years
func (h *FiscalYearHandler) List(c *gin.Context) {
	years, err := h.calendar.Years(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.FiscalYearResponse, 0, len(years))
	for i := range years {
		resp = append(resp, dto.NewFiscalYearResponse(&years[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ByDate resolves (and lazily generates) the fiscal year for a date.
// GET /api/v1/fiscal-years/by-date?date=YYYY-MM-DD
func (h *FiscalYearHandler) ByDate(c *gin.Context) {
	raw := c.Query("date")
	date, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("date", raw))
		return
	}
	year, err := h.calendar.YearByDate(c.Request.Context(), date)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFiscalYearResponse(&year))
}

// Periods returns the periods of a fiscal year.
// GET /api/v1/fiscal-years/:id/periods
func (h *FiscalYearHandler) Periods(c *gin.Context) {
	yearID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	periods, err := h.calendar.Periods(c.Request.Context(), yearID)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.FiscalPeriodResponse, 0, len(periods))
	for i := range periods {
		resp = append(resp, dto.NewFiscalPeriodResponse(&periods[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Close runs the year-end close: sweeps P&L balances into net earnings
// and locks the year.
// POST /api/v1/fiscal-years/:id/close
func (h *FiscalYearHandler) Close(c *gin.Context) {
	yearID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := h.closing.CloseYear(c.Request.Context(), yearID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
