package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kontor/internal/core/apperror"
	"kontor/internal/domain/reports"
)

// ReportsHandler serves the general journal and general ledger views.
type ReportsHandler struct {
	BaseHandler
	reports *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reportsService *reports.Service) *ReportsHandler {
	return &ReportsHandler{reports: reportsService}
}

func (h *ReportsHandler) yearLabel(c *gin.Context) (int, bool) {
	label, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fiscal year label").
			WithDetail("year", c.Param("year")))
		return 0, false
	}
	return label, true
}

// GeneralJournal lists the year's committed transactions in date order.
// GET /api/v1/reports/general-journal/:year
func (h *ReportsHandler) GeneralJournal(c *gin.Context) {
	label, ok := h.yearLabel(c)
	if !ok {
		return
	}
	report, err := h.reports.GeneralJournal(c.Request.Context(), label)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GeneralLedger presents public accounts over the year.
// GET /api/v1/reports/general-ledger/:year
func (h *ReportsHandler) GeneralLedger(c *gin.Context) {
	label, ok := h.yearLabel(c)
	if !ok {
		return
	}
	report, err := h.reports.GeneralLedger(c.Request.Context(), label)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
