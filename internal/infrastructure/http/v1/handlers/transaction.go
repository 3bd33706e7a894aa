package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/ledger"
	"kontor/internal/infrastructure/http/v1/dto"
)

// TransactionHandler serves drafts and the commit pipeline.
type TransactionHandler struct {
	BaseHandler
	engine *ledger.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(engine *ledger.Service) *TransactionHandler {
	return &TransactionHandler{engine: engine}
}

// List returns transactions, optionally filtered.
// GET /api/v1/transactions?journal=&fiscalYear=&state=&dateOrder=
func (h *TransactionHandler) List(c *gin.Context) {
	var filter ledger.TransactionFilter
	if raw := c.Query("journal"); raw != "" {
		journalID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid journal id").WithDetail("journal", raw))
			return
		}
		filter.JournalID = &journalID
	}
	if raw := c.Query("fiscalYear"); raw != "" {
		yearID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid fiscalYear id").WithDetail("fiscalYear", raw))
			return
		}
		filter.FiscalYearID = &yearID
	}
	if raw := c.Query("state"); raw != "" {
		state := ledger.State(raw)
		if state != ledger.StateDraft && state != ledger.StateCommitted {
			h.Error(c, apperror.NewValidation("invalid state").WithDetail("state", raw))
			return
		}
		filter.State = &state
	}
	filter.DateOrder = c.Query("dateOrder") == "true"

	txns, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		resp = append(resp, dto.NewTransactionResponse(&txns[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one transaction with its items.
// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	txnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	txn, err := h.engine.Get(c.Request.Context(), txnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTransactionResponse(&txn))
}

// Create inserts a new draft transaction.
// POST /api/v1/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.SaveTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	txn, err := req.ToModel(id.Nil())
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.engine.CreateDraft(c.Request.Context(), txn); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTransactionResponse(txn))
}

// Update replaces a draft's header and items.
// PUT /api/v1/transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	txnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	txn, err := req.ToModel(txnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.engine.UpdateDraft(c.Request.Context(), txn); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// Commit runs the commit pipeline on a draft.
// POST /api/v1/transactions/:id/commit
func (h *TransactionHandler) Commit(c *gin.Context) {
	txnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	txn, err := h.engine.Commit(c.Request.Context(), txnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTransactionResponse(&txn))
}

// CommitBatch commits drafts in (date, id) order, stopping at the first
// failure. Commits that already succeeded stay committed.
// POST /api/v1/transactions/commit-batch
func (h *TransactionHandler) CommitBatch(c *gin.Context) {
	var req dto.CommitBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	txnIDs := make([]id.ID, 0, len(req.TransactionIDs))
	for _, raw := range req.TransactionIDs {
		txnID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid transaction id").WithDetail("id", raw))
			return
		}
		txnIDs = append(txnIDs, txnID)
	}

	result := h.engine.CommitBatch(c.Request.Context(), txnIDs)
	resp := dto.CommitBatchResponse{
		Committed: result.Committed,
		Failed:    result.Failed,
	}
	if result.Err != nil {
		if appErr, ok := apperror.AsAppError(result.Err); ok {
			resp.Error = map[string]any{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			resp.Error = map[string]any{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}
