package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/account"
	"kontor/internal/infrastructure/http/v1/dto"
)

// AccountHandler serves the account hierarchy.
type AccountHandler struct {
	BaseHandler
	accounts *account.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *account.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// List returns all accounts in depth-first display order.
// GET /api/v1/accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, dto.NewAccountResponse(&accounts[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one account.
// GET /api/v1/accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	acc, err := h.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAccountResponse(&acc))
}

// Create inserts a new account.
// POST /api/v1/accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.SaveAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := req.ToModel(id.Nil())
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.accounts.Save(c.Request.Context(), acc); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAccountResponse(acc))
}

// Update saves changes to an account, triggering order recomputation
// and, when lot tracking is newly enabled, balance migration.
// PUT /api/v1/accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := req.ToModel(accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.accounts.Save(c.Request.Context(), acc); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAccountResponse(acc))
}

// Balance computes the account balance.
// GET /api/v1/accounts/:id/balance?asOf=&children=&lot=&transaction=&includeClosing=
func (h *AccountHandler) Balance(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	q := account.BalanceQuery{
		Children:       c.Query("children") == "true",
		IncludeClosing: c.Query("includeClosing") == "true",
	}
	if raw := c.Query("asOf"); raw != "" {
		asOf, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf date").WithDetail("asOf", raw))
			return
		}
		q.AsOf = &asOf
	}
	if raw := c.Query("lot"); raw != "" {
		lotID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid lot id").WithDetail("lot", raw))
			return
		}
		q.LotID = &lotID
	}
	if raw := c.Query("transaction"); raw != "" {
		if raw == "closing" {
			q.ClosingOnly = true
		} else {
			txnID, err := id.Parse(raw)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid transaction id").WithDetail("transaction", raw))
				return
			}
			q.TransactionID = &txnID
		}
	}

	ctx := c.Request.Context()
	balance, err := h.accounts.Balance(ctx, accountID, q)
	if err != nil {
		h.Error(c, err)
		return
	}
	display, err := h.accounts.DisplayBalance(ctx, accountID, q)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID: accountID,
		Balance:   types.CurrencyDisplay(balance),
		Display:   display,
	})
}

// Lots returns the account's lots.
// GET /api/v1/accounts/:id/lots?active=
func (h *AccountHandler) Lots(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lots, err := h.accounts.Lots(c.Request.Context(), accountID, c.Query("active") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.LotResponse, 0, len(lots))
	for i := range lots {
		resp = append(resp, dto.NewLotResponse(&lots[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Transactions returns committed transactions touching the account.
// GET /api/v1/accounts/:id/transactions
func (h *AccountHandler) Transactions(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	txns, err := h.accounts.Transactions(c.Request.Context(), accountID)
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

// PeriodTotals returns per-period debit/credit flows for the subtree.
// GET /api/v1/accounts/:id/period-totals?fiscalYear=<id>
func (h *AccountHandler) PeriodTotals(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	yearID, err := id.Parse(c.Query("fiscalYear"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fiscalYear id").
			WithDetail("fiscalYear", c.Query("fiscalYear")))
		return
	}
	totals, err := h.accounts.PeriodTotals(c.Request.Context(), accountID, yearID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}
