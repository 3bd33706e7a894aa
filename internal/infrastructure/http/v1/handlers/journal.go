package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kontor/internal/core/id"
	"kontor/internal/domain/journal"
	"kontor/internal/infrastructure/http/v1/dto"
)

// JournalHandler serves journals.
type JournalHandler struct {
	BaseHandler
	journals *journal.Service
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(journals *journal.Service) *JournalHandler {
	return &JournalHandler{journals: journals}
}

// List returns all journals.
// GET /api/v1/journals
func (h *JournalHandler) List(c *gin.Context) {
	journals, err := h.journals.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.JournalResponse, 0, len(journals))
	for i := range journals {
		resp = append(resp, dto.NewJournalResponse(&journals[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one journal.
// GET /api/v1/journals/:id
func (h *JournalHandler) Get(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	j, err := h.journals.Get(c.Request.Context(), journalID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJournalResponse(&j))
}

// Create inserts a new journal.
// POST /api/v1/journals
func (h *JournalHandler) Create(c *gin.Context) {
	var req dto.SaveJournalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	j := req.ToModel(id.Nil())
	if err := h.journals.Create(c.Request.Context(), j); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewJournalResponse(j))
}
