// internal/handlers/history.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftlink/partner-backend/internal/services"
	"github.com/craftlink/partner-backend/internal/utils"
)

type HistoryHandler struct {
	historyService *services.HistoryService
}

func NewHistoryHandler(historyService *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GET /history/:entityType/:id
// Returns the ledger for one entity ordered by sequence. Supports
// incremental reads via ?after=<sequence>.
func (h *HistoryHandler) GetEntityHistory(c *gin.Context) {
	entityType := c.Param("entityType")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid entity ID", nil)
		return
	}

	afterSequence := int64(0)
	if after := c.Query("after"); after != "" {
		if parsed, err := strconv.ParseInt(after, 10, 64); err == nil {
			afterSequence = parsed
		}
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	entries, err := h.historyService.Feed(entityType, id, afterSequence, limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"history": entries,
	})
}

// GET /history
// Admin activity view across all entities, newest first.
func (h *HistoryHandler) GetRecentHistory(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	entries, total, err := h.historyService.Recent(c.Query("entity_type"), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(entries, total, params)
	utils.PaginatedResponse(c, result)
}
