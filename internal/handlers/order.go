// internal/handlers/order.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftlink/partner-backend/internal/i18n"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/services"
	"github.com/craftlink/partner-backend/internal/utils"
)

type OrderHandler struct {
	assignmentService *services.AssignmentService
}

func NewOrderHandler(assignmentService *services.AssignmentService) *OrderHandler {
	return &OrderHandler{
		assignmentService: assignmentService,
	}
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, assignment, err := h.assignmentService.CreateOrder(&req)
	if err != nil {
		if errors.Is(err, services.ErrAssignmentContended) {
			utils.ConflictResponse(c, "ASSIGNMENT_CONTENDED", i18n.T(lang, i18n.KeyAssignmentContended))
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "order.service")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	if assignment == nil {
		utils.CreatedResponse(c, gin.H{
			"message": i18n.T(lang, i18n.KeyOrderQueued),
			"order":   order,
		})
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentCreated),
		"order":      order,
		"assignment": assignment,
	})
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	order, err := h.assignmentService.GetOrder(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "order")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// POST /orders/:id/assign
// Re-runs the assignment engine on a pending or queued order.
func (h *OrderHandler) AssignOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	assignment, err := h.assignmentService.AssignOrder(id, actorFromContext(c))
	if err != nil {
		if errors.Is(err, services.ErrNoEligiblePartner) {
			utils.SuccessResponse(c, gin.H{
				"message": i18n.T(lang, i18n.KeyOrderQueued),
			})
			return
		}
		if errors.Is(err, services.ErrAssignmentContended) {
			utils.ConflictResponse(c, "ASSIGNMENT_CONTENDED", i18n.T(lang, i18n.KeyAssignmentContended))
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "order")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentCreated),
		"assignment": assignment,
	})
}

// POST /orders/:id/manual-assign
func (h *OrderHandler) ManualAssign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	var req services.ManualAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	assignment, err := h.assignmentService.ManualAssign(id, &req, actorFromContext(c))
	if err != nil {
		if errors.Is(err, services.ErrNoEligiblePartner) {
			utils.ConflictResponse(c, "PARTNER_AT_CAPACITY", i18n.T(lang, i18n.KeyNoEligiblePartner))
			return
		}
		if errors.Is(err, services.ErrAssignmentContended) {
			utils.ConflictResponse(c, "ASSIGNMENT_CONTENDED", i18n.T(lang, i18n.KeyAssignmentContended))
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "order")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentCreated),
		"assignment": assignment,
	})
}

// GET /assignments
func (h *OrderHandler) GetAssignments(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.AssignmentSearchParams{
		PaginationParams: params,
	}

	if partnerIDStr := c.Query("partner_id"); partnerIDStr != "" {
		if partnerID, err := uuid.Parse(partnerIDStr); err == nil {
			searchParams.PartnerID = &partnerID
		}
	}

	if status := c.Query("status"); status != "" {
		assignmentStatus := models.AssignmentStatus(status)
		searchParams.Status = &assignmentStatus
	}

	assignments, total, err := h.assignmentService.SearchAssignments(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(assignments, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /assignments/:id
func (h *OrderHandler) GetAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid assignment ID", nil)
		return
	}

	assignment, err := h.assignmentService.GetAssignment(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "assignment")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"assignment": assignment,
	})
}

// PUT /assignments/:id/complete
func (h *OrderHandler) CompleteAssignment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid assignment ID", nil)
		return
	}

	assignment, err := h.assignmentService.CompleteAssignment(id, actorFromContext(c))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "assignment")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentComplete),
		"assignment": assignment,
	})
}

// PUT /assignments/:id/cancel
func (h *OrderHandler) CancelAssignment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid assignment ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&req)

	assignment, err := h.assignmentService.CancelAssignment(id, actorFromContext(c), req.Reason)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "assignment")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentCancel),
		"assignment": assignment,
	})
}
