// internal/handlers/lead.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftlink/partner-backend/internal/i18n"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/services"
	"github.com/craftlink/partner-backend/internal/utils"
)

type LeadHandler struct {
	leadService *services.LeadService
}

func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// POST /leads
func (h *LeadHandler) CreateLead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	lead, err := h.leadService.CreateLead(&req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			utils.ConflictResponse(c, "LEAD_EXISTS", err.Error())
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLeadCreated),
		"lead":    lead,
	})
}

// GET /leads
func (h *LeadHandler) GetLeads(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.LeadSearchParams{
		PaginationParams: params,
		Search:           c.Query("search"),
	}

	if status := c.Query("status"); status != "" {
		leadStatus := models.LeadStatus(status)
		searchParams.Status = &leadStatus
	}

	leads, total, err := h.leadService.SearchLeads(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(leads, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /leads/:id
func (h *LeadHandler) GetLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	lead, err := h.leadService.GetLead(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "lead")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"lead": lead,
	})
}

// POST /leads/:id/invite
func (h *LeadHandler) SendInvitation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	actor := actorFromContext(c)

	lead, err := h.leadService.SendInvitation(id, actor)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "lead")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLeadInvited),
		"lead":    lead,
	})
}

// POST /leads/:id/reject
func (h *LeadHandler) RejectLead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid lead ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&req)

	actor := actorFromContext(c)

	lead, err := h.leadService.RejectLead(id, actor, req.Reason)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "lead")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerRejected),
		"lead":    lead,
	})
}

// GET /leads/invitations/validate
// Validates an invitation link without consuming the token, so the frontend
// can show the application form or an error page.
func (h *LeadHandler) ValidateInvitation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	params := &services.InvitationParams{
		Invited: c.Query("invited") == "true",
		Name:    c.Query("name"),
		Email:   c.Query("email"),
		Skills:  c.Query("skills"),
		LeadID:  c.Query("leadId"),
	}

	if err := services.ValidateInvitationParams(params); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyLeadInviteInvalid), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"valid":  true,
		"params": params,
	})
}

// invitationError maps token redemption failures onto responses.
func invitationError(c *gin.Context, lang string, err error) bool {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		utils.ErrorResponse(c, http.StatusGone, "INVITE_EXPIRED", i18n.T(lang, i18n.KeyLeadInviteExpired), nil)
	case errors.Is(err, services.ErrTokenAlreadyConsumed):
		utils.ConflictResponse(c, "INVITE_CONSUMED", i18n.T(lang, i18n.KeyLeadInviteConsumed))
	case errors.Is(err, services.ErrInvalidInvitation):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyLeadInviteInvalid), nil)
	default:
		return false
	}
	return true
}

func actorFromContext(c *gin.Context) string {
	if username, exists := c.Get("username"); exists {
		if name, ok := username.(string); ok && name != "" {
			return name
		}
	}
	return "system"
}
