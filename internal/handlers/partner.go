// internal/handlers/partner.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftlink/partner-backend/internal/i18n"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/services"
	"github.com/craftlink/partner-backend/internal/utils"
)

type PartnerHandler struct {
	lifecycleService *services.LifecycleService
	storageService   *services.StorageService
}

func NewPartnerHandler(lifecycleService *services.LifecycleService, storageService *services.StorageService) *PartnerHandler {
	return &PartnerHandler{
		lifecycleService: lifecycleService,
		storageService:   storageService,
	}
}

// POST /partners/applications
func (h *PartnerHandler) SubmitApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	partner, err := h.lifecycleService.SubmitApplication(&req, actorFromContext(c))
	if err != nil {
		if invitationError(c, lang, err) {
			return
		}
		if strings.Contains(err.Error(), "already in review") {
			utils.ConflictResponse(c, "APPLICATION_EXISTS", err.Error())
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerApplicationCreated),
		"partner": partner,
	})
}

// GET /partners
func (h *PartnerHandler) GetPartners(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.PartnerSearchParams{
		PaginationParams: params,
		CategoryID:       c.Query("category_id"),
		Search:           c.Query("search"),
	}

	if status := c.Query("status"); status != "" {
		partnerStatus := models.PartnerStatus(status)
		searchParams.Status = &partnerStatus
	}

	partners, total, err := h.lifecycleService.SearchPartners(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(partners, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /partners/:id
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	partner, err := h.lifecycleService.GetPartner(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "partner")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"partner": partner,
	})
}

// PUT /partners/:id/document-check
func (h *PartnerHandler) PassDocumentCheck(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}
	reviewerID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	partner, err := h.lifecycleService.PassDocumentCheck(id, reviewerID, actorFromContext(c))
	if err != nil {
		h.transitionError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerScreeningPassed),
		"partner": partner,
	})
}

// PUT /partners/:id/screening
func (h *PartnerHandler) PassScreening(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	partner, err := h.lifecycleService.PassScreening(id, actorFromContext(c))
	if err != nil {
		h.transitionError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerScreeningPassed),
		"partner": partner,
	})
}

// PUT /partners/:id/service-selection
func (h *PartnerHandler) SelectServiceCategories(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	var req services.ServiceSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	partner, err := h.lifecycleService.SelectServiceCategories(id, &req, actorFromContext(c))
	if err != nil {
		h.transitionError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerTrialStarted),
		"partner": partner,
	})
}

// PUT /partners/:id/approve
func (h *PartnerHandler) ApprovePartner(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	c.ShouldBindJSON(&req)

	partner, err := h.lifecycleService.ApprovePartner(id, actorFromContext(c), req.Notes)
	if err != nil {
		h.transitionError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerApproved),
		"partner": partner,
	})
}

// PUT /partners/:id/reject
func (h *PartnerHandler) RejectPartner(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	var req services.RejectPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	partner, err := h.lifecycleService.RejectPartner(id, &req, actorFromContext(c))
	if err != nil {
		h.transitionError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPartnerRejected),
		"partner": partner,
	})
}

// POST /partners/documents
// Uploads an application document or portfolio file and returns its URL for
// inclusion in the application payload.
func (h *PartnerHandler) UploadDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	category := c.PostForm("category")
	if category == "" {
		category = "documents"
	}

	options := h.storageService.GetDefaultUploadOptions(category)
	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"file":    result,
	})
}

// transitionError maps lifecycle failures onto responses. Illegal state
// edges come back as conflicts with both statuses in the payload.
func (h *PartnerHandler) transitionError(c *gin.Context, lang string, err error) {
	if services.IsInvalidTransition(err) {
		utils.ConflictResponse(c, "INVALID_TRANSITION", i18n.T(lang, i18n.KeyPartnerInvalidTransition)+": "+err.Error())
		return
	}
	if strings.Contains(err.Error(), "not found") {
		utils.NotFoundResponse(c, "partner")
		return
	}
	utils.BadRequestResponse(c, err.Error(), nil)
}
