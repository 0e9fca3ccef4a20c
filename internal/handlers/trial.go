// internal/handlers/trial.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftlink/partner-backend/internal/i18n"
	"github.com/craftlink/partner-backend/internal/services"
	"github.com/craftlink/partner-backend/internal/utils"
)

type TrialHandler struct {
	trialService *services.TrialService
}

func NewTrialHandler(trialService *services.TrialService) *TrialHandler {
	return &TrialHandler{
		trialService: trialService,
	}
}

// GET /trials/:id
func (h *TrialHandler) GetTrial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trial ID", nil)
		return
	}

	trial, err := h.trialService.GetTrial(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "trial")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"trial": trial,
	})
}

// GET /partners/:id/trials
func (h *TrialHandler) ListPartnerTrials(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	trials, err := h.trialService.ListPartnerTrials(partnerID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"trials": trials,
	})
}

// GET /partners/:id/trials/evaluation
func (h *TrialHandler) GetEvaluation(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid partner ID", nil)
		return
	}

	eval, err := h.trialService.Evaluate(partnerID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"evaluation": eval,
	})
}

// PUT /trials/:id/outcome
func (h *TrialHandler) RecordOutcome(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trial ID", nil)
		return
	}

	var req services.RecordTrialOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	trial, err := h.trialService.RecordTrialOutcome(id, &req, actorFromContext(c))
	if err != nil {
		if errors.Is(err, services.ErrTrialOutcomeFinal) {
			utils.ConflictResponse(c, "TRIAL_FINAL", i18n.T(lang, i18n.KeyTrialImmutable))
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "trial")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyTrialOutcomeRecorded),
		"trial":   trial,
	})
}
