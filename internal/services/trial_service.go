// internal/services/trial_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/database"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

type TrialService struct {
	db                  *gorm.DB
	config              *config.Config
	historyService      *HistoryService
	notificationService *NotificationService
	lifecycleService    *LifecycleService
}

type RecordTrialOutcomeRequest struct {
	Status         models.TrialStatus `json:"status" validate:"required,oneof=in_progress completed failed"`
	QualityRating  *float64           `json:"quality_rating,omitempty" validate:"omitempty,min=0,max=5"`
	ResponseRating *float64           `json:"response_rating,omitempty" validate:"omitempty,min=0,max=5"`
	OnTimeDelivery *bool              `json:"on_time_delivery,omitempty"`
	Feedback       string             `json:"feedback,omitempty"`
}

// TrialDecision is the outcome of evaluating a partner's trial record.
type TrialDecision string

const (
	TrialDecisionAdvance TrialDecision = "advance"
	TrialDecisionReject  TrialDecision = "reject"
	TrialDecisionHold    TrialDecision = "hold"
)

// TrialEvaluation is the full gate result, kept for the admin view and the
// rejection reason.
type TrialEvaluation struct {
	Decision       TrialDecision `json:"decision"`
	CompletedCount int           `json:"completed_count"`
	FailedCount    int           `json:"failed_count"`
	AverageQuality float64       `json:"average_quality"`
	OnTimeRate     float64       `json:"on_time_rate"`
	Reason         string        `json:"reason"`
}

func NewTrialService(db *gorm.DB, config *config.Config, historyService *HistoryService, notificationService *NotificationService, lifecycleService *LifecycleService) *TrialService {
	return &TrialService{
		db:                  db,
		config:              config,
		historyService:      historyService,
		notificationService: notificationService,
		lifecycleService:    lifecycleService,
	}
}

// EvaluateTrials applies the trial gate to a partner's terminal trials.
// Failure is checked first: once the failed count reaches the cap the partner
// is rejected regardless of the quality of the remaining trials. Advancement
// requires the minimum number of completed trials with average quality and
// on-time rate at or above their thresholds. Anything else holds.
func EvaluateTrials(trials []models.TrialService, cfg config.TrialConfig) TrialEvaluation {
	eval := TrialEvaluation{Decision: TrialDecisionHold}

	qualitySum := 0.0
	qualityCount := 0
	onTimeCount := 0

	for _, trial := range trials {
		switch trial.Status {
		case models.TrialStatusFailed:
			eval.FailedCount++
		case models.TrialStatusCompleted:
			eval.CompletedCount++
			if trial.QualityRating != nil {
				qualitySum += *trial.QualityRating
				qualityCount++
			}
			if trial.OnTimeDelivery != nil && *trial.OnTimeDelivery {
				onTimeCount++
			}
		}
	}

	if eval.CompletedCount > 0 {
		eval.OnTimeRate = float64(onTimeCount) / float64(eval.CompletedCount)
	}
	if qualityCount > 0 {
		eval.AverageQuality = qualitySum / float64(qualityCount)
	}

	if eval.FailedCount >= cfg.FailureCap {
		eval.Decision = TrialDecisionReject
		eval.Reason = fmt.Sprintf("failed %d trial tasks (cap %d)", eval.FailedCount, cfg.FailureCap)
		return eval
	}

	if eval.CompletedCount < cfg.MinTrials {
		eval.Reason = fmt.Sprintf("%d of %d required trials completed", eval.CompletedCount, cfg.MinTrials)
		return eval
	}

	if eval.AverageQuality < cfg.QualityThreshold {
		eval.Reason = fmt.Sprintf("average quality %.2f below threshold %.2f", eval.AverageQuality, cfg.QualityThreshold)
		return eval
	}

	if eval.OnTimeRate < cfg.OnTimeThreshold {
		eval.Reason = fmt.Sprintf("on-time rate %.2f below threshold %.2f", eval.OnTimeRate, cfg.OnTimeThreshold)
		return eval
	}

	eval.Decision = TrialDecisionAdvance
	eval.Reason = "trial thresholds met"
	return eval
}

// RecordTrialOutcome updates one trial task. A terminal trial is immutable
// except for appending feedback. Writing a terminal status triggers the gate
// synchronously, so the partner's status reflects the new trial record by the
// time this returns.
func (s *TrialService) RecordTrialOutcome(trialID uuid.UUID, req *RecordTrialOutcomeRequest, actor string) (*models.TrialService, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var trial models.TrialService
	becameTerminal := false

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&trial, trialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("trial not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if trial.Status.IsTerminal() {
			// Terminal trials accept appended feedback only
			if req.Status != trial.Status || req.QualityRating != nil ||
				req.ResponseRating != nil || req.OnTimeDelivery != nil {
				return ErrTrialOutcomeFinal
			}
			if req.Feedback != "" {
				trial.Feedback = appendFeedback(trial.Feedback, req.Feedback)
				if err := tx.Save(&trial).Error; err != nil {
					return fmt.Errorf("failed to append feedback: %w", err)
				}
			}
			return nil
		}

		previousStatus := trial.Status
		trial.Status = req.Status
		if req.QualityRating != nil {
			trial.QualityRating = req.QualityRating
		}
		if req.ResponseRating != nil {
			trial.ResponseRating = req.ResponseRating
		}
		if req.OnTimeDelivery != nil {
			trial.OnTimeDelivery = req.OnTimeDelivery
		}
		if req.Feedback != "" {
			trial.Feedback = appendFeedback(trial.Feedback, req.Feedback)
		}
		if trial.Status.IsTerminal() {
			now := time.Now()
			trial.CompletedAt = &now
			becameTerminal = true
		}

		if err := tx.Save(&trial).Error; err != nil {
			return fmt.Errorf("failed to update trial: %w", err)
		}

		if previousStatus != trial.Status {
			if _, err := s.historyService.Append(tx, models.HistoryEntityTrial, trial.ID,
				string(previousStatus), string(trial.Status), actor, ""); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameTerminal {
		if err := s.runGate(trial.PartnerID); err != nil {
			return nil, err
		}

		go func() {
			if s.notificationService != nil {
				var partner models.Partner
				if s.db.First(&partner, trial.PartnerID).Error == nil {
					s.notificationService.SendTrialOutcomeNotification(&partner, &trial)
				}
			}
		}()
	}

	return &trial, nil
}

// runGate re-evaluates the partner after a terminal trial write and applies
// the decision through the lifecycle service. A hold leaves the partner in
// trial_period.
func (s *TrialService) runGate(partnerID uuid.UUID) error {
	var partner models.Partner
	if err := s.db.First(&partner, partnerID).Error; err != nil {
		return fmt.Errorf("partner not found: %w", err)
	}

	// The gate only acts while the partner is still in trial
	if partner.Status != models.PartnerStatusTrialPeriod {
		return nil
	}

	eval, err := s.Evaluate(partnerID)
	if err != nil {
		return err
	}

	switch eval.Decision {
	case TrialDecisionAdvance:
		_, err = s.lifecycleService.ApprovePartner(partnerID, "system", eval.Reason)
	case TrialDecisionReject:
		_, err = s.lifecycleService.RejectPartner(partnerID, &RejectPartnerRequest{Reason: eval.Reason}, "system")
	}
	return err
}

// Evaluate loads the partner's trials and applies the gate without mutating
// anything.
func (s *TrialService) Evaluate(partnerID uuid.UUID) (TrialEvaluation, error) {
	var trials []models.TrialService
	if err := s.db.Where("partner_id = ?", partnerID).Find(&trials).Error; err != nil {
		return TrialEvaluation{}, fmt.Errorf("failed to load trials: %w", err)
	}
	return EvaluateTrials(trials, s.gateConfig()), nil
}

// gateConfig resolves the gate thresholds, honoring the admin settings
// overrides over the env defaults.
func (s *TrialService) gateConfig() config.TrialConfig {
	cfg := s.config.Trial
	if value, ok := lookupSetting(s.db, "trial", "quality_threshold"); ok {
		if f, ok := settingFloat(value); ok && f >= 0 {
			cfg.QualityThreshold = f
		}
	}
	if value, ok := lookupSetting(s.db, "trial", "on_time_threshold"); ok {
		if f, ok := settingFloat(value); ok && f >= 0 && f <= 1 {
			cfg.OnTimeThreshold = f
		}
	}
	if value, ok := lookupSetting(s.db, "trial", "failure_cap"); ok {
		if n, ok := settingInt(value); ok && n >= 1 {
			cfg.FailureCap = n
		}
	}
	return cfg
}

func (s *TrialService) GetTrial(id uuid.UUID) (*models.TrialService, error) {
	var trial models.TrialService
	if err := s.db.Preload("Service").First(&trial, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("trial not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &trial, nil
}

func (s *TrialService) ListPartnerTrials(partnerID uuid.UUID) ([]models.TrialService, error) {
	var trials []models.TrialService
	if err := s.db.Preload("Service").
		Where("partner_id = ?", partnerID).
		Order("assigned_at ASC").
		Find(&trials).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch trials: %w", err)
	}
	return trials, nil
}

func appendFeedback(existing, addition string) string {
	addition = strings.TrimSpace(addition)
	if existing == "" {
		return addition
	}
	return existing + "\n" + addition
}
