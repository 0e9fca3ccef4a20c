// internal/services/lifecycle_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/database"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

// LifecycleService owns every partner status transition. All writes to
// Partner.Status funnel through transition(), which serializes concurrent
// requests on the partner row and appends exactly one ledger entry per
// effective change.
type LifecycleService struct {
	db                  *gorm.DB
	config              *config.Config
	historyService      *HistoryService
	notificationService *NotificationService
	leadService         *LeadService
}

type SubmitApplicationRequest struct {
	LeadID          *uuid.UUID             `json:"lead_id,omitempty"`
	InvitationToken string                 `json:"invitation_token,omitempty"`
	Invitation      *InvitationParams      `json:"invitation,omitempty"`
	BusinessName    string                 `json:"business_name" validate:"required,min=2,max=255"`
	ContactName     string                 `json:"contact_name" validate:"required,min=2,max=255"`
	Email           string                 `json:"email" validate:"required,email"`
	Phone           string                 `json:"phone,omitempty"`
	PartnerType     models.PartnerType     `json:"partner_type,omitempty"`
	EmployeeCount   int                    `json:"employee_count,omitempty"`
	BusinessDetails map[string]interface{} `json:"business_details,omitempty"`
	Qualifications  string                 `json:"qualifications,omitempty"`
	Experience      string                 `json:"experience,omitempty"`
	DocumentLinks   []string               `json:"document_links,omitempty"`
	PortfolioLinks  []string               `json:"portfolio_links,omitempty"`
}

type ServiceSelectionRequest struct {
	Categories []CategorySelection `json:"categories" validate:"required,min=1,dive"`
}

type CategorySelection struct {
	CategoryID      string            `json:"category_id" validate:"required,category_id"`
	SubcategoryID   string            `json:"subcategory_id,omitempty"`
	SkillLevel      models.SkillLevel `json:"skill_level,omitempty"`
	YearsExperience int               `json:"years_experience,omitempty" validate:"omitempty,min=0,max=60"`
}

type RejectPartnerRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PartnerSearchParams struct {
	utils.PaginationParams
	Status     *models.PartnerStatus `json:"status,omitempty"`
	CategoryID string                `json:"category_id,omitempty"`
	Search     string                `json:"search,omitempty"`
}

func NewLifecycleService(db *gorm.DB, config *config.Config, historyService *HistoryService, notificationService *NotificationService, leadService *LeadService) *LifecycleService {
	return &LifecycleService{
		db:                  db,
		config:              config,
		historyService:      historyService,
		notificationService: notificationService,
		leadService:         leadService,
	}
}

// transition moves a partner to the next status under a row lock. Requesting
// the status the partner already has is a no-op success and appends nothing;
// an illegal edge returns InvalidStateTransitionError. mutate runs inside the
// transaction after the status is updated but before history is appended.
func (s *LifecycleService) transition(partnerID uuid.UUID, next models.PartnerStatus, actor, notes string, mutate func(tx *gorm.DB, partner *models.Partner) error) (*models.Partner, error) {
	var partner models.Partner
	changed := false
	var previous models.PartnerStatus

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&partner, partnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("partner not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if partner.Status == next {
			// Idempotent repeat of an already applied transition
			return nil
		}

		if !partner.Status.CanTransitionTo(next) {
			return &InvalidStateTransitionError{Current: partner.Status, Requested: next}
		}

		previous = partner.Status
		partner.Status = next
		changed = true

		if mutate != nil {
			if err := mutate(tx, &partner); err != nil {
				return err
			}
		}

		if err := tx.Save(&partner).Error; err != nil {
			return fmt.Errorf("failed to update partner: %w", err)
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityPartner, partner.ID,
			string(previous), string(next), actor, notes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		go func() {
			if s.notificationService != nil {
				s.notificationService.SendPartnerStatusChangeNotification(&partner, previous, next, notes)
			}
		}()
	}

	return &partner, nil
}

// SubmitApplication creates the partner record and its application, moving
// the pipeline from lead to pending. When the submission comes from an
// invitation link, the token is redeemed first and the lead is marked
// converted in the same transaction. A resubmission for an existing pending
// partner overwrites the stored application instead of duplicating it.
func (s *LifecycleService) SubmitApplication(req *SubmitApplicationRequest, actor string) (*models.Partner, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var sourceLead *models.PartnerLead
	if req.InvitationToken != "" {
		lead, err := s.leadService.RedeemInvitation(req.InvitationToken, req.Invitation)
		if err != nil {
			return nil, err
		}
		sourceLead = lead
	}

	partnerType := req.PartnerType
	if partnerType == "" {
		partnerType = models.PartnerTypeIndependent
	}
	employeeCount := req.EmployeeCount
	if employeeCount < 1 {
		employeeCount = 1
	}

	var partner models.Partner

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Resubmission: reuse the partner row keyed by email
		var existing models.Partner
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error
		switch {
		case err == nil:
			if existing.Status != models.PartnerStatusLead && existing.Status != models.PartnerStatusPending {
				return errors.New("an application for this email is already in review")
			}
			partner = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			partner = models.Partner{
				Status: models.PartnerStatusLead,
			}
		default:
			return fmt.Errorf("database error: %w", err)
		}

		previous := partner.Status
		partner.BusinessName = req.BusinessName
		partner.ContactName = req.ContactName
		partner.Email = req.Email
		partner.Phone = req.Phone
		partner.PartnerType = partnerType
		partner.EmployeeCount = employeeCount
		partner.Status = models.PartnerStatusPending

		if err := tx.Save(&partner).Error; err != nil {
			return fmt.Errorf("failed to save partner: %w", err)
		}

		// Upsert the 1:1 application
		var application models.PartnerApplication
		err = tx.Where("partner_id = ?", partner.ID).First(&application).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		application.PartnerID = partner.ID
		application.BusinessDetails = models.JSONB(req.BusinessDetails)
		application.Qualifications = req.Qualifications
		application.Experience = req.Experience
		application.DocumentLinks = req.DocumentLinks
		application.PortfolioLinks = req.PortfolioLinks
		if sourceLead != nil {
			application.SourceLeadID = &sourceLead.ID
		} else if req.LeadID != nil {
			application.SourceLeadID = req.LeadID
		}

		if err := tx.Save(&application).Error; err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}
		partner.Application = &application

		if previous != partner.Status {
			if _, err := s.historyService.Append(tx, models.HistoryEntityPartner, partner.ID,
				string(previous), string(partner.Status), actor, "application submitted"); err != nil {
				return err
			}
		}

		if sourceLead != nil {
			if err := s.leadService.markConverted(tx, sourceLead.ID, partner.ID, actor); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if s.notificationService != nil {
			s.notificationService.SendPartnerStatusChangeNotification(&partner,
				models.PartnerStatusLead, models.PartnerStatusPending, "application submitted")
		}
	}()

	return &partner, nil
}

// PassDocumentCheck advances pending to screening once the submitted
// documents have been reviewed.
func (s *LifecycleService) PassDocumentCheck(partnerID uuid.UUID, reviewerID uuid.UUID, actor string) (*models.Partner, error) {
	return s.transition(partnerID, models.PartnerStatusScreening, actor, "document check passed",
		func(tx *gorm.DB, partner *models.Partner) error {
			now := time.Now()
			return tx.Model(&models.PartnerApplication{}).
				Where("partner_id = ?", partner.ID).
				Updates(map[string]interface{}{"reviewed_at": now, "reviewed_by": reviewerID}).Error
		})
}

// PassScreening advances screening to service_selection.
func (s *LifecycleService) PassScreening(partnerID uuid.UUID, actor string) (*models.Partner, error) {
	return s.transition(partnerID, models.PartnerStatusServiceSelection, actor, "screening passed", nil)
}

// SelectServiceCategories records the partner's chosen categories and, once
// at least one is stored, advances service_selection to trial_period. Trial
// tasks are seeded from trial-eligible services in the selected categories.
func (s *LifecycleService) SelectServiceCategories(partnerID uuid.UUID, req *ServiceSelectionRequest, actor string) (*models.Partner, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return s.transition(partnerID, models.PartnerStatusTrialPeriod, actor, "service categories selected",
		func(tx *gorm.DB, partner *models.Partner) error {
			// Replace the expertise set with the new selection
			if err := tx.Where("partner_id = ?", partner.ID).
				Delete(&models.PartnerExpertise{}).Error; err != nil {
				return fmt.Errorf("failed to clear expertise: %w", err)
			}

			for _, sel := range req.Categories {
				skillLevel := sel.SkillLevel
				if skillLevel == "" {
					skillLevel = models.SkillLevelIntermediate
				}
				expertise := &models.PartnerExpertise{
					PartnerID:       partner.ID,
					CategoryID:      sel.CategoryID,
					SubcategoryID:   sel.SubcategoryID,
					SkillLevel:      skillLevel,
					YearsExperience: sel.YearsExperience,
				}
				if err := tx.Create(expertise).Error; err != nil {
					return fmt.Errorf("failed to save expertise: %w", err)
				}
			}

			// Trial window opens now
			now := time.Now()
			expires := now.Add(time.Duration(s.config.Trial.PeriodDays) * 24 * time.Hour)
			partner.TrialStartedAt = &now
			partner.TrialExpiresAt = &expires

			return s.seedTrialTasks(tx, partner, req.Categories)
		})
}

// seedTrialTasks creates the partner's trial assignments from trial-eligible
// services in the selected categories. At least one trial must exist for the
// trial period to be meaningful; when the catalog has no eligible service the
// transition is refused.
func (s *LifecycleService) seedTrialTasks(tx *gorm.DB, partner *models.Partner, categories []CategorySelection) error {
	categoryIDs := make([]string, 0, len(categories))
	for _, sel := range categories {
		categoryIDs = append(categoryIDs, sel.CategoryID)
	}

	var services []models.Service
	if err := tx.Where("category_id IN ? AND trial_eligible = ? AND is_active = ?",
		categoryIDs, true, true).
		Order("created_at ASC").
		Limit(s.config.Trial.SeedTrialCount).
		Find(&services).Error; err != nil {
		return fmt.Errorf("failed to load trial-eligible services: %w", err)
	}

	if len(services) == 0 {
		return errors.New("no trial-eligible services exist for the selected categories")
	}

	now := time.Now()
	for _, svc := range services {
		trial := &models.TrialService{
			PartnerID:  partner.ID,
			ServiceID:  svc.ID,
			Status:     models.TrialStatusAssigned,
			AssignedAt: now,
			ExpiresAt:  partner.TrialExpiresAt,
		}
		if err := tx.Create(trial).Error; err != nil {
			return fmt.Errorf("failed to create trial task: %w", err)
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityTrial, trial.ID,
			"", string(models.TrialStatusAssigned), "system", "trial task seeded"); err != nil {
			return err
		}
	}

	return nil
}

// ApprovePartner advances trial_period to approved. Called by the trial gate
// when the evaluation thresholds are met, or by an admin override.
func (s *LifecycleService) ApprovePartner(partnerID uuid.UUID, actor, notes string) (*models.Partner, error) {
	return s.transition(partnerID, models.PartnerStatusApproved, actor, notes,
		func(tx *gorm.DB, partner *models.Partner) error {
			now := time.Now()
			partner.ApprovedAt = &now
			return nil
		})
}

// RejectPartner moves any non-terminal partner to rejected. The reason is
// mandatory and recorded on both the partner and the ledger entry.
func (s *LifecycleService) RejectPartner(partnerID uuid.UUID, req *RejectPartnerRequest, actor string) (*models.Partner, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return s.transition(partnerID, models.PartnerStatusRejected, actor, req.Reason,
		func(tx *gorm.DB, partner *models.Partner) error {
			now := time.Now()
			partner.RejectedAt = &now
			partner.RejectionReason = req.Reason
			return tx.Model(&models.PartnerApplication{}).
				Where("partner_id = ?", partner.ID).
				Update("rejection_reason", req.Reason).Error
		})
}

// Query methods

func (s *LifecycleService) GetPartner(id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	if err := s.db.Preload("Application").Preload("Expertise").Preload("Trials").
		First(&partner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("partner not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &partner, nil
}

func (s *LifecycleService) SearchPartners(params PartnerSearchParams) ([]models.Partner, int64, error) {
	query := s.db.Model(&models.Partner{}).Preload("Expertise")

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.CategoryID != "" {
		query = query.Where("id IN (SELECT partner_id FROM partner_expertises WHERE category_id = ?)",
			params.CategoryID)
	}

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("business_name ILIKE ? OR contact_name ILIKE ? OR email ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count partners: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "business_name", "status", "rating"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var partners []models.Partner
	if err := query.Find(&partners).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch partners: %w", err)
	}

	return partners, total, nil
}
