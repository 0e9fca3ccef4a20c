// internal/services/lead_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/database"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

type LeadService struct {
	db                  *gorm.DB
	config              *config.Config
	historyService      *HistoryService
	notificationService *NotificationService
}

type CreateLeadRequest struct {
	FullName string   `json:"full_name" validate:"required,min=2,max=255"`
	Email    string   `json:"email" validate:"required,email"`
	Skills   string   `json:"skills,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type LeadSearchParams struct {
	utils.PaginationParams
	Status *models.LeadStatus `json:"status,omitempty"`
	Search string             `json:"search,omitempty"`
}

// InvitationParams are the query parameters carried by an invitation link.
// All four identity fields are mandatory on redemption.
type InvitationParams struct {
	Invited bool   `json:"invited"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Skills  string `json:"skills"`
	LeadID  string `json:"lead_id"`
}

func NewLeadService(db *gorm.DB, config *config.Config, historyService *HistoryService, notificationService *NotificationService) *LeadService {
	return &LeadService{
		db:                  db,
		config:              config,
		historyService:      historyService,
		notificationService: notificationService,
	}
}

func (s *LeadService) CreateLead(req *CreateLeadRequest) (*models.PartnerLead, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Check for existing lead with the same email
	var existing models.PartnerLead
	if err := s.db.Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error; err == nil {
		return nil, errors.New("a lead with this email already exists")
	}

	lead := &models.PartnerLead{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Skills:   req.Skills,
		Tags:     pq.StringArray(req.Tags),
		Status:   models.LeadStatusNew,
	}

	if err := s.db.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	return lead, nil
}

func (s *LeadService) GetLead(id uuid.UUID) (*models.PartnerLead, error) {
	var lead models.PartnerLead
	if err := s.db.First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &lead, nil
}

func (s *LeadService) SearchLeads(params LeadSearchParams) ([]models.PartnerLead, int64, error) {
	query := s.db.Model(&models.PartnerLead{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(skills) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "full_name", "status", "invited_at"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var leads []models.PartnerLead
	if err := query.Find(&leads).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch leads: %w", err)
	}

	return leads, total, nil
}

// SendInvitation issues a fresh single-use token and mails the invitation
// link. Re-inviting a lead rotates the token and pushes the expiry forward;
// the old link stops working because the token no longer matches.
func (s *LeadService) SendInvitation(leadID uuid.UUID, actor string) (*models.PartnerLead, error) {
	var lead models.PartnerLead

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&lead, leadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("lead not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if lead.ConvertedToApplication {
			return errors.New("lead has already converted to an application")
		}
		if lead.Status == models.LeadStatusRejected {
			return errors.New("lead has been rejected")
		}

		token, err := utils.GenerateInvitationToken()
		if err != nil {
			return fmt.Errorf("failed to generate invitation token: %w", err)
		}

		now := time.Now()
		expiresAt := now.Add(time.Duration(s.config.Lifecycle.InvitationTTLHours) * time.Hour)
		previousStatus := lead.Status

		lead.InvitationToken = token
		lead.TokenExpiresAt = &expiresAt
		lead.TokenConsumedAt = nil
		lead.InvitedAt = &now
		lead.Status = models.LeadStatusContacted

		if err := tx.Save(&lead).Error; err != nil {
			return fmt.Errorf("failed to update lead: %w", err)
		}

		if previousStatus != lead.Status {
			if _, err := s.historyService.Append(tx, models.HistoryEntityLead, lead.ID,
				string(previousStatus), string(lead.Status), actor, "invitation sent"); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Send invitation email
	go func() {
		if s.notificationService != nil {
			s.notificationService.SendInvitationEmail(&lead)
		}
	}()

	return &lead, nil
}

// ValidateInvitationParams checks the redemption link parameters without
// touching the database. Every identity field must be present and the email
// must be well formed.
func ValidateInvitationParams(params *InvitationParams) error {
	if params == nil || !params.Invited {
		return ErrInvalidInvitation
	}
	if strings.TrimSpace(params.Name) == "" ||
		strings.TrimSpace(params.Email) == "" ||
		strings.TrimSpace(params.Skills) == "" ||
		strings.TrimSpace(params.LeadID) == "" {
		return ErrInvalidInvitation
	}
	if !utils.IsValidEmail(params.Email) {
		return ErrInvalidInvitation
	}
	if _, err := uuid.Parse(params.LeadID); err != nil {
		return ErrInvalidInvitation
	}
	return nil
}

// checkInvitationRedeemable verifies the link parameters against the stored
// lead: identity fields must match, the token must not have been consumed,
// and expiry is compared against the stored timestamp at the moment of use.
func checkInvitationRedeemable(lead *models.PartnerLead, params *InvitationParams, now time.Time) error {
	if lead.ID.String() != params.LeadID ||
		!strings.EqualFold(lead.Email, strings.TrimSpace(params.Email)) {
		return ErrInvalidInvitation
	}
	if lead.TokenConsumedAt != nil {
		return ErrTokenAlreadyConsumed
	}
	if lead.TokenExpiresAt == nil || now.After(*lead.TokenExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}

// RedeemInvitation validates the token and link parameters and marks the
// token consumed. The lead row is locked for the duration of the transaction
// so two concurrent redemptions of the same token serialize and the second
// one sees the consumption.
func (s *LeadService) RedeemInvitation(token string, params *InvitationParams) (*models.PartnerLead, error) {
	if err := ValidateInvitationParams(params); err != nil {
		return nil, err
	}

	var lead models.PartnerLead

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("invitation_token = ?", token).First(&lead).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInvitation
			}
			return fmt.Errorf("database error: %w", err)
		}

		now := time.Now()
		if err := checkInvitationRedeemable(&lead, params, now); err != nil {
			return err
		}

		lead.TokenConsumedAt = &now

		if err := tx.Save(&lead).Error; err != nil {
			return fmt.Errorf("failed to consume invitation token: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &lead, nil
}

// RejectLead closes out a lead that will not be invited.
func (s *LeadService) RejectLead(leadID uuid.UUID, actor, reason string) (*models.PartnerLead, error) {
	var lead models.PartnerLead

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&lead, leadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("lead not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if lead.ConvertedToApplication {
			return errors.New("lead has already converted to an application")
		}
		if lead.Status == models.LeadStatusRejected {
			return nil
		}

		previousStatus := lead.Status
		lead.Status = models.LeadStatusRejected

		if err := tx.Save(&lead).Error; err != nil {
			return fmt.Errorf("failed to update lead: %w", err)
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityLead, lead.ID,
			string(previousStatus), string(lead.Status), actor, reason); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &lead, nil
}

// markConverted flags the lead once an application has been created from it.
// Runs inside the application submission transaction.
func (s *LeadService) markConverted(tx *gorm.DB, leadID, partnerID uuid.UUID, actor string) error {
	var lead models.PartnerLead
	if err := tx.First(&lead, leadID).Error; err != nil {
		return fmt.Errorf("lead not found: %w", err)
	}

	previousStatus := lead.Status
	lead.Status = models.LeadStatusApproved
	lead.ConvertedToApplication = true
	lead.ConvertedPartnerID = &partnerID

	if err := tx.Save(&lead).Error; err != nil {
		return fmt.Errorf("failed to mark lead converted: %w", err)
	}

	if previousStatus != lead.Status {
		if _, err := s.historyService.Append(tx, models.HistoryEntityLead, lead.ID,
			string(previousStatus), string(lead.Status), actor, "converted to partner application"); err != nil {
			return err
		}
	}

	return nil
}
