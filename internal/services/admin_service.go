// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

type AdminService struct {
	db     *gorm.DB
	config *config.Config
}

type UpdateSettingRequest struct {
	Value       interface{} `json:"value" validate:"required"`
	Description string      `json:"description,omitempty"`
}

// DashboardStats is the admin overview: pipeline counts plus assignment and
// queue health.
type DashboardStats struct {
	PartnersByStatus  map[string]int64 `json:"partners_by_status"`
	LeadsByStatus     map[string]int64 `json:"leads_by_status"`
	ActiveAssignments int64            `json:"active_assignments"`
	QueuedOrders      int64            `json:"queued_orders"`
	TrialsInFlight    int64            `json:"trials_in_flight"`
	CompletedTrials   int64            `json:"completed_trials"`
}

func NewAdminService(db *gorm.DB, config *config.Config) *AdminService {
	return &AdminService{
		db:     db,
		config: config,
	}
}

func (s *AdminService) GetSettings(category string) ([]models.AdminSettings, error) {
	query := s.db.Model(&models.AdminSettings{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var settings []models.AdminSettings
	if err := query.Order("category ASC, key ASC").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

// UpdateSetting changes one settings row. The assignment engine and trial
// gate read these overrides on every evaluation, so changes take effect
// without a restart.
func (s *AdminService) UpdateSetting(category, key string, req *UpdateSettingRequest, adminID uuid.UUID) (*models.AdminSettings, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var setting models.AdminSettings
	if err := s.db.Where("category = ? AND key = ?", category, key).
		First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("setting not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	setting.Value = models.JSONB{"value": req.Value}
	setting.UpdatedBy = adminID
	if req.Description != "" {
		setting.Description = req.Description
	}

	if err := s.db.Save(&setting).Error; err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}

	return &setting, nil
}

func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		PartnersByStatus: make(map[string]int64),
		LeadsByStatus:    make(map[string]int64),
	}

	type statusCount struct {
		Status string
		Count  int64
	}

	var partnerCounts []statusCount
	if err := s.db.Model(&models.Partner{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&partnerCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count partners: %w", err)
	}
	for _, pc := range partnerCounts {
		stats.PartnersByStatus[pc.Status] = pc.Count
	}

	var leadCounts []statusCount
	if err := s.db.Model(&models.PartnerLead{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&leadCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	for _, lc := range leadCounts {
		stats.LeadsByStatus[lc.Status] = lc.Count
	}

	if err := s.db.Model(&models.ServicePartnerAssignment{}).
		Where("status IN ?", []models.AssignmentStatus{
			models.AssignmentStatusAssigned, models.AssignmentStatusInProgress,
		}).Count(&stats.ActiveAssignments).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	if err := s.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusQueued).
		Count(&stats.QueuedOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count queued orders: %w", err)
	}

	if err := s.db.Model(&models.TrialService{}).
		Where("status IN ?", []models.TrialStatus{
			models.TrialStatusAssigned, models.TrialStatusInProgress,
		}).Count(&stats.TrialsInFlight).Error; err != nil {
		return nil, fmt.Errorf("failed to count trials: %w", err)
	}

	if err := s.db.Model(&models.TrialService{}).
		Where("status = ?", models.TrialStatusCompleted).
		Count(&stats.CompletedTrials).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed trials: %w", err)
	}

	return stats, nil
}
