// internal/services/history_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

// HistoryService owns the append-only status ledger. Rows are never updated
// or deleted; corrections are recorded as new entries.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Append writes one ledger entry inside the caller's transaction. The caller
// must already hold the lock that serializes writes for this entity (the
// partner row lock for lifecycle transitions, the claim transaction for
// assignments), which makes the max(sequence)+1 read safe.
func (s *HistoryService) Append(tx *gorm.DB, entityType string, entityID uuid.UUID, previousStatus, newStatus, actor, notes string) (*models.StatusHistory, error) {
	var lastSeq int64
	if err := tx.Model(&models.StatusHistory{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&lastSeq).Error; err != nil {
		return nil, fmt.Errorf("failed to read history sequence: %w", err)
	}

	entry := &models.StatusHistory{
		EntityType:     entityType,
		EntityID:       entityID,
		Sequence:       lastSeq + 1,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		Actor:          actor,
		Notes:          notes,
	}

	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append status history: %w", err)
	}

	return entry, nil
}

// Feed returns the ledger for one entity ordered by sequence. afterSequence
// supports incremental reads; pass 0 for the full feed.
func (s *HistoryService) Feed(entityType string, entityID uuid.UUID, afterSequence int64, limit int) ([]models.StatusHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.StatusHistory
	if err := s.db.
		Where("entity_type = ? AND entity_id = ? AND sequence > ?", entityType, entityID, afterSequence).
		Order("sequence ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %w", err)
	}

	return entries, nil
}

// Recent returns the latest entries across all entities, newest first. Used
// by the admin activity view.
func (s *HistoryService) Recent(entityType string, params utils.PaginationParams) ([]models.StatusHistory, int64, error) {
	query := s.db.Model(&models.StatusHistory{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count status history: %w", err)
	}

	query = query.Order("created_at DESC")
	query = utils.ApplyPagination(query, params)

	var entries []models.StatusHistory
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch status history: %w", err)
	}

	return entries, total, nil
}
