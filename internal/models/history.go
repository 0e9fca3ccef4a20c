// internal/models/history.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistory is the append-only audit ledger. Entries for a single entity
// are strictly ordered by Sequence, assigned under the same lock that
// serializes writes to the entity itself; wall-clock time is informational.
// Rows are never updated or deleted.
type StatusHistory struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EntityType     string    `json:"entity_type" gorm:"size:50;not null;uniqueIndex:idx_history_entity_seq;index:idx_history_entity"`
	EntityID       uuid.UUID `json:"entity_id" gorm:"type:uuid;not null;uniqueIndex:idx_history_entity_seq;index:idx_history_entity"`
	Sequence       int64     `json:"sequence" gorm:"not null;uniqueIndex:idx_history_entity_seq"`
	PreviousStatus string    `json:"previous_status" gorm:"size:30"`
	NewStatus      string    `json:"new_status" gorm:"size:30;not null"`
	Actor          string    `json:"actor" gorm:"size:255"`
	Notes          string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "status_history"
}

// Entity type labels used in the ledger.
const (
	HistoryEntityPartner    = "partner"
	HistoryEntityLead       = "partner_lead"
	HistoryEntityOrder      = "order"
	HistoryEntityAssignment = "assignment"
	HistoryEntityTrial      = "trial_service"
)
