// internal/models/trial.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// TrialService is one trial assignment created when a partner enters the trial
// period. Once completed or failed the record is immutable except for feedback
// appended later.
type TrialService struct {
	BaseModel
	PartnerID      uuid.UUID   `json:"partner_id" gorm:"type:uuid;not null;index"`
	ServiceID      uuid.UUID   `json:"service_id" gorm:"type:uuid;not null;index"`
	Status         TrialStatus `json:"status" gorm:"type:varchar(20);default:'assigned';index"`
	QualityRating  *float64    `json:"quality_rating" gorm:"type:decimal(3,2)"`
	ResponseRating *float64    `json:"response_rating" gorm:"type:decimal(3,2)"`
	OnTimeDelivery *bool       `json:"on_time_delivery"`
	Feedback       string      `json:"feedback,omitempty" gorm:"type:text"`
	AssignedAt     time.Time   `json:"assigned_at"`
	CompletedAt    *time.Time  `json:"completed_at"`
	ExpiresAt      *time.Time  `json:"expires_at"`

	// Relationships
	Partner Partner `json:"-" gorm:"foreignKey:PartnerID"`
	Service Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
}
