// internal/models/service.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is a catalog entry partners can be matched against. The catalog
// itself is maintained by external admin screens; the core only reads it.
type Service struct {
	BaseModel
	Title          string         `json:"title" gorm:"size:255;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	CategoryID     string         `json:"category_id" gorm:"size:100;not null;index"`
	SubcategoryID  string         `json:"subcategory_id,omitempty" gorm:"size:100"`
	Price          float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	CommissionType CommissionType `json:"commission_type" gorm:"type:varchar(20);default:'percentage'"`
	TrialEligible  bool           `json:"trial_eligible" gorm:"default:false"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
}

// Order is an incoming work item. Orders arrive from external order capture
// and trigger the assignment engine; when no eligible partner exists they stay
// queued for manual admin assignment.
type Order struct {
	BaseModel
	ServiceID   uuid.UUID   `json:"service_id" gorm:"type:uuid;not null;index"`
	CustomerRef string      `json:"customer_ref" gorm:"size:255;not null"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	IsTrial     bool        `json:"is_trial" gorm:"default:false"`
	QueuedAt    *time.Time  `json:"queued_at"`
	QueueReason string      `json:"queue_reason,omitempty" gorm:"type:text"`

	// Relationships
	Service     Service                    `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Assignments []ServicePartnerAssignment `json:"assignments,omitempty" gorm:"foreignKey:OrderID"`
}
