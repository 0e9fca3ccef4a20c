// internal/models/assignment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ServicePartnerAssignment binds an order to exactly one partner. At most one
// assignment with an active status may exist per (partner, order) pair, and an
// order has at most one active non-cancelled assignment; both invariants are
// enforced by the assignment engine under its transactional claim.
type ServicePartnerAssignment struct {
	BaseModel
	PartnerID        uuid.UUID        `json:"partner_id" gorm:"type:uuid;not null;index"`
	ServiceID        uuid.UUID        `json:"service_id" gorm:"type:uuid;not null;index"`
	OrderID          *uuid.UUID       `json:"order_id" gorm:"type:uuid;index"`
	Status           AssignmentStatus `json:"status" gorm:"type:varchar(20);default:'assigned';index"`
	Strategy         string           `json:"strategy" gorm:"size:30"`
	CommissionType   CommissionType   `json:"commission_type" gorm:"type:varchar(20);not null"`
	CommissionRate   float64          `json:"commission_rate" gorm:"type:decimal(6,4);not null"`
	CommissionAmount float64          `json:"commission_amount" gorm:"type:decimal(10,2);not null"`
	AssignedAt       time.Time        `json:"assigned_at"`
	CompletedAt      *time.Time       `json:"completed_at"`
	CancelledAt      *time.Time       `json:"cancelled_at"`
	Notes            string           `json:"notes,omitempty" gorm:"type:text"`

	// Relationships
	Partner Partner `json:"partner,omitempty" gorm:"foreignKey:PartnerID"`
	Service Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Order   *Order  `json:"-" gorm:"foreignKey:OrderID"`
}

// AssignmentRotation persists the round-robin pointer per service category so
// rotation order survives across invocations and restarts.
type AssignmentRotation struct {
	BaseModel
	CategoryID    string     `json:"category_id" gorm:"size:100;not null;uniqueIndex"`
	LastPartnerID *uuid.UUID `json:"last_partner_id" gorm:"type:uuid"`
}
