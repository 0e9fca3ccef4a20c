// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypePartner UserType = "partner"
	UserTypeAdmin   UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusApproved  LeadStatus = "approved"
	LeadStatusRejected  LeadStatus = "rejected"
)

type PartnerType string

const (
	PartnerTypeIndependent PartnerType = "independent"
	PartnerTypeAgency      PartnerType = "agency"
)

type SkillLevel string

const (
	SkillLevelBeginner     SkillLevel = "beginner"
	SkillLevelIntermediate SkillLevel = "intermediate"
	SkillLevelExpert       SkillLevel = "expert"
)

type TrialStatus string

const (
	TrialStatusAssigned   TrialStatus = "assigned"
	TrialStatusInProgress TrialStatus = "in_progress"
	TrialStatusCompleted  TrialStatus = "completed"
	TrialStatusFailed     TrialStatus = "failed"
)

func (s TrialStatus) IsTerminal() bool {
	return s == TrialStatusCompleted || s == TrialStatusFailed
}

type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusInProgress
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusQueued    OrderStatus = "queued"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type CommissionType string

const (
	CommissionTypeFlat       CommissionType = "flat"
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeTiered     CommissionType = "tiered"
)
