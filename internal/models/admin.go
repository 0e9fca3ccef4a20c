// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminSettings backs the assignment-strategy configuration panel: strategy
// choice, score weights, load cap, trial thresholds and commission rates are
// admin-configurable overrides of the environment defaults.
type AdminSettings struct {
	BaseModel
	Category    string    `json:"category" gorm:"size:50;not null;index"`
	Key         string    `json:"key" gorm:"size:100;not null;index"`
	Value       JSONB     `json:"value" gorm:"type:jsonb;not null"`
	DataType    string    `json:"data_type" gorm:"size:20;not null"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedBy   uuid.UUID `json:"updated_by" gorm:"type:uuid"`

	// Relationships
	UpdatedByUser User `json:"updated_by_user,omitempty" gorm:"foreignKey:UpdatedBy"`
}

// AuditLog records API mutations (HTTP level). Domain status transitions live
// in the StatusHistory ledger instead.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification is an in-app notification row consumed by partner and admin
// dashboards. Status-change notifications always carry the entity id and the
// previous/new status so downstream layers need no additional lookup.
type Notification struct {
	BaseModel
	Audience       string     `json:"audience" gorm:"type:varchar(20);not null;index"`
	PartnerID      *uuid.UUID `json:"partner_id" gorm:"type:uuid;index"`
	Type           string     `json:"type" gorm:"type:varchar(50);not null;index"`
	Title          string     `json:"title" gorm:"size:255;not null"`
	Message        string     `json:"message" gorm:"type:text;not null"`
	Priority       string     `json:"priority" gorm:"type:varchar(20);default:'medium';index"`
	Status         string     `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	EntityType     string     `json:"entity_type,omitempty" gorm:"size:50"`
	EntityID       *uuid.UUID `json:"entity_id" gorm:"type:uuid"`
	PreviousStatus string     `json:"previous_status,omitempty" gorm:"size:30"`
	NewStatus      string     `json:"new_status,omitempty" gorm:"size:30"`
	ReadAt         *time.Time `json:"read_at"`
}

// Notification audiences
const (
	NotificationAudiencePartner = "partner"
	NotificationAudienceAdmin   = "admin"
)
