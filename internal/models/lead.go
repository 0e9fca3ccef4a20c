// internal/models/lead.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PartnerLead is a prospective partner before formal application. Leads are
// created by external lead capture; the lifecycle service mutates them when an
// invitation is sent or redeemed. A lead is terminal once converted or rejected.
type PartnerLead struct {
	BaseModel
	FullName string         `json:"full_name" gorm:"size:255;not null"`
	Email    string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Skills   string         `json:"skills" gorm:"type:text"`
	Tags     pq.StringArray `json:"tags" gorm:"type:text[]"`
	Status   LeadStatus     `json:"status" gorm:"type:varchar(20);default:'new';index"`

	// Invitation token is opaque, single-use and time-boxed. Expiry is an
	// explicit timestamp compared at redemption time.
	InvitationToken string     `json:"-" gorm:"size:64;uniqueIndex"`
	TokenExpiresAt  *time.Time `json:"token_expires_at"`
	TokenConsumedAt *time.Time `json:"token_consumed_at"`
	InvitedAt       *time.Time `json:"invited_at"`

	ConvertedToApplication bool       `json:"converted_to_application" gorm:"default:false"`
	ConvertedPartnerID     *uuid.UUID `json:"converted_partner_id" gorm:"type:uuid"`
}
