// internal/models/partner.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Partner is the durable identity once a lead is accepted into the pipeline.
// Status and the active-assignment counter are owned exclusively by the
// lifecycle and assignment services; all other fields are edited by external
// dashboards.
type Partner struct {
	BaseModel
	BusinessName  string        `json:"business_name" gorm:"size:255;not null"`
	ContactName   string        `json:"contact_name" gorm:"size:255;not null"`
	Email         string        `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone         string        `json:"phone" gorm:"size:50"`
	PartnerType   PartnerType   `json:"partner_type" gorm:"type:varchar(20);default:'independent'"`
	Status        PartnerStatus `json:"status" gorm:"type:varchar(30);default:'lead';index"`
	Rating        float64       `json:"rating" gorm:"type:decimal(3,2);default:0"`
	EmployeeCount int           `json:"employee_count" gorm:"default:1"`

	// ActiveAssignments and Version form the optimistic claim used by the
	// assignment engine; they must never be written outside that claim.
	ActiveAssignments int `json:"active_assignments" gorm:"default:0"`
	Version           int `json:"-" gorm:"default:0"`

	ApprovedAt      *time.Time `json:"approved_at"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	TrialStartedAt  *time.Time `json:"trial_started_at"`
	TrialExpiresAt  *time.Time `json:"trial_expires_at"`

	// Relationships
	Application *PartnerApplication        `json:"application,omitempty" gorm:"foreignKey:PartnerID"`
	Expertise   []PartnerExpertise         `json:"expertise,omitempty" gorm:"foreignKey:PartnerID"`
	Trials      []TrialService             `json:"trials,omitempty" gorm:"foreignKey:PartnerID"`
	Assignments []ServicePartnerAssignment `json:"assignments,omitempty" gorm:"foreignKey:PartnerID"`
}

// PartnerApplication is the formal submission tied 1:1 to a Partner. A
// resubmission overwrites the existing record rather than creating another.
type PartnerApplication struct {
	BaseModel
	PartnerID       uuid.UUID      `json:"partner_id" gorm:"type:uuid;not null;uniqueIndex"`
	BusinessDetails JSONB          `json:"business_details" gorm:"type:jsonb"`
	Qualifications  string         `json:"qualifications" gorm:"type:text"`
	Experience      string         `json:"experience" gorm:"type:text"`
	DocumentLinks   pq.StringArray `json:"document_links" gorm:"type:text[]"`
	PortfolioLinks  pq.StringArray `json:"portfolio_links" gorm:"type:text[]"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`
	ReviewedBy      *uuid.UUID     `json:"reviewed_by" gorm:"type:uuid"`
	RejectionReason string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	SourceLeadID    *uuid.UUID     `json:"source_lead_id" gorm:"type:uuid;index"`

	// Relationships
	Partner    Partner      `json:"-" gorm:"foreignKey:PartnerID"`
	SourceLead *PartnerLead `json:"source_lead,omitempty" gorm:"foreignKey:SourceLeadID"`
}

// PartnerExpertise links a partner to a service category; the set of rows per
// partner forms the capability index consumed by the assignment engine.
type PartnerExpertise struct {
	BaseModel
	PartnerID       uuid.UUID  `json:"partner_id" gorm:"type:uuid;not null;index:idx_expertise_partner_category,unique"`
	CategoryID      string     `json:"category_id" gorm:"size:100;not null;index:idx_expertise_partner_category,unique;index"`
	SubcategoryID   string     `json:"subcategory_id,omitempty" gorm:"size:100;index:idx_expertise_partner_category,unique"`
	SkillLevel      SkillLevel `json:"skill_level" gorm:"type:varchar(20);default:'intermediate'"`
	YearsExperience int        `json:"years_experience" gorm:"default:0"`

	// Relationships
	Partner Partner `json:"-" gorm:"foreignKey:PartnerID"`
}
