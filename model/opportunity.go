package model

import (
	"time"

	"gorm.io/datatypes"
)

// OpportunityType represents the kind of opportunity
type OpportunityType string

const (
	OpportunityScholarship      OpportunityType = "scholarship"
	OpportunityLearningResource OpportunityType = "learning_resource"
	OpportunityEvent            OpportunityType = "event"
	OpportunityMentorship       OpportunityType = "mentorship"
	OpportunityFunding          OpportunityType = "funding"
)

// Opportunity represents a scholarship, resource, event, mentorship or
// funding entry in the catalog. Deletion is soft: status flips to deleted
// and the row is excluded from search and matching but kept for history.
type Opportunity struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Title           string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description     string                      `gorm:"type:text;not null" json:"description"`
	OpportunityType OpportunityType             `gorm:"type:varchar(30);not null;index" json:"opportunity_type"`
	Organization    string                      `gorm:"type:varchar(255);not null" json:"organization"`
	URL             string                      `gorm:"type:varchar(500)" json:"url,omitempty"`
	Deadline        *time.Time                  `json:"deadline,omitempty"`
	Location        string                      `gorm:"type:varchar(100)" json:"location,omitempty"`
	Language        string                      `gorm:"type:varchar(10);default:'en'" json:"language"`
	Tags            datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`
	Requirements    datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"requirements"`
	Benefits        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"benefits"`
	Status          string                      `gorm:"type:varchar(20);default:'active';index" json:"status"`
	CreatedBy       uint                        `gorm:"not null" json:"created_by"`

	// Relationships
	Creator       User           `gorm:"foreignKey:CreatedBy" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:OpportunityID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the opportunity has not been soft deleted
func (o *Opportunity) IsActive() bool {
	return o.Status == StatusActive
}

// Subscription links a user to an opportunity. At most one active
// subscription exists per (user, opportunity); resubscribing flips the
// existing row back to active instead of inserting a duplicate.
type Subscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        uint      `gorm:"not null;index:idx_user_opportunity" json:"user_id"`
	OpportunityID uint      `gorm:"not null;index:idx_user_opportunity" json:"opportunity_id"`
	Status        string    `gorm:"type:varchar(20);default:'active'" json:"status"`

	User        User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Opportunity Opportunity `gorm:"foreignKey:OpportunityID;constraint:OnDelete:CASCADE" json:"opportunity,omitempty"`
}
