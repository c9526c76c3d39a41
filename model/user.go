package model

import (
	"time"

	"gorm.io/datatypes"
)

// Status values shared by soft-deletable entities. A deleted row stays in
// the table so delivery records and subscriptions keep their history.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDeleted  = "deleted"
)

// UserType represents the declared role of a user
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeSponsor UserType = "sponsor"
	UserTypeMentor  UserType = "mentor"
	UserTypeAdmin   UserType = "admin"
)

// Platform identifies a chat platform a user can be reached on
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformWhatsApp Platform = "whatsapp"
)

// NotificationFrequency controls how often a user receives alerts
type NotificationFrequency string

const (
	FrequencyImmediate NotificationFrequency = "immediate"
	FrequencyDaily     NotificationFrequency = "daily"
	FrequencyWeekly    NotificationFrequency = "weekly"
)

// User represents a registered user in the system
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone     *string   `gorm:"uniqueIndex" json:"phone,omitempty"`
	FirstName string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name,omitempty"`
	UserType  UserType  `gorm:"type:varchar(20);not null" json:"user_type"`
	Language  string    `gorm:"type:varchar(10);default:'en'" json:"language"`
	Status    string    `gorm:"type:varchar(20);default:'active';index" json:"status"`

	// Relationships
	Platforms     []UserPlatform   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"platforms,omitempty"`
	Preferences   *UserPreferences `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"preferences,omitempty"`
	Subscriptions []Subscription   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the user has not been soft deleted
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserPlatform binds a user to a platform-specific address (chat id, phone
// number). A (platform, address) pair maps to at most one active binding.
type UserPlatform struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Platform       Platform  `gorm:"type:varchar(20);not null;index:idx_platform_address" json:"platform"`
	PlatformUserID string    `gorm:"type:varchar(255);not null;index:idx_platform_address" json:"platform_user_id"`
	Username       string    `gorm:"type:varchar(255)" json:"username,omitempty"`
	Status         string    `gorm:"type:varchar(20);default:'active'" json:"status"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserPreferences holds the declared matching profile for a user. Created
// lazily on the first preference-set call; absence is a valid state.
type UserPreferences struct {
	ID                    uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
	UserID                uint                        `gorm:"not null;uniqueIndex" json:"user_id"`
	Interests             datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"interests"`
	EducationLevel        string                      `gorm:"type:varchar(50)" json:"education_level,omitempty"`
	FieldOfStudy          string                      `gorm:"type:varchar(100)" json:"field_of_study,omitempty"`
	Location              string                      `gorm:"type:varchar(100)" json:"location,omitempty"`
	NotificationFrequency NotificationFrequency       `gorm:"type:varchar(20);default:'daily'" json:"notification_frequency"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
