package model

import (
	"time"
)

// DeliveryStatus records the outcome of a single send attempt
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Notification is the append-only delivery log: one row per attempted send
// of a content message to one user on one platform. Rows are never mutated
// after insert except the read flag.
type Notification struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	OpportunityID *uint          `gorm:"index" json:"opportunity_id,omitempty"`
	Platform      Platform       `gorm:"type:varchar(20);not null" json:"platform"`
	Message       string         `gorm:"type:text;not null" json:"message"`
	Status        DeliveryStatus `gorm:"type:varchar(10);not null" json:"status"`
	Reference     string         `gorm:"type:varchar(36);index" json:"reference"` // dispatch id, one per alert fan-out
	SentAt        time.Time      `gorm:"autoCreateTime;index" json:"sent_at"`
	Read          bool           `gorm:"default:false" json:"read"`

	User        User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Opportunity *Opportunity `gorm:"foreignKey:OpportunityID" json:"-"`
}

// NotificationResponse is the API shape for a delivery log entry
type NotificationResponse struct {
	ID            uint           `json:"id"`
	OpportunityID *uint          `json:"opportunity_id,omitempty"`
	Platform      Platform       `json:"platform"`
	Message       string         `json:"message"`
	Status        DeliveryStatus `json:"status"`
	SentAt        time.Time      `json:"sent_at"`
	Read          bool           `json:"read"`
}

// ToResponse converts a Notification to its API shape
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		OpportunityID: n.OpportunityID,
		Platform:      n.Platform,
		Message:       n.Message,
		Status:        n.Status,
		SentAt:        n.SentAt,
		Read:          n.Read,
	}
}
