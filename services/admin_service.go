package services

import (
	"context"
	"fmt"

	"github.com/eduoppbot/eduoppbot/model"
	"gorm.io/gorm"
)

// AdminService aggregates platform statistics
type AdminService struct {
	db *gorm.DB
}

// NewAdminService creates a new admin service
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// PlatformStats is the admin dashboard summary
type PlatformStats struct {
	Users struct {
		Total  int64            `json:"total"`
		Active int64            `json:"active"`
		ByType map[string]int64 `json:"by_type"`
	} `json:"users"`
	Opportunities struct {
		Total  int64            `json:"total"`
		Active int64            `json:"active"`
		ByType map[string]int64 `json:"by_type"`
	} `json:"opportunities"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	NotificationsSent   int64 `json:"notifications_sent"`
}

// GetPlatformStats runs the counting queries for the dashboard
func (s *AdminService) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}
	stats.Users.ByType = make(map[string]int64)
	stats.Opportunities.ByType = make(map[string]int64)

	db := s.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.Users.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&model.User{}).Where("status = ?", model.StatusActive).
		Count(&stats.Users.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	userTypes := []model.UserType{model.UserTypeStudent, model.UserTypeSponsor, model.UserTypeMentor, model.UserTypeAdmin}
	for _, userType := range userTypes {
		var count int64
		if err := db.Model(&model.User{}).
			Where("user_type = ? AND status = ?", userType, model.StatusActive).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s users: %w", userType, err)
		}
		stats.Users.ByType[string(userType)] = count
	}

	if err := db.Model(&model.Opportunity{}).Count(&stats.Opportunities.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}
	if err := db.Model(&model.Opportunity{}).Where("status = ?", model.StatusActive).
		Count(&stats.Opportunities.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active opportunities: %w", err)
	}

	opportunityTypes := []model.OpportunityType{
		model.OpportunityScholarship, model.OpportunityLearningResource,
		model.OpportunityEvent, model.OpportunityMentorship, model.OpportunityFunding,
	}
	for _, opportunityType := range opportunityTypes {
		var count int64
		if err := db.Model(&model.Opportunity{}).
			Where("opportunity_type = ? AND status = ?", opportunityType, model.StatusActive).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s opportunities: %w", opportunityType, err)
		}
		stats.Opportunities.ByType[string(opportunityType)] = count
	}

	if err := db.Model(&model.Subscription{}).Where("status = ?", model.StatusActive).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if err := db.Model(&model.Notification{}).Count(&stats.NotificationsSent).Error; err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return stats, nil
}
