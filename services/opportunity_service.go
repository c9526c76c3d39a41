package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eduoppbot/eduoppbot/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// OpportunityService handles the opportunity catalog and subscriptions
type OpportunityService struct {
	db *gorm.DB
}

// NewOpportunityService creates a new opportunity service
func NewOpportunityService(db *gorm.DB) *OpportunityService {
	return &OpportunityService{db: db}
}

// CreateOpportunityRequest represents a request to create an opportunity
type CreateOpportunityRequest struct {
	Title           string                `json:"title" validate:"required,max=255"`
	Description     string                `json:"description" validate:"required"`
	OpportunityType model.OpportunityType `json:"opportunity_type" validate:"required,oneof=scholarship learning_resource event mentorship funding"`
	Organization    string                `json:"organization" validate:"required,max=255"`
	URL             string                `json:"url" validate:"omitempty,url,max=500"`
	Deadline        *time.Time            `json:"deadline"`
	Location        string                `json:"location" validate:"max=100"`
	Language        string                `json:"language" validate:"max=10"`
	Tags            []string              `json:"tags"`
	Requirements    []string              `json:"requirements"`
	Benefits        []string              `json:"benefits"`
}

// UpdateOpportunityRequest carries optional updates; nil fields are kept
type UpdateOpportunityRequest struct {
	Title        *string    `json:"title" validate:"omitempty,max=255"`
	Description  *string    `json:"description"`
	Organization *string    `json:"organization" validate:"omitempty,max=255"`
	URL          *string    `json:"url" validate:"omitempty,url,max=500"`
	Deadline     *time.Time `json:"deadline"`
	Location     *string    `json:"location" validate:"omitempty,max=100"`
	Tags         *[]string  `json:"tags"`
	Requirements *[]string  `json:"requirements"`
	Benefits     *[]string  `json:"benefits"`
}

// SearchFilter holds the catalog search parameters. All fields are
// optional and combined conjunctively; the tag set itself is disjunctive.
type SearchFilter struct {
	Query    string
	Type     model.OpportunityType
	Tags     []string
	Location string
	Language string
	Limit    int
	Offset   int
}

// CreateOpportunity creates a new catalog entry
func (s *OpportunityService) CreateOpportunity(ctx context.Context, req CreateOpportunityRequest, createdBy uint) (*model.Opportunity, error) {
	language := req.Language
	if language == "" {
		language = "en"
	}

	opportunity := &model.Opportunity{
		Title:           req.Title,
		Description:     req.Description,
		OpportunityType: req.OpportunityType,
		Organization:    req.Organization,
		URL:             req.URL,
		Deadline:        req.Deadline,
		Location:        req.Location,
		Language:        language,
		Tags:            req.Tags,
		Requirements:    req.Requirements,
		Benefits:        req.Benefits,
		Status:          model.StatusActive,
		CreatedBy:       createdBy,
	}

	if err := s.db.WithContext(ctx).Create(opportunity).Error; err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	log.Printf("Created opportunity %d: %s", opportunity.ID, opportunity.Title)
	return opportunity, nil
}

// GetOpportunity retrieves an opportunity regardless of status; callers
// that must exclude deleted entries check IsActive
func (s *OpportunityService) GetOpportunity(ctx context.Context, opportunityID uint) (*model.Opportunity, error) {
	var opportunity model.Opportunity
	err := s.db.WithContext(ctx).First(&opportunity, opportunityID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch opportunity: %w", err)
	}
	return &opportunity, nil
}

// Search filters active opportunities. Ordering is created_at DESC with id
// DESC as tiebreaker so offset/limit pagination stays stable under
// concurrent inserts. The tag condition is applied after the SQL conjuncts
// (JSON containment is dialect-specific) and before pagination.
func (s *OpportunityService) Search(ctx context.Context, filter SearchFilter) ([]model.Opportunity, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).Model(&model.Opportunity{}).
		Where("status = ?", model.StatusActive)

	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(organization) LIKE ?",
			like, like, like,
		)
	}
	if filter.Type != "" {
		query = query.Where("opportunity_type = ?", filter.Type)
	}
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.Language != "" {
		query = query.Where("language = ?", filter.Language)
	}

	query = query.Order("created_at DESC, id DESC")

	if len(filter.Tags) == 0 {
		var results []model.Opportunity
		if err := query.Limit(limit).Offset(offset).Find(&results).Error; err != nil {
			return nil, fmt.Errorf("failed to search opportunities: %w", err)
		}
		return results, nil
	}

	var candidates []model.Opportunity
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to search opportunities: %w", err)
	}

	matched := make([]model.Opportunity, 0, limit)
	for _, candidate := range candidates {
		if !tagOverlap(candidate.Tags, filter.Tags) {
			continue
		}
		matched = append(matched, candidate)
	}

	if offset >= len(matched) {
		return []model.Opportunity{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// UpdateOpportunity applies the non-nil fields of req
func (s *OpportunityService) UpdateOpportunity(ctx context.Context, opportunityID uint, req UpdateOpportunityRequest) (*model.Opportunity, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Organization != nil {
		updates["organization"] = *req.Organization
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(*req.Tags)
	}
	if req.Requirements != nil {
		updates["requirements"] = datatypes.NewJSONSlice(*req.Requirements)
	}
	if req.Benefits != nil {
		updates["benefits"] = datatypes.NewJSONSlice(*req.Benefits)
	}

	if len(updates) == 0 {
		return s.GetOpportunity(ctx, opportunityID)
	}

	result := s.db.WithContext(ctx).Model(&model.Opportunity{}).
		Where("id = ?", opportunityID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetOpportunity(ctx, opportunityID)
}

// DeleteOpportunity soft deletes: the entry disappears from search and
// matching but its subscriptions and delivery records stay queryable
func (s *OpportunityService) DeleteOpportunity(ctx context.Context, opportunityID uint) error {
	result := s.db.WithContext(ctx).Model(&model.Opportunity{}).
		Where("id = ? AND status = ?", opportunityID, model.StatusActive).
		Update("status", model.StatusDeleted)
	if result.Error != nil {
		return fmt.Errorf("failed to delete opportunity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe links a user to an opportunity. A second subscribe is a no-op
// (ErrAlreadySubscribed); resubscribing after unsubscribe reactivates the
// existing row so there is never more than one per (user, opportunity).
func (s *OpportunityService) Subscribe(ctx context.Context, opportunityID, userID uint) (*model.Subscription, error) {
	opportunity, err := s.GetOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if !opportunity.IsActive() {
		return nil, ErrNotFound
	}

	var subscription model.Subscription
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND opportunity_id = ?", userID, opportunityID).
		First(&subscription).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		subscription = model.Subscription{
			UserID:        userID,
			OpportunityID: opportunityID,
			Status:        model.StatusActive,
		}
		if err := s.db.WithContext(ctx).Create(&subscription).Error; err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	case subscription.Status == model.StatusActive:
		return nil, ErrAlreadySubscribed
	default:
		subscription.Status = model.StatusActive
		if err := s.db.WithContext(ctx).Save(&subscription).Error; err != nil {
			return nil, fmt.Errorf("failed to reactivate subscription: %w", err)
		}
	}

	log.Printf("User %d subscribed to opportunity %d", userID, opportunityID)
	return &subscription, nil
}

// Unsubscribe deactivates the user's subscription to an opportunity
func (s *OpportunityService) Unsubscribe(ctx context.Context, opportunityID, userID uint) error {
	result := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ? AND opportunity_id = ? AND status = ?",
			userID, opportunityID, model.StatusActive).
		Update("status", model.StatusInactive)
	if result.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserSubscriptions lists a user's active subscriptions with their
// opportunities preloaded
func (s *OpportunityService) GetUserSubscriptions(ctx context.Context, userID uint) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := s.db.WithContext(ctx).
		Preload("Opportunity").
		Where("user_id = ? AND status = ?", userID, model.StatusActive).
		Order("created_at DESC, id DESC").
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	return subscriptions, nil
}
