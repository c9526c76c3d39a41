package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eduoppbot/eduoppbot/model"
	"gorm.io/gorm"
)

// RecommendationService ranks catalog entries against a user's declared
// preferences. Results are recomputed on every call.
type RecommendationService struct {
	db *gorm.DB
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{db: db}
}

// Recommend returns up to limit active opportunities matching the user's
// preferences, most recent first. A user without a preference row gets the
// most recently created active opportunities (cold start). Callers must
// pass a positive limit.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint, limit int) ([]model.Opportunity, error) {
	var prefs model.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.recentActive(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preferences: %w", err)
	}

	var candidates []model.Opportunity
	err = s.db.WithContext(ctx).
		Where("status = ?", model.StatusActive).
		Order("created_at DESC, id DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opportunities: %w", err)
	}

	matched := make([]model.Opportunity, 0, limit)
	for _, candidate := range candidates {
		if !MatchesPreferences(&candidate, &prefs) {
			continue
		}
		matched = append(matched, candidate)
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func (s *RecommendationService) recentActive(ctx context.Context, limit int) ([]model.Opportunity, error) {
	var results []model.Opportunity
	err := s.db.WithContext(ctx).
		Where("status = ?", model.StatusActive).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent opportunities: %w", err)
	}
	return results, nil
}

// MatchesPreferences reports whether an opportunity qualifies for a user's
// preference profile. Interests and field of study broaden the candidate
// set (either one admits the opportunity); a location preference narrows
// it, excluding opportunities with no location at all.
func MatchesPreferences(opportunity *model.Opportunity, prefs *model.UserPreferences) bool {
	if prefs.Location != "" {
		if opportunity.Location == "" || !containsFold(opportunity.Location, prefs.Location) {
			return false
		}
	}

	// An empty interest set imposes no tag filter
	if len(prefs.Interests) == 0 {
		return true
	}
	if tagOverlap(opportunity.Tags, prefs.Interests) {
		return true
	}
	return prefs.FieldOfStudy != "" && fieldOfStudyMatches(opportunity, prefs.FieldOfStudy)
}

// tagOverlap reports whether the two tag sets share at least one tag
func tagOverlap(tags, wanted []string) bool {
	for _, tag := range tags {
		for _, want := range wanted {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// fieldOfStudyMatches checks for the field string inside the title or
// description, case-insensitively
func fieldOfStudyMatches(opportunity *model.Opportunity, field string) bool {
	return containsFold(opportunity.Title, field) || containsFold(opportunity.Description, field)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
