package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eduoppbot/eduoppbot/channels"
	"github.com/eduoppbot/eduoppbot/model"
	"github.com/eduoppbot/eduoppbot/utils/backoff"
	"github.com/eduoppbot/eduoppbot/utils/cache"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// sendTimeout bounds the impact of a stuck or slow platform on the
	// rest of the fan-out
	sendTimeout = 8 * time.Second

	// maxSendAttempts is 1 initial try plus 2 retries for transient
	// failures; permanent failures (invalid recipient) are not retried
	maxSendAttempts = 3
	retryBaseDelay  = 500 * time.Millisecond

	// duplicateWindow suppresses repeat alerts for the same
	// (user, opportunity) across dispatcher calls
	duplicateWindow = 24 * time.Hour

	descriptionLimit = 200
	maxMessageTags   = 5
	digestLimit      = 5
)

// NotificationService fans a message out to every active platform binding
// of every target user, isolating per-send failures, and appends one
// delivery record per attempted send.
type NotificationService struct {
	db          *gorm.DB
	channels    *channels.Registry
	recommender *RecommendationService
	cache       *cache.RedisCache // nil disables the duplicate-alert guard
}

// NewNotificationService creates a new notification service. cache may be
// nil when Redis is not configured.
func NewNotificationService(db *gorm.DB, registry *channels.Registry, recommender *RecommendationService, redisCache *cache.RedisCache) *NotificationService {
	if redisCache == nil {
		log.Println("Warning: Redis not configured, duplicate-alert suppression disabled")
	}
	return &NotificationService{
		db:          db,
		channels:    registry,
		recommender: recommender,
		cache:       redisCache,
	}
}

// ListNotificationsOptions represents options for listing delivery records
type ListNotificationsOptions struct {
	UserID uint
	Limit  int
	Offset int
}

// SendOpportunityAlert delivers an opportunity to the given users, or to
// all active subscribers when userIDs is empty. It fails fast when the
// opportunity is missing or deleted; individual send failures are logged
// and recorded but never abort the fan-out.
func (s *NotificationService) SendOpportunityAlert(ctx context.Context, opportunityID uint, userIDs []uint) error {
	var opportunity model.Opportunity
	if err := s.db.WithContext(ctx).First(&opportunity, opportunityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch opportunity: %w", err)
	}
	if !opportunity.IsActive() {
		return ErrNotFound
	}

	users, err := s.resolveTargets(ctx, opportunityID, userIDs)
	if err != nil {
		return err
	}

	reference := uuid.NewString()
	message := FormatOpportunityMessage(&opportunity)
	log.Printf("Dispatching alert %s for opportunity %d to %d users", reference, opportunityID, len(users))

	for i := range users {
		s.sendToUserPlatforms(ctx, &users[i], &opportunity, message, reference)
	}
	return nil
}

func (s *NotificationService) resolveTargets(ctx context.Context, opportunityID uint, userIDs []uint) ([]model.User, error) {
	var users []model.User
	query := s.db.WithContext(ctx).Preload("Platforms").Where("users.status = ?", model.StatusActive)

	if len(userIDs) > 0 {
		query = query.Where("users.id IN ?", userIDs)
	} else {
		query = query.
			Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
			Where("subscriptions.opportunity_id = ? AND subscriptions.status = ?",
				opportunityID, model.StatusActive)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve alert targets: %w", err)
	}
	return users, nil
}

func (s *NotificationService) sendToUserPlatforms(ctx context.Context, user *model.User, opportunity *model.Opportunity, message, reference string) {
	if !s.claimAlert(ctx, user.ID, opportunity.ID) {
		log.Printf("Skipping user %d: opportunity %d already alerted within window", user.ID, opportunity.ID)
		return
	}

	for _, binding := range user.Platforms {
		if binding.Status != model.StatusActive {
			continue
		}

		status := model.DeliverySent
		if err := s.sendWithRetry(ctx, binding.Platform, binding.PlatformUserID, message); err != nil {
			log.Printf("Failed to send to %s user %s: %v", binding.Platform, binding.PlatformUserID, err)
			status = model.DeliveryFailed
		}

		s.recordDelivery(ctx, user.ID, &opportunity.ID, binding.Platform, message, status, reference)
	}
}

// claimAlert reports whether this (user, opportunity) pair may be alerted.
// Fails open: a Redis outage must not block delivery.
func (s *NotificationService) claimAlert(ctx context.Context, userID, opportunityID uint) bool {
	if s.cache == nil {
		return true
	}

	key := fmt.Sprintf("alert:%d:%d", userID, opportunityID)
	claimed, err := s.cache.SetNX(ctx, key, time.Now().Unix(), duplicateWindow)
	if err != nil {
		log.Printf("Duplicate guard unavailable for user %d: %v", userID, err)
		return true
	}
	return claimed
}

func (s *NotificationService) sendWithRetry(ctx context.Context, platform model.Platform, recipient, text string) error {
	var err error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if delay := backoff.RetryDelay(attempt, retryBaseDelay); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = s.channels.Send(sendCtx, platform, recipient, text)
		cancel()

		if err == nil {
			return nil
		}
		if channels.IsPermanent(err) || errors.Is(err, channels.ErrChannelUnavailable) {
			return err
		}
		log.Printf("Send attempt %d/%d on %s failed: %v", attempt, maxSendAttempts, platform, err)
	}
	return err
}

// recordDelivery appends to the delivery log. Log failures are swallowed:
// the audit trail must never take down the fan-out.
func (s *NotificationService) recordDelivery(ctx context.Context, userID uint, opportunityID *uint, platform model.Platform, message string, status model.DeliveryStatus, reference string) {
	notification := &model.Notification{
		UserID:        userID,
		OpportunityID: opportunityID,
		Platform:      platform,
		Message:       message,
		Status:        status,
		Reference:     reference,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		log.Printf("Failed to record delivery for user %d on %s: %v", userID, platform, err)
	}
}

// SendWelcomeMessage greets a newly registered user on every active
// binding. System messages follow the same fan-out and isolation rules as
// alerts but are not persisted to the delivery log.
func (s *NotificationService) SendWelcomeMessage(ctx context.Context, userID uint) error {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Platforms").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	message := fmt.Sprintf("🎓 *Welcome to EduOpportunity Bot!*\n\n"+
		"Hello %s! I'm here to help you discover amazing educational opportunities.\n\n"+
		"Use /help to see available commands and /preferences to set your preferences for personalized recommendations.",
		user.FirstName)

	for _, binding := range user.Platforms {
		if binding.Status != model.StatusActive {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		if err := s.channels.Send(sendCtx, binding.Platform, binding.PlatformUserID, message); err != nil {
			log.Printf("Failed to send welcome to %s user %s: %v", binding.Platform, binding.PlatformUserID, err)
		}
		cancel()
	}
	return nil
}

// SendRecommendationDigest alerts every active user on the given cadence
// with their current top recommendations, skipping opportunities already
// present in their delivery log. Returns the number of users reached.
func (s *NotificationService) SendRecommendationDigest(ctx context.Context, frequency model.NotificationFrequency) (int, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Preload("Platforms").
		Joins("JOIN user_preferences ON user_preferences.user_id = users.id").
		Where("user_preferences.notification_frequency = ? AND users.status = ?",
			frequency, model.StatusActive).
		Find(&users).Error
	if err != nil {
		return 0, fmt.Errorf("failed to resolve digest users: %w", err)
	}

	reached := 0
	for i := range users {
		user := &users[i]
		recommendations, err := s.recommender.Recommend(ctx, user.ID, digestLimit)
		if err != nil {
			log.Printf("Digest recommendation failed for user %d: %v", user.ID, err)
			continue
		}

		sent := false
		for j := range recommendations {
			opportunity := &recommendations[j]
			alreadySent, err := s.alreadyDelivered(ctx, user.ID, opportunity.ID)
			if err != nil {
				log.Printf("Digest delivery check failed for user %d: %v", user.ID, err)
				continue
			}
			if alreadySent {
				continue
			}

			message := FormatOpportunityMessage(opportunity)
			reference := uuid.NewString()
			s.sendToUserPlatforms(ctx, user, opportunity, message, reference)
			sent = true
		}
		if sent {
			reached++
		}
	}
	return reached, nil
}

func (s *NotificationService) alreadyDelivered(ctx context.Context, userID, opportunityID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND opportunity_id = ?", userID, opportunityID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserNotifications lists a user's delivery records, most recent first
func (s *NotificationService) GetUserNotifications(ctx context.Context, opts ListNotificationsOptions) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ?", opts.UserID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	err := query.Order("sent_at DESC, id DESC").
		Limit(limit).
		Offset(opts.Offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkNotificationsRead flips the read flag, the only mutation the
// delivery log permits
func (s *NotificationService) MarkNotificationsRead(ctx context.Context, userID uint, notificationIDs []uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND id IN ?", userID, notificationIDs).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FormatOpportunityMessage renders the channel-agnostic alert text. The
// output is deterministic for a given opportunity.
func FormatOpportunityMessage(o *model.Opportunity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎓 *%s*\n\n", o.Title)

	description := []rune(o.Description)
	if len(description) > descriptionLimit {
		fmt.Fprintf(&b, "📝 %s...\n\n", string(description[:descriptionLimit]))
	} else {
		fmt.Fprintf(&b, "📝 %s\n\n", o.Description)
	}

	fmt.Fprintf(&b, "🏢 Organization: %s\n", o.Organization)

	if o.Deadline != nil {
		fmt.Fprintf(&b, "⏰ Deadline: %s\n", o.Deadline.Format("2006-01-02"))
	}
	if o.Location != "" {
		fmt.Fprintf(&b, "📍 Location: %s\n", o.Location)
	}
	if o.URL != "" {
		fmt.Fprintf(&b, "🔗 Learn more: %s\n", o.URL)
	}
	if len(o.Tags) > 0 {
		tags := o.Tags
		if len(tags) > maxMessageTags {
			tags = tags[:maxMessageTags]
		}
		fmt.Fprintf(&b, "🏷️ Tags: %s\n", strings.Join(tags, ", "))
	}

	return b.String()
}
