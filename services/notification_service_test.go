package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eduoppbot/eduoppbot/channels"
	"github.com/eduoppbot/eduoppbot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type stubSend struct {
	recipient string
	text      string
}

// stubChannel records sends and fails on demand per recipient
type stubChannel struct {
	kind model.Platform
	mu   sync.Mutex
	sent []stubSend
	fail map[string]error
}

func newStubChannel(kind model.Platform) *stubChannel {
	return &stubChannel{kind: kind, fail: make(map[string]error)}
}

func (c *stubChannel) Kind() model.Platform { return c.kind }
func (c *stubChannel) Configured() bool     { return true }
func (c *stubChannel) Start() error         { return nil }
func (c *stubChannel) Stop() error          { return nil }

func (c *stubChannel) Send(ctx context.Context, recipient, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, stubSend{recipient: recipient, text: text})
	return c.fail[recipient]
}

func (c *stubChannel) recipients() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, s := range c.sent {
		out = append(out, s.recipient)
	}
	return out
}

func bindPlatform(t *testing.T, db *gorm.DB, userID uint, platform model.Platform, address string) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserPlatform{
		UserID:         userID,
		Platform:       platform,
		PlatformUserID: address,
		Status:         model.StatusActive,
	}).Error)
}

func subscribe(t *testing.T, db *gorm.DB, userID, opportunityID uint) {
	t.Helper()
	require.NoError(t, db.Create(&model.Subscription{
		UserID:        userID,
		OpportunityID: opportunityID,
		Status:        model.StatusActive,
	}).Error)
}

func TestSendOpportunityAlertFanOut(t *testing.T) {
	db := newTestDB(t)
	telegram := newStubChannel(model.PlatformTelegram)
	registry := channels.NewRegistry(telegram)
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	opportunity := createTestOpportunity(t, db, "Grant")
	amina := createTestUser(t, db, "Amina")
	kwame := createTestUser(t, db, "Kwame")
	bindPlatform(t, db, amina.ID, model.PlatformTelegram, "tg-amina")
	bindPlatform(t, db, kwame.ID, model.PlatformTelegram, "tg-kwame")
	subscribe(t, db, amina.ID, opportunity.ID)
	subscribe(t, db, kwame.ID, opportunity.ID)

	// Kwame's address is permanently broken; the fan-out must still reach
	// Amina and record both outcomes
	telegram.fail["tg-kwame"] = channels.Permanent(errors.New("blocked"))

	err := service.SendOpportunityAlert(context.Background(), opportunity.ID, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"tg-amina", "tg-kwame"}, telegram.recipients())

	var records []model.Notification
	require.NoError(t, db.Order("user_id").Find(&records).Error)
	require.Len(t, records, 2)

	byUser := map[uint]model.Notification{}
	for _, record := range records {
		byUser[record.UserID] = record
	}
	assert.Equal(t, model.DeliverySent, byUser[amina.ID].Status)
	assert.Equal(t, model.DeliveryFailed, byUser[kwame.ID].Status)

	// One dispatch reference spans the whole fan-out
	assert.NotEmpty(t, records[0].Reference)
	assert.Equal(t, records[0].Reference, records[1].Reference)
	require.NotNil(t, records[0].OpportunityID)
	assert.Equal(t, opportunity.ID, *records[0].OpportunityID)
}

func TestSendOpportunityAlertExplicitTargets(t *testing.T) {
	db := newTestDB(t)
	telegram := newStubChannel(model.PlatformTelegram)
	registry := channels.NewRegistry(telegram)
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	opportunity := createTestOpportunity(t, db, "Grant")
	subscriber := createTestUser(t, db, "Amina")
	target := createTestUser(t, db, "Kwame")
	bindPlatform(t, db, subscriber.ID, model.PlatformTelegram, "tg-amina")
	bindPlatform(t, db, target.ID, model.PlatformTelegram, "tg-kwame")
	subscribe(t, db, subscriber.ID, opportunity.ID)

	// An explicit target list overrides the subscriber set
	err := service.SendOpportunityAlert(context.Background(), opportunity.ID, []uint{target.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{"tg-kwame"}, telegram.recipients())
}

func TestSendOpportunityAlertFailsFast(t *testing.T) {
	db := newTestDB(t)
	registry := channels.NewRegistry(newStubChannel(model.PlatformTelegram))
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	err := service.SendOpportunityAlert(context.Background(), 9999, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted := createTestOpportunity(t, db, "Gone", func(o *model.Opportunity) {
		o.Status = model.StatusDeleted
	})
	err = service.SendOpportunityAlert(context.Background(), deleted.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSendOpportunityAlertSkipsInactiveBindings(t *testing.T) {
	db := newTestDB(t)
	telegram := newStubChannel(model.PlatformTelegram)
	registry := channels.NewRegistry(telegram)
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	opportunity := createTestOpportunity(t, db, "Grant")
	user := createTestUser(t, db, "Amina")
	bindPlatform(t, db, user.ID, model.PlatformTelegram, "tg-live")
	require.NoError(t, db.Create(&model.UserPlatform{
		UserID:         user.ID,
		Platform:       model.PlatformTelegram,
		PlatformUserID: "tg-stale",
		Status:         model.StatusInactive,
	}).Error)
	subscribe(t, db, user.ID, opportunity.ID)

	err := service.SendOpportunityAlert(context.Background(), opportunity.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"tg-live"}, telegram.recipients())
}

func TestSendOpportunityAlertRecordsUnavailableChannel(t *testing.T) {
	db := newTestDB(t)
	// Registry has no discord channel at all
	registry := channels.NewRegistry(newStubChannel(model.PlatformTelegram))
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	opportunity := createTestOpportunity(t, db, "Grant")
	user := createTestUser(t, db, "Amina")
	bindPlatform(t, db, user.ID, model.PlatformDiscord, "dc-amina")
	subscribe(t, db, user.ID, opportunity.ID)

	err := service.SendOpportunityAlert(context.Background(), opportunity.ID, nil)
	require.NoError(t, err)

	var record model.Notification
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, model.DeliveryFailed, record.Status)
	assert.Equal(t, model.PlatformDiscord, record.Platform)
}

func TestSendWelcomeMessageNotPersisted(t *testing.T) {
	db := newTestDB(t)
	telegram := newStubChannel(model.PlatformTelegram)
	registry := channels.NewRegistry(telegram)
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	user := createTestUser(t, db, "Amina")
	bindPlatform(t, db, user.ID, model.PlatformTelegram, "tg-amina")

	require.NoError(t, service.SendWelcomeMessage(context.Background(), user.ID))

	require.Len(t, telegram.sent, 1)
	assert.Contains(t, telegram.sent[0].text, "Amina")

	// System greetings stay out of the delivery log
	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.Zero(t, count)

	err := service.SendWelcomeMessage(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendRecommendationDigest(t *testing.T) {
	db := newTestDB(t)
	telegram := newStubChannel(model.PlatformTelegram)
	registry := channels.NewRegistry(telegram)
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	user := createTestUser(t, db, "Amina")
	bindPlatform(t, db, user.ID, model.PlatformTelegram, "tg-amina")
	require.NoError(t, db.Create(&model.UserPreferences{
		UserID:                user.ID,
		Interests:             datatypes.NewJSONSlice([]string{"stem"}),
		NotificationFrequency: model.FrequencyDaily,
	}).Error)

	createTestOpportunity(t, db, "STEM Grant", func(o *model.Opportunity) {
		o.Tags = datatypes.NewJSONSlice([]string{"stem"})
	})
	createTestOpportunity(t, db, "Arts Grant", func(o *model.Opportunity) {
		o.Tags = datatypes.NewJSONSlice([]string{"arts"})
	})

	reached, err := service.SendRecommendationDigest(context.Background(), model.FrequencyDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, reached)
	require.Len(t, telegram.sent, 1)
	assert.Contains(t, telegram.sent[0].text, "STEM Grant")

	// A second run finds everything already delivered
	reached, err = service.SendRecommendationDigest(context.Background(), model.FrequencyDaily)
	require.NoError(t, err)
	assert.Zero(t, reached)
	assert.Len(t, telegram.sent, 1)

	// Weekly cadence does not pick up daily users
	reached, err = service.SendRecommendationDigest(context.Background(), model.FrequencyWeekly)
	require.NoError(t, err)
	assert.Zero(t, reached)
}

func TestGetUserNotificationsAndMarkRead(t *testing.T) {
	db := newTestDB(t)
	registry := channels.NewRegistry(newStubChannel(model.PlatformTelegram))
	service := NewNotificationService(db, registry, NewRecommendationService(db), nil)

	user := createTestUser(t, db, "Amina")
	other := createTestUser(t, db, "Kwame")
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&model.Notification{
			UserID:   user.ID,
			Platform: model.PlatformTelegram,
			Message:  "hello",
			Status:   model.DeliverySent,
		}).Error)
	}
	require.NoError(t, db.Create(&model.Notification{
		UserID:   other.ID,
		Platform: model.PlatformTelegram,
		Message:  "hello",
		Status:   model.DeliverySent,
	}).Error)

	notifications, total, err := service.GetUserNotifications(context.Background(), ListNotificationsOptions{
		UserID: user.ID,
		Limit:  2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, notifications, 2)

	// Marking reads is scoped to the owning user
	updated, err := service.MarkNotificationsRead(context.Background(), user.ID,
		[]uint{notifications[0].ID, notifications[1].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	updated, err = service.MarkNotificationsRead(context.Background(), other.ID, []uint{notifications[0].ID})
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestFormatOpportunityMessage(t *testing.T) {
	deadline := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	opportunity := &model.Opportunity{
		Title:        "Women in STEM Scholarship",
		Description:  "Full scholarship for undergraduate study",
		Organization: "STEM Foundation",
		URL:          "https://example.org/apply",
		Deadline:     &deadline,
		Location:     "Nairobi, Kenya",
		Tags:         datatypes.NewJSONSlice([]string{"stem", "women", "scholarship"}),
	}

	message := FormatOpportunityMessage(opportunity)

	assert.Contains(t, message, "🎓 *Women in STEM Scholarship*")
	assert.Contains(t, message, "📝 Full scholarship for undergraduate study")
	assert.Contains(t, message, "🏢 Organization: STEM Foundation")
	assert.Contains(t, message, "⏰ Deadline: 2026-09-15")
	assert.Contains(t, message, "📍 Location: Nairobi, Kenya")
	assert.Contains(t, message, "🔗 Learn more: https://example.org/apply")
	assert.Contains(t, message, "🏷️ Tags: stem, women, scholarship")

	// Deterministic for the same input
	assert.Equal(t, message, FormatOpportunityMessage(opportunity))
}

func TestFormatOpportunityMessageOptionalFields(t *testing.T) {
	opportunity := &model.Opportunity{
		Title:        "Plain Grant",
		Description:  "Short",
		Organization: "Org",
	}

	message := FormatOpportunityMessage(opportunity)

	assert.NotContains(t, message, "⏰")
	assert.NotContains(t, message, "📍")
	assert.NotContains(t, message, "🔗")
	assert.NotContains(t, message, "🏷️")
}

func TestFormatOpportunityMessageTruncation(t *testing.T) {
	opportunity := &model.Opportunity{
		Title:        "Long",
		Description:  strings.Repeat("é", 250),
		Organization: "Org",
		Tags:         datatypes.NewJSONSlice([]string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}),
	}

	message := FormatOpportunityMessage(opportunity)

	// Descriptions are cut at 200 characters, not bytes, with an ellipsis
	assert.Contains(t, message, strings.Repeat("é", 200)+"...")
	assert.NotContains(t, message, strings.Repeat("é", 201))

	// Only the first five tags are shown
	assert.Contains(t, message, "🏷️ Tags: t1, t2, t3, t4, t5\n")
	assert.NotContains(t, message, "t6")

	// An exactly-at-limit description is not ellipsized
	opportunity.Description = strings.Repeat("x", 200)
	assert.NotContains(t, FormatOpportunityMessage(opportunity), "...")
}
