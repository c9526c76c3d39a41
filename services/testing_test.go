package services

import (
	"fmt"
	"testing"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database migrated with the full
// schema. Each test gets its own named database so parallel tests cannot
// see each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.UserPlatform{},
		&model.UserPreferences{},
		&model.Opportunity{},
		&model.Subscription{},
		&model.Notification{},
		&model.CronJobLog{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, firstName string) *model.User {
	t.Helper()

	user := &model.User{
		FirstName: firstName,
		UserType:  model.UserTypeStudent,
		Language:  "en",
		Status:    model.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestOpportunity(t *testing.T, db *gorm.DB, title string, mutate ...func(*model.Opportunity)) *model.Opportunity {
	t.Helper()

	opportunity := &model.Opportunity{
		Title:           title,
		Description:     "A test opportunity",
		OpportunityType: model.OpportunityScholarship,
		Organization:    "Test Org",
		Language:        "en",
		Status:          model.StatusActive,
		CreatedBy:       1,
	}
	for _, fn := range mutate {
		fn(opportunity)
	}
	require.NoError(t, db.Create(opportunity).Error)
	return opportunity
}
