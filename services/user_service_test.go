package services

import (
	"context"
	"testing"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDefaults(t *testing.T) {
	db := newTestDB(t)
	service := NewUserService(db)

	user, err := service.CreateUser(context.Background(), CreateUserRequest{
		FirstName: "Amina",
		UserType:  model.UserTypeStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, user.Status)
	assert.Equal(t, "en", user.Language)
}

func TestUpdateUserPartial(t *testing.T) {
	db := newTestDB(t)
	service := NewUserService(db)
	user := createTestUser(t, db, "Amina")

	lastName := "Diallo"
	updated, err := service.UpdateUser(context.Background(), user.ID, UpdateUserRequest{
		LastName: &lastName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Amina", updated.FirstName)
	assert.Equal(t, "Diallo", updated.LastName)

	_, err = service.UpdateUser(context.Background(), 9999, UpdateUserRequest{LastName: &lastName})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUserSoftDeletes(t *testing.T) {
	db := newTestDB(t)
	service := NewUserService(db)
	user := createTestUser(t, db, "Amina")

	require.NoError(t, service.DeleteUser(context.Background(), user.ID))

	var row model.User
	require.NoError(t, db.First(&row, user.ID).Error)
	assert.Equal(t, model.StatusDeleted, row.Status)

	err := service.DeleteUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddPlatformRejectsDuplicateAddress(t *testing.T) {
	db := newTestDB(t)
	service := NewUserService(db)
	first := createTestUser(t, db, "Amina")
	second := createTestUser(t, db, "Kwame")

	binding, err := service.AddPlatform(context.Background(), first.ID, AddPlatformRequest{
		Platform:       model.PlatformTelegram,
		PlatformUserID: "12345",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, binding.Status)

	// Same address on the same platform cannot back a second active binding
	_, err = service.AddPlatform(context.Background(), second.ID, AddPlatformRequest{
		Platform:       model.PlatformTelegram,
		PlatformUserID: "12345",
	})
	assert.ErrorIs(t, err, ErrDuplicateBinding)

	// The same address on a different platform is a different identity
	_, err = service.AddPlatform(context.Background(), second.ID, AddPlatformRequest{
		Platform:       model.PlatformDiscord,
		PlatformUserID: "12345",
	})
	require.NoError(t, err)
}

func TestGetUserByPlatform(t *testing.T) {
	db := newTestDB(t)
	service := NewUserService(db)
	user := createTestUser(t, db, "Amina")

	_, err := service.AddPlatform(context.Background(), user.ID, AddPlatformRequest{
		Platform:       model.PlatformTelegram,
		PlatformUserID: "12345",
	})
	require.NoError(t, err)

	resolved, err := service.GetUserByPlatform(context.Background(), model.PlatformTelegram, "12345")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = service.GetUserByPlatform(context.Background(), model.PlatformDiscord, "12345")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetPreferencesReplacesInFull(t *testing.T) {
	db := newTestDB(t)
	service := NewUserService(db)
	user := createTestUser(t, db, "Amina")

	// Never set yet
	_, err := service.GetPreferences(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := service.SetPreferences(context.Background(), user.ID, PreferencesRequest{
		Interests:    []string{"stem", "women"},
		FieldOfStudy: "computer science",
		Location:     "Nairobi",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FrequencyDaily, first.NotificationFrequency)

	// Second set replaces everything, including fields left empty
	second, err := service.SetPreferences(context.Background(), user.ID, PreferencesRequest{
		Interests:             []string{"arts"},
		NotificationFrequency: model.FrequencyWeekly,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"arts"}, []string(second.Interests))
	assert.Empty(t, second.FieldOfStudy)
	assert.Empty(t, second.Location)
	assert.Equal(t, model.FrequencyWeekly, second.NotificationFrequency)

	var count int64
	require.NoError(t, db.Model(&model.UserPreferences{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
