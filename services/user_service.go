package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eduoppbot/eduoppbot/model"
	"gorm.io/gorm"
)

// UserService handles users, their platform bindings and preferences
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Email     *string        `json:"email" validate:"omitempty,email"`
	Phone     *string        `json:"phone" validate:"omitempty,min=5,max=20"`
	FirstName string         `json:"first_name" validate:"required,max=100"`
	LastName  string         `json:"last_name" validate:"max=100"`
	UserType  model.UserType `json:"user_type" validate:"required,oneof=student sponsor mentor admin"`
	Language  string         `json:"language" validate:"max=10"`
}

// UpdateUserRequest carries optional user updates; nil fields are left as-is
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,min=5,max=20"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Language  *string `json:"language" validate:"omitempty,max=10"`
}

// AddPlatformRequest binds a user to a platform address
type AddPlatformRequest struct {
	Platform       model.Platform `json:"platform" validate:"required,oneof=telegram discord whatsapp"`
	PlatformUserID string         `json:"platform_user_id" validate:"required,max=255"`
	Username       string         `json:"username" validate:"max=255"`
}

// PreferencesRequest sets or replaces a user's matching profile
type PreferencesRequest struct {
	Interests             []string                    `json:"interests"`
	EducationLevel        string                      `json:"education_level" validate:"max=50"`
	FieldOfStudy          string                      `json:"field_of_study" validate:"max=100"`
	Location              string                      `json:"location" validate:"max=100"`
	NotificationFrequency model.NotificationFrequency `json:"notification_frequency" validate:"omitempty,oneof=immediate daily weekly"`
}

// CreateUser creates a new user
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	language := req.Language
	if language == "" {
		language = "en"
	}

	user := &model.User{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserType:  req.UserType,
		Language:  language,
		Status:    model.StatusActive,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("Created user %d (%s)", user.ID, user.UserType)
	return user, nil
}

// GetUser retrieves a user with platforms and preferences
func (s *UserService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Platforms").
		Preload("Preferences").
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// UpdateUser applies the non-nil fields of req; last write wins
func (s *UserService) UpdateUser(ctx context.Context, userID uint, req UpdateUserRequest) (*model.User, error) {
	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}

	if len(updates) == 0 {
		return s.GetUser(ctx, userID)
	}

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetUser(ctx, userID)
}

// DeleteUser soft deletes a user; the row stays for delivery history
func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND status = ?", userID, model.StatusActive).
		Update("status", model.StatusDeleted)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPlatform binds a platform address to the user. A (platform, address)
// pair can back at most one active binding across all users.
func (s *UserService) AddPlatform(ctx context.Context, userID uint, req AddPlatformRequest) (*model.UserPlatform, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var existing int64
	err := s.db.WithContext(ctx).Model(&model.UserPlatform{}).
		Where("platform = ? AND platform_user_id = ? AND status = ?",
			req.Platform, req.PlatformUserID, model.StatusActive).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check platform binding: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateBinding
	}

	binding := &model.UserPlatform{
		UserID:         userID,
		Platform:       req.Platform,
		PlatformUserID: req.PlatformUserID,
		Username:       req.Username,
		Status:         model.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(binding).Error; err != nil {
		return nil, fmt.Errorf("failed to create platform binding: %w", err)
	}

	log.Printf("Bound user %d to %s address %s", userID, req.Platform, req.PlatformUserID)
	return binding, nil
}

// GetUserByPlatform resolves a user from a platform identity
func (s *UserService) GetUserByPlatform(ctx context.Context, platform model.Platform, platformUserID string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Joins("JOIN user_platforms ON user_platforms.user_id = users.id").
		Where("user_platforms.platform = ? AND user_platforms.platform_user_id = ? AND user_platforms.status = ?",
			platform, platformUserID, model.StatusActive).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user by platform: %w", err)
	}
	return &user, nil
}

// SetPreferences creates the preference row lazily on first call and
// replaces it in full on later calls (last write wins)
func (s *UserService) SetPreferences(ctx context.Context, userID uint, req PreferencesRequest) (*model.UserPreferences, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	frequency := req.NotificationFrequency
	if frequency == "" {
		frequency = model.FrequencyDaily
	}

	var prefs model.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		prefs = model.UserPreferences{
			UserID:                userID,
			Interests:             req.Interests,
			EducationLevel:        req.EducationLevel,
			FieldOfStudy:          req.FieldOfStudy,
			Location:              req.Location,
			NotificationFrequency: frequency,
		}
		if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
			return nil, fmt.Errorf("failed to create preferences: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to fetch preferences: %w", err)
	default:
		prefs.Interests = req.Interests
		prefs.EducationLevel = req.EducationLevel
		prefs.FieldOfStudy = req.FieldOfStudy
		prefs.Location = req.Location
		prefs.NotificationFrequency = frequency
		if err := s.db.WithContext(ctx).Save(&prefs).Error; err != nil {
			return nil, fmt.Errorf("failed to update preferences: %w", err)
		}
	}

	return &prefs, nil
}

// GetPreferences returns the user's preference row, or ErrNotFound when it
// was never set
func (s *UserService) GetPreferences(ctx context.Context, userID uint) (*model.UserPreferences, error) {
	var prefs model.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch preferences: %w", err)
	}
	return &prefs, nil
}
