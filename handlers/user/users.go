package user

import (
	"errors"
	"log"
	"strconv"

	"github.com/eduoppbot/eduoppbot/services"
	"github.com/eduoppbot/eduoppbot/utils/response"
	"github.com/eduoppbot/eduoppbot/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user-related API endpoints
type UserHandler struct {
	userService         *services.UserService
	notificationService *services.NotificationService
	validator           *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, notificationService *services.NotificationService) *UserHandler {
	return &UserHandler{
		userService:         userService,
		notificationService: notificationService,
		validator:           validation.NewValidator(),
	}
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.userService.CreateUser(c.Context(), req)
	if err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}
	return response.Created(c, user)
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}
	return response.Success(c, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req services.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.userService.UpdateUser(c.Context(), userID, req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update user")
	}
	return response.Success(c, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.DeleteUser(c.Context(), userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to delete user")
	}
	return response.SuccessWithMessage(c, "User deleted", nil)
}

// AddPlatform handles POST /api/v1/users/:id/platforms and greets the user
// on the newly bound channel
func (h *UserHandler) AddPlatform(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req services.AddPlatformRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	binding, err := h.userService.AddPlatform(c.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrDuplicateBinding):
			return response.Conflict(c, "Platform address already bound")
		default:
			return response.InternalServerError(c, "Failed to add platform")
		}
	}

	if err := h.notificationService.SendWelcomeMessage(c.Context(), userID); err != nil {
		log.Printf("Welcome message for user %d failed: %v", userID, err)
	}

	return response.Created(c, binding)
}

// SetPreferences handles PUT /api/v1/users/:id/preferences
func (h *UserHandler) SetPreferences(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req services.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	prefs, err := h.userService.SetPreferences(c.Context(), userID, req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to set preferences")
	}
	return response.Success(c, prefs)
}

// GetPreferences handles GET /api/v1/users/:id/preferences
func (h *UserHandler) GetPreferences(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	prefs, err := h.userService.GetPreferences(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Preferences not set")
		}
		return response.InternalServerError(c, "Failed to fetch preferences")
	}
	return response.Success(c, prefs)
}
