package notification

import (
	"errors"
	"strconv"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/eduoppbot/eduoppbot/services"
	"github.com/eduoppbot/eduoppbot/utils/response"
	"github.com/eduoppbot/eduoppbot/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles delivery-log and dispatch endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
	validator           *validation.Validator
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validation.NewValidator(),
	}
}

type sendAlertPayload struct {
	OpportunityID uint   `json:"opportunity_id" validate:"required"`
	UserIDs       []uint `json:"user_ids"`
}

type markReadPayload struct {
	NotificationIDs []uint `json:"notification_ids" validate:"required,min=1"`
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// SendAlert handles POST /api/v1/notifications/alert
func (h *NotificationHandler) SendAlert(c *fiber.Ctx) error {
	var payload sendAlertPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(payload); err != nil {
		return response.ValidationError(c, err)
	}

	err := h.notificationService.SendOpportunityAlert(c.Context(), payload.OpportunityID, payload.UserIDs)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Opportunity not found")
		}
		return response.InternalServerError(c, "Failed to dispatch alert")
	}
	return response.SuccessWithMessage(c, "Alert dispatched", nil)
}

// GetUserNotifications handles GET /api/v1/users/:id/notifications
func (h *NotificationHandler) GetUserNotifications(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	notifications, total, err := h.notificationService.GetUserNotifications(c.Context(), services.ListNotificationsOptions{
		UserID: userID,
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch notifications")
	}

	records := make([]model.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		records = append(records, notifications[i].ToResponse())
	}
	return response.Success(c, fiber.Map{
		"notifications": records,
		"total":         total,
	})
}

// MarkRead handles POST /api/v1/users/:id/notifications/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var payload markReadPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(payload); err != nil {
		return response.ValidationError(c, err)
	}

	updated, err := h.notificationService.MarkNotificationsRead(c.Context(), userID, payload.NotificationIDs)
	if err != nil {
		return response.InternalServerError(c, "Failed to mark notifications read")
	}
	return response.Success(c, fiber.Map{"updated": updated})
}
