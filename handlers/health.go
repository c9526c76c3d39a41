package handlers

import (
	"github.com/eduoppbot/eduoppbot/database"
	"github.com/eduoppbot/eduoppbot/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports service and database liveness
type HealthHandler struct {
	store database.Storage
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store database.Storage) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check handles GET /ping
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unreachable")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}
