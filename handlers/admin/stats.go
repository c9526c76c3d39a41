package admin

import (
	"github.com/eduoppbot/eduoppbot/services"
	"github.com/eduoppbot/eduoppbot/utils/response"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the platform statistics dashboard
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.adminService.GetPlatformStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute statistics")
	}
	return response.Success(c, stats)
}
