package router

import (
	"log"

	"github.com/eduoppbot/eduoppbot/channels"
	"github.com/eduoppbot/eduoppbot/database"
	"github.com/eduoppbot/eduoppbot/handlers"
	admin_handlers "github.com/eduoppbot/eduoppbot/handlers/admin"
	notification_handlers "github.com/eduoppbot/eduoppbot/handlers/notification"
	opportunity_handlers "github.com/eduoppbot/eduoppbot/handlers/opportunity"
	user_handlers "github.com/eduoppbot/eduoppbot/handlers/user"
	webhook_handlers "github.com/eduoppbot/eduoppbot/handlers/webhook"
	"github.com/eduoppbot/eduoppbot/services"
	"github.com/eduoppbot/eduoppbot/utils/cache"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Dependencies carries the shared infrastructure the routes are built on.
// The channel registry and cache are constructed by the app bootstrap so
// their lifecycle outlives request handling.
type Dependencies struct {
	Registry   *channels.Registry
	WhatsApp   *channels.WhatsAppChannel
	RedisCache *cache.RedisCache
}

func SetupRoutes(app *fiber.App, store database.Storage, deps Dependencies) {
	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize services
	userService := services.NewUserService(db)
	opportunityService := services.NewOpportunityService(db)
	recommendationService := services.NewRecommendationService(db)
	notificationService := services.NewNotificationService(db, deps.Registry, recommendationService, deps.RedisCache)

	adminService := services.NewAdminService(db)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(store)
	userHandler := user_handlers.NewUserHandler(userService, notificationService)
	opportunityHandler := opportunity_handlers.NewOpportunityHandler(opportunityService, recommendationService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)
	webhookHandler := webhook_handlers.NewWebhookHandler(deps.WhatsApp)
	adminHandler := admin_handlers.NewAdminHandler(adminService)

	// Health check endpoint (public)
	app.Get("/ping", healthHandler.Check)

	// API v1 group
	api := app.Group("/api/v1")

	// Users routes
	users := api.Group("/users")
	users.Post("/", userHandler.CreateUser)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)
	users.Post("/:id/platforms", userHandler.AddPlatform)
	users.Get("/:id/preferences", userHandler.GetPreferences)
	users.Put("/:id/preferences", userHandler.SetPreferences)
	users.Get("/:id/subscriptions", opportunityHandler.GetUserSubscriptions)
	users.Get("/:id/recommendations", opportunityHandler.GetRecommendations)
	users.Get("/:id/notifications", notificationHandler.GetUserNotifications)
	users.Post("/:id/notifications/read", notificationHandler.MarkRead)

	// Opportunities routes
	opportunities := api.Group("/opportunities")
	opportunities.Get("/", opportunityHandler.SearchOpportunities)
	opportunities.Post("/", opportunityHandler.CreateOpportunity)
	opportunities.Get("/:id", opportunityHandler.GetOpportunity)
	opportunities.Put("/:id", opportunityHandler.UpdateOpportunity)
	opportunities.Delete("/:id", opportunityHandler.DeleteOpportunity)
	opportunities.Post("/:id/subscribe", opportunityHandler.Subscribe)
	opportunities.Post("/:id/unsubscribe", opportunityHandler.Unsubscribe)

	// Notification dispatch
	api.Post("/notifications/alert", notificationHandler.SendAlert)

	// Platform webhooks
	webhook := api.Group("/webhooks")
	webhook.Post("/telegram", webhookHandler.Telegram)
	webhook.Post("/discord", webhookHandler.Discord)
	webhook.Post("/whatsapp", webhookHandler.WhatsApp)

	// Admin dashboard
	admin := api.Group("/admin")
	admin.Get("/stats", adminHandler.GetStats)
}
