package app

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/eduoppbot/eduoppbot/api"
	"github.com/eduoppbot/eduoppbot/channels"
	"github.com/eduoppbot/eduoppbot/config"
	"github.com/eduoppbot/eduoppbot/database"
	"github.com/eduoppbot/eduoppbot/router"
	"github.com/eduoppbot/eduoppbot/services"
	"github.com/eduoppbot/eduoppbot/services/cron"
	"github.com/eduoppbot/eduoppbot/utils/cache"
	"gorm.io/gorm"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		store.Close()
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Redis is optional; without it the duplicate-alert guard is disabled
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Duplicate-alert suppression will be disabled.", err)
		}
	}

	// Build the platform channels; unconfigured ones stay registered but
	// report unavailable so dispatches degrade instead of crashing
	whatsapp := channels.NewWhatsAppChannel(
		getEnv.TWILIO_ACCOUNT_SID,
		getEnv.TWILIO_AUTH_TOKEN,
		getEnv.TWILIO_WHATSAPP_NUMBER,
	)
	registry := channels.NewRegistry(
		channels.NewTelegramChannel(getEnv.TELEGRAM_BOT_TOKEN),
		channels.NewDiscordChannel(getEnv.DISCORD_BOT_TOKEN),
		whatsapp,
	)
	registry.StartAll()

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		recommendationService := services.NewRecommendationService(db)
		notificationService := services.NewNotificationService(db, registry, recommendationService, redisCache)

		cronManager = cron.NewCronManager(db, notificationService)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer stopping cron jobs, channels, cache and DB
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		registry.StopAll()
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store, router.Dependencies{
		Registry:   registry,
		WhatsApp:   whatsapp,
		RedisCache: redisCache,
	})

	// Get the PORT & Start the Server
	return server.Run()
}
