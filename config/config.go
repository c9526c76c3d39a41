package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV says we are deployed
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Redis Configuration
	REDIS_URL string
	// Telegram Bot
	TELEGRAM_BOT_TOKEN string
	// Discord Bot
	DISCORD_BOT_TOKEN string
	// WhatsApp via Twilio
	TWILIO_ACCOUNT_SID     string
	TWILIO_AUTH_TOKEN      string
	TWILIO_WHATSAPP_NUMBER string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Bot credentials; a missing credential disables only that channel
		TELEGRAM_BOT_TOKEN:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DISCORD_BOT_TOKEN:      os.Getenv("DISCORD_BOT_TOKEN"),
		TWILIO_ACCOUNT_SID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TWILIO_AUTH_TOKEN:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TWILIO_WHATSAPP_NUMBER: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}

	return envVariables, nil
}
