package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server Settings
	AppPort     string
	HOST        string
	DatabaseURL string

	// JWT Settings
	JWTSecret     string
	JWTExpiration string

	// Messaging Settings
	AllowSelfMessaging bool
	InboxPollInterval  time.Duration

	// Upload Settings
	UploadDir string
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		AppPort:     getEnv("PORT", "3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HOST:        getEnv("HOST", "0.0.0.0"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTExpiration: getEnv("JWT_EXPIRES_IN", "72h"),

		AllowSelfMessaging: getEnv("MESSAGING_ALLOW_SELF", "false") == "true",
		InboxPollInterval:  getDuration("INBOX_POLL_INTERVAL", 60*time.Second),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads/products"),
	}

	return config
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s %q, using %s", key, value, fallback)
		return fallback
	}
	return parsed
}
