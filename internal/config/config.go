package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// Telegram configuration
	BotToken string `json:"-"`

	// MongoDB configuration
	MongoURI               string `json:"mongo_uri"`
	MongoDatabase          string `json:"mongo_database"`
	VerificationCollection string `json:"mongo_verification_collection"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`

	// Verification configuration
	BaseURL         string        `json:"base_url"`
	HowToVerifyURL  string        `json:"how_to_verify_url"`
	VerificationTTL time.Duration `json:"verification_ttl"`
	LikeCooldown    time.Duration `json:"like_cooldown"`

	// External collaborators
	LikeAPIURL       string        `json:"like_api_url"`
	ShortenerAPIURL  string        `json:"shortener_api_url"`
	ShortenerAPIKey  string        `json:"-"`
	ShortenerTimeout time.Duration `json:"shortener_timeout"`

	// Completion notifier
	NotifierWorkers   int `json:"notifier_workers"`
	NotifierQueueSize int `json:"notifier_queue_size"`

	// Admin diagnostics
	AdminToken string `json:"-"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	verificationTTL, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_TTL: %w", err)
	}

	likeCooldown, err := time.ParseDuration(getEnvOrDefault("LIKE_COOLDOWN", "30s"))
	if err != nil {
		return fmt.Errorf("invalid LIKE_COOLDOWN: %w", err)
	}

	shortenerTimeout, err := time.ParseDuration(getEnvOrDefault("SHORTENER_TIMEOUT", "3s"))
	if err != nil {
		return fmt.Errorf("invalid SHORTENER_TIMEOUT: %w", err)
	}

	notifierWorkers, err := strconv.Atoi(getEnvOrDefault("NOTIFIER_WORKERS", "4"))
	if err != nil {
		return fmt.Errorf("invalid NOTIFIER_WORKERS: %w", err)
	}

	notifierQueueSize, err := strconv.Atoi(getEnvOrDefault("NOTIFIER_QUEUE_SIZE", "256"))
	if err != nil {
		return fmt.Errorf("invalid NOTIFIER_QUEUE_SIZE: %w", err)
	}

	likeAPIURL := getEnvOrDefault("LIKE_API_URL", "https://your-like-api.com/like?uid={uid}")
	if !strings.Contains(likeAPIURL, "{uid}") {
		return fmt.Errorf("LIKE_API_URL must contain a {uid} placeholder")
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// Telegram configuration
		BotToken: botToken,

		// MongoDB configuration
		MongoURI:               getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:          getEnvOrDefault("MONGODB_DATABASE", "likebot"),
		VerificationCollection: getEnvOrDefault("MONGODB_VERIFICATION_COLLECTION", "verifications"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Verification configuration
		BaseURL:         strings.TrimRight(getEnvOrDefault("BASE_URL", "http://localhost:8080"), "/"),
		HowToVerifyURL:  getEnvOrDefault("HOW_TO_VERIFY_URL", "https://your-help-link.com"),
		VerificationTTL: verificationTTL,
		LikeCooldown:    likeCooldown,

		// External collaborators
		LikeAPIURL:       likeAPIURL,
		ShortenerAPIURL:  getEnvOrDefault("SHORTENER_API_URL", "https://shortner.in/api"),
		ShortenerAPIKey:  getEnvOrDefault("SHORTENER_API_KEY", ""),
		ShortenerTimeout: shortenerTimeout,

		// Completion notifier
		NotifierWorkers:   notifierWorkers,
		NotifierQueueSize: notifierQueueSize,

		// Admin diagnostics
		AdminToken: getEnvOrDefault("ADMIN_TOKEN", ""),

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
