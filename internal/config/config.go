package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string
	Port       string

	Environment string

	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// Base64-encoded 32-byte AES key used to encrypt provider tokens at rest.
	TokenEncryptionKey string

	// Queue processing
	QueuePollInterval time.Duration
	QueueBatchSize    int
	QueueMaxAttempts  int

	// Webhook channel lifecycle
	WebhookCallbackURL     string
	ChannelTTL             time.Duration
	ChannelRenewalBuffer   time.Duration
	ChannelRenewalInterval time.Duration

	// Target for calendar events created from chat reactions.
	DefaultIntegrationID int64
	DefaultCalendarID    string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "nido-sync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Port:        getenv("PORT", "8080"),
		Environment: getenv("ENVIRONMENT", "development"),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "nido"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     10,
		DBMaxOpenConn:     100,
		DBConnMaxLifetime: 3600,
		DBConnMaxIdleTime: 60,

		TokenEncryptionKey: strings.TrimSpace(getenv("TOKEN_ENCRYPTION_KEY", "")),

		QueuePollInterval: getenvDuration("QUEUE_POLL_INTERVAL", 2*time.Second),
		QueueBatchSize:    getenvInt("QUEUE_BATCH_SIZE", 10),
		QueueMaxAttempts:  getenvInt("QUEUE_MAX_ATTEMPTS", 3),

		WebhookCallbackURL:     strings.TrimSpace(getenv("WEBHOOK_CALLBACK_URL", "http://localhost:8080/webhooks/calendar")),
		ChannelTTL:             getenvDuration("CHANNEL_TTL", 7*24*time.Hour),
		ChannelRenewalBuffer:   getenvDuration("CHANNEL_RENEWAL_BUFFER", 24*time.Hour),
		ChannelRenewalInterval: getenvDuration("CHANNEL_RENEWAL_INTERVAL", time.Hour),

		DefaultIntegrationID: int64(getenvInt("DEFAULT_INTEGRATION_ID", 0)),
		DefaultCalendarID:    getenv("DEFAULT_CALENDAR_ID", "primary"),
	}

	return &cfg
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid int for %s: %q, using %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using %s", key, raw, fallback)
		return fallback
	}
	return value
}
