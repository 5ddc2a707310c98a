package calendarclient

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL string

	Timeout time.Duration

	RetryCount int
	RetryDelay time.Duration

	RateLimit int // requests per minute
	RateBurst int

	CacheSize int
	CacheTTL  time.Duration

	CircuitBreakerEnabled bool
	CBMinRequests         int
	CBFailureThreshold    int
	CBHalfOpenMaxSuccess  int
	CBSamplingDuration    time.Duration
	CBRecoveryTime        time.Duration
}

func LoadFromEnv() Config {
	return Config{
		BaseURL: envStr("CALENDAR_API_BASE_URL", "https://calendar.nido.dev/v3"),

		Timeout: envDuration("CALENDAR_API_TIMEOUT", 10*time.Second),

		RetryCount: envInt("CALENDAR_API_RETRY_COUNT", 2),
		RetryDelay: envDuration("CALENDAR_API_RETRY_DELAY", 500*time.Millisecond),

		RateLimit: envInt("CALENDAR_API_RATE_LIMIT", 300),
		RateBurst: envInt("CALENDAR_API_RATE_BURST", 10),

		CacheSize: envInt("CALENDAR_API_CACHE_SIZE", 128),
		CacheTTL:  envDuration("CALENDAR_API_CACHE_TTL", 5*time.Minute),

		CircuitBreakerEnabled: envBool("CALENDAR_API_CB_ENABLED", true),
		CBMinRequests:         envInt("CALENDAR_API_CB_MIN_REQUESTS", 10),
		CBFailureThreshold:    envInt("CALENDAR_API_CB_FAILURE_THRESHOLD", 5),
		CBHalfOpenMaxSuccess:  envInt("CALENDAR_API_CB_HALF_OPEN_MAX", 2),
		CBSamplingDuration:    envDuration("CALENDAR_API_CB_SAMPLING", time.Minute),
		CBRecoveryTime:        envDuration("CALENDAR_API_CB_RECOVERY", 30*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
