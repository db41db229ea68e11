// Package config loads the recognized options from the environment into one
// immutable struct; components receive the pieces they need at construction.
package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

// Config is the full configuration surface of the service.
type Config struct {
	HTTPAddr string

	// Page-automation collaborator.
	AutomationURL     string
	AutomationTimeout time.Duration
	AutomationRate    float64 // searches per second against the site

	// Retry state machine.
	MaxDateWindows         int
	PhaseAttempts          int
	RetryDelay             time.Duration
	NonRefundableGraceDays int

	// Result shaping.
	MaxPromociones       int
	MaxOpcionesBaratas   int
	CorrelationThreshold float64

	// Quote store.
	RedisAddr string
	QuoteTTL  time.Duration

	// Delivery. Empty token falls back to log-only delivery.
	TelegramToken string

	QueueSize int
}

// Load reads the environment, applying defaults for anything unset.
func Load() Config {
	return Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		AutomationURL:     getEnv("AUTOMATION_URL", "http://localhost:9001"),
		AutomationTimeout: time.Duration(cast.ToInt(getEnv("AUTOMATION_TIMEOUT_SECONDS", "90"))) * time.Second,
		AutomationRate:    cast.ToFloat64(getEnv("AUTOMATION_RATE_PER_SEC", "0.5")),

		MaxDateWindows:         cast.ToInt(getEnv("MAX_DATE_WINDOWS", "3")),
		PhaseAttempts:          cast.ToInt(getEnv("PHASE_ATTEMPTS", "3")),
		RetryDelay:             time.Duration(cast.ToInt(getEnv("RETRY_DELAY_SECONDS", "2"))) * time.Second,
		NonRefundableGraceDays: cast.ToInt(getEnv("NON_REFUNDABLE_GRACE_DAYS", "14")),

		MaxPromociones:       cast.ToInt(getEnv("MAX_PROMOCIONES", "5")),
		MaxOpcionesBaratas:   cast.ToInt(getEnv("MAX_OPCIONES_BARATAS", "5")),
		CorrelationThreshold: cast.ToFloat64(getEnv("CORRELATION_CONFIDENCE_THRESHOLD", "0.85")),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		QuoteTTL:  time.Duration(cast.ToInt(getEnv("QUOTE_TTL_HOURS", "72"))) * time.Hour,

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		QueueSize: cast.ToInt(getEnv("QUEUE_SIZE", "16")),
	}
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
