// Package config loads process configuration from environment variables,
// with sensible defaults for everything except the destination webhook URL
// and the admin token.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-tunable knob of the admission pipeline.
type Config struct {
	// HTTP
	ListenAddr string

	// Ingress
	InQueueCapacity       int
	ApprovedQueueCapacity int
	DecisionWorkers       int
	ForwardWorkers        int
	DecisionRetryCap      int

	// Forwarding
	DestWebhookURL     string
	DestWebhookTimeout time.Duration
	RewriteSideToAction bool

	// Outbound rate limit
	MaxRequestsPerMinute int

	// Ranking refresher
	RankingSourceURL   string
	RankingTopN        int
	RefreshIntervalSec int

	// Reprocessing
	ReprocessWindowSeconds        int
	SellChronologyWindowSeconds  int
	RespectSellChronologyEnabled bool
	ReprocessEnabled             bool
	MaxSignalsPerTicker          int
	ReprocessSoftDeadline        time.Duration

	// Admin
	AdminToken string

	// Persistence
	DatabasePath string

	// Shutdown
	ShutdownDrainDeadline time.Duration

	Debug bool
}

// Load reads configuration from the process environment, optionally
// preceded by a ".env" file in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// absence of a .env file is not an error; environment variables
		// set by the deployment platform are the common case
	}

	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		InQueueCapacity:       getEnvInt("IN_QUEUE_CAPACITY", 100_000),
		ApprovedQueueCapacity: getEnvInt("APPROVED_QUEUE_CAPACITY", 100_000),
		DecisionWorkers:       getEnvInt("DECISION_WORKERS", 8),
		ForwardWorkers:        getEnvInt("FORWARD_WORKERS", 8),
		DecisionRetryCap:      getEnvInt("DECISION_RETRY_CAP", 3),

		DestWebhookURL:      os.Getenv("DEST_WEBHOOK_URL"),
		DestWebhookTimeout:  getEnvDuration("DEST_WEBHOOK_TIMEOUT", 5*time.Second),
		RewriteSideToAction: getEnvBool("REWRITE_SIDE_TO_ACTION", false),

		MaxRequestsPerMinute: getEnvInt("MAX_REQ_PER_MIN", 120),

		RankingSourceURL:   getEnv("RANKING_SOURCE_URL", ""),
		RankingTopN:        getEnvInt("RANKING_TOP_N", 50),
		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 60),

		ReprocessWindowSeconds:       getEnvInt("REPROCESS_WINDOW_SECONDS", 3600),
		SellChronologyWindowSeconds: getEnvInt("SELL_CHRONOLOGY_WINDOW_SECONDS", 300),
		RespectSellChronologyEnabled: getEnvBool("RESPECT_SELL_CHRONOLOGY_ENABLED", true),
		ReprocessEnabled:             getEnvBool("REPROCESS_ENABLED", true),
		MaxSignalsPerTicker:          getEnvInt("MAX_SIGNALS_PER_TICKER", 20),
		ReprocessSoftDeadline:        getEnvDuration("REPROCESS_SOFT_DEADLINE", 30*time.Second),

		AdminToken: os.Getenv("ADMIN_TOKEN"),

		DatabasePath: getEnv("DATABASE_PATH", "data/signalgate.db"),

		ShutdownDrainDeadline: getEnvDuration("SHUTDOWN_DRAIN_DEADLINE", 30*time.Second),

		Debug: getEnvBool("DEBUG", false),
	}

	if cfg.DestWebhookURL == "" {
		return nil, fmt.Errorf("DEST_WEBHOOK_URL is required")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1" || v == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
