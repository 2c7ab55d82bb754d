package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig aggregates runtime configuration, injected through environment
// variables so nothing is hardcoded per deployment.
type AppConfig struct {
	HTTPAddr     string
	OrderDBPath  string
	LedgerDBPath string

	RedisAddr string
	RedisDB   int

	// Kafka cluster (comma separated), topic and consumer group for the
	// fulfillment export feed.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox (synchronizer appends, relay forwards to Kafka).
	FulfillmentStream   string
	FulfillmentGroup    string
	FulfillmentConsumer string

	// Status-update endpoint throttle and cache policy.
	SyncRateLimit  int
	SyncRateWindow time.Duration
	SyncStateTTL   time.Duration

	// Pending-marker policy for the reconciliation endpoint.
	PendingMarkerTTL   time.Duration
	PendingMarkerGrace time.Duration

	// Admin token guarding the reconciliation endpoint.
	AdminToken string
}

// Load reads and validates the configuration, falling back to defaults.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		OrderDBPath:         getEnv("ORDER_DB_PATH", "orders.db"),
		LedgerDBPath:        getEnv("LEDGER_DB_PATH", "ledger.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             0,
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "back-office-fulfillments"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "back-office-audit-consumer"),
		FulfillmentStream:   getEnv("FULFILLMENT_STREAM", "back_office:fulfillment_events"),
		FulfillmentGroup:    getEnv("FULFILLMENT_GROUP", "back-office-relay-group"),
		FulfillmentConsumer: getEnv("FULFILLMENT_CONSUMER", "back-office-relay-1"),
		SyncRateLimit:       100,
		SyncRateWindow:      time.Second,
		SyncStateTTL:        24 * time.Hour,
		PendingMarkerTTL:    7 * 24 * time.Hour,
		PendingMarkerGrace:  time.Minute,
		AdminToken:          getEnv("ADMIN_TOKEN", "dev-admin-token"),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("SYNC_RATE_LIMIT", cfg.SyncRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SYNC_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("SYNC_RATE_LIMIT must be > 0")
	}
	cfg.SyncRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("SYNC_RATE_WINDOW_SEC", int(cfg.SyncRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SYNC_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("SYNC_RATE_WINDOW_SEC must be > 0")
	}
	cfg.SyncRateWindow = time.Duration(rateWindowSec) * time.Second

	stateTTLHour, err := getEnvInt("SYNC_STATE_TTL_HOUR", int(cfg.SyncStateTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SYNC_STATE_TTL_HOUR: %w", err)
	}
	if stateTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("SYNC_STATE_TTL_HOUR must be > 0")
	}
	cfg.SyncStateTTL = time.Duration(stateTTLHour) * time.Hour

	graceSec, err := getEnvInt("PENDING_MARKER_GRACE_SEC", int(cfg.PendingMarkerGrace.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid PENDING_MARKER_GRACE_SEC: %w", err)
	}
	if graceSec <= 0 {
		return AppConfig{}, fmt.Errorf("PENDING_MARKER_GRACE_SEC must be > 0")
	}
	cfg.PendingMarkerGrace = time.Duration(graceSec) * time.Second

	if cfg.OrderDBPath == cfg.LedgerDBPath {
		return AppConfig{}, fmt.Errorf("ORDER_DB_PATH and LEDGER_DB_PATH must be separate databases")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.FulfillmentStream == "" {
		return AppConfig{}, fmt.Errorf("FULFILLMENT_STREAM must not be empty")
	}
	if cfg.FulfillmentGroup == "" {
		return AppConfig{}, fmt.Errorf("FULFILLMENT_GROUP must not be empty")
	}
	if cfg.FulfillmentConsumer == "" {
		return AppConfig{}, fmt.Errorf("FULFILLMENT_CONSUMER must not be empty")
	}

	return cfg, nil
}

// getEnv reads a string variable, returning the fallback when empty.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer variable, returning the fallback when empty.
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV parses a comma separated string into a slice.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
