package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rice-mill/internal/core"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is the process configuration read from the environment (and .env when present).
type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string

	LogLevel  string
	LogFormat string // "json" or "text"

	RedisAddress   string // empty disables the report cache and the relay lock
	RedisPassword  string
	ReportCacheTTL time.Duration

	PubSubProjectID       string
	PubSubTopic           string
	PubSubCredentialsJSON string
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxAttempts     int
	OutboxBaseBackoff     time.Duration
	OutboxMaxBackoff      time.Duration

	DefaultGodown string
	Units         core.Units
}

// Load reads .env (if any) and the process environment.
// Unset values fall back to defaults; malformed values are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:           getenv("DATABASE_URL"),
		ServerPort:            withDefault(getenv("SERVER_PORT"), "8080"),
		AllowedOrigins:        getenv("ALLOWED_ORIGINS"),
		LogLevel:              withDefault(getenv("LOG_LEVEL"), "info"),
		LogFormat:             withDefault(getenv("LOG_FORMAT"), "json"),
		RedisAddress:          getenv("REDIS_ADDRESS"),
		RedisPassword:         getenv("REDIS_PASSWORD"),
		PubSubProjectID:       pubSubProjectID(getenv),
		PubSubTopic:           withDefault(getenv("PUBSUB_TOPIC"), "rice-mill-events"),
		PubSubCredentialsJSON: getenv("PUBSUB_CREDENTIALS_JSON"),
		DefaultGodown:         withDefault(strings.TrimSpace(getenv("DEFAULT_GODOWN")), "Main Godown"),
	}

	var err error
	if cfg.ReportCacheTTL, err = seconds(getenv, "REPORT_CACHE_TTL_SECONDS", 30); err != nil {
		return nil, err
	}
	if cfg.OutboxPollInterval, err = seconds(getenv, "OUTBOX_POLL_SECONDS", 5); err != nil {
		return nil, err
	}
	if cfg.OutboxBaseBackoff, err = seconds(getenv, "OUTBOX_BASE_BACKOFF_SECONDS", 5); err != nil {
		return nil, err
	}
	if cfg.OutboxMaxBackoff, err = seconds(getenv, "OUTBOX_MAX_BACKOFF_SECONDS", 600); err != nil {
		return nil, err
	}
	if cfg.OutboxBatchSize, err = positiveInt(getenv, "OUTBOX_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.OutboxMaxAttempts, err = positiveInt(getenv, "OUTBOX_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.Units, err = unitsFromEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// unitsFromEnv derives bag conversions from MILL_BAG_SIZE_KG unless
// MILL_BAGS_PER_TON or REPORT_TONS_PER_BAG override them explicitly.
func unitsFromEnv(getenv func(string) string) (core.Units, error) {
	bagSize, err := positiveInt(getenv, "MILL_BAG_SIZE_KG", core.DefaultBagSizeKg)
	if err != nil {
		return core.Units{}, err
	}
	units := core.UnitsForBagSize(bagSize)

	if v := strings.TrimSpace(getenv("MILL_BAGS_PER_TON")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || !d.IsPositive() {
			return core.Units{}, fmt.Errorf("MILL_BAGS_PER_TON must be a positive number, got %q", v)
		}
		units = units.WithBagsPerTon(d)
	}
	if v := strings.TrimSpace(getenv("REPORT_TONS_PER_BAG")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || !d.IsPositive() {
			return core.Units{}, fmt.Errorf("REPORT_TONS_PER_BAG must be a positive number, got %q", v)
		}
		units.TonsPerBag = d
	}
	return units, nil
}

// pubSubProjectID prefers the explicit override, then the variables Cloud Run sets.
func pubSubProjectID(getenv func(string) string) string {
	for _, key := range []string{"PUBSUB_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCP_PROJECT"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func seconds(getenv func(string) string, key string, def int) (time.Duration, error) {
	n, err := positiveInt(getenv, key, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
