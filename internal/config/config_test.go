package config_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"rice-mill/internal/config"
	"rice-mill/internal/core"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(env(nil))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.ServerPort)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("Expected info/json logging, got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ReportCacheTTL != 30*time.Second {
		t.Errorf("Expected 30s cache TTL, got %v", cfg.ReportCacheTTL)
	}
	if cfg.OutboxBatchSize != 100 || cfg.OutboxMaxAttempts != 10 {
		t.Errorf("Expected batch 100 and 10 attempts, got %d and %d", cfg.OutboxBatchSize, cfg.OutboxMaxAttempts)
	}
	if cfg.OutboxBaseBackoff != 5*time.Second || cfg.OutboxMaxBackoff != 10*time.Minute {
		t.Errorf("Unexpected backoff window %v..%v", cfg.OutboxBaseBackoff, cfg.OutboxMaxBackoff)
	}
	if cfg.PubSubTopic != "rice-mill-events" {
		t.Errorf("Expected default topic, got %q", cfg.PubSubTopic)
	}
	if cfg.DefaultGodown != "Main Godown" {
		t.Errorf("Expected Main Godown, got %q", cfg.DefaultGodown)
	}
	if cfg.Units.BagSizeKg != 50 {
		t.Errorf("Expected 50 kg bags, got %d", cfg.Units.BagSizeKg)
	}
	if !cfg.Units.BagsPerTon.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected 20 bags per ton, got %s", cfg.Units.BagsPerTon)
	}
	if !cfg.Units.TonsPerBag.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("Expected 0.05 tons per bag, got %s", cfg.Units.TonsPerBag)
	}
}

func TestFromEnv_Units(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{"MILL_BAG_SIZE_KG": "25"}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if !cfg.Units.BagsPerTon.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected 40 bags per ton for 25 kg bags, got %s", cfg.Units.BagsPerTon)
	}
	if !cfg.Units.TonsPerBag.Equal(decimal.RequireFromString("0.025")) {
		t.Errorf("Expected 0.025 tons per bag, got %s", cfg.Units.TonsPerBag)
	}

	cfg, err = config.FromEnv(env(map[string]string{
		"MILL_BAGS_PER_TON":   "18",
		"REPORT_TONS_PER_BAG": "0.1",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if !cfg.Units.BagsPerTon.Equal(decimal.NewFromInt(18)) {
		t.Errorf("Expected override of 18 bags per ton, got %s", cfg.Units.BagsPerTon)
	}
	if !cfg.Units.TonsPerBag.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("Expected override of 0.1 tons per bag, got %s", cfg.Units.TonsPerBag)
	}
	if bags, _ := core.BagsForTons(decimal.NewFromInt(2), cfg.Units); bags != 36 {
		t.Errorf("Expected the bags-per-ton override to drive milling credits, got %d bags for 2 t", bags)
	}

	cfg, err = config.FromEnv(env(map[string]string{"MILL_BAG_SIZE_KG": "30"}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if bags, rem := core.BagsForTons(decimal.NewFromInt(3), cfg.Units); bags != 100 || !rem.IsZero() {
		t.Errorf("Expected 3 t of 30 kg bags to credit exactly 100 bags, got %d (remainder %s)", bags, rem)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"OUTBOX_BATCH_SIZE", "zero"},
		{"OUTBOX_MAX_ATTEMPTS", "0"},
		{"REPORT_CACHE_TTL_SECONDS", "-3"},
		{"MILL_BAG_SIZE_KG", "1.5"},
		{"MILL_BAGS_PER_TON", "0"},
		{"REPORT_TONS_PER_BAG", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := config.FromEnv(env(map[string]string{tt.key: tt.value}))
			if err == nil {
				t.Fatalf("Expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}

func TestFromEnv_PubSubProjectFallback(t *testing.T) {
	cfg, _ := config.FromEnv(env(map[string]string{"GCP_PROJECT": "legacy", "GOOGLE_CLOUD_PROJECT": "run"}))
	if cfg.PubSubProjectID != "run" {
		t.Errorf("Expected GOOGLE_CLOUD_PROJECT to win over GCP_PROJECT, got %q", cfg.PubSubProjectID)
	}
	cfg, _ = config.FromEnv(env(map[string]string{"PUBSUB_PROJECT_ID": "explicit", "GOOGLE_CLOUD_PROJECT": "run"}))
	if cfg.PubSubProjectID != "explicit" {
		t.Errorf("Expected explicit project, got %q", cfg.PubSubProjectID)
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := config.NewLogger("debug", "json")
	logger.SetOutput(&buf)

	config.LogError(logger, "sales", "CreateSale", "debit stock", map[string]int{"bags": 3}, errors.New("boom"))

	out := buf.String()
	for _, want := range []string{`"module":"sales"`, `"funcName":"CreateSale"`, `"msg":"boom"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in log line, got %s", want, out)
		}
	}
}

func TestNewLogger_UnknownLevel(t *testing.T) {
	logger := config.NewLogger("loud", "text")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level fallback, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Expected text formatter, got %T", logger.Formatter)
	}
}
