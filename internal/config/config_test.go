package config_test

import (
	"strings"
	"testing"

	"github.com/example/ledger-submitter/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_ENDPOINT", "http://localhost:8899")
	t.Setenv("WALLET_PRIVATE_KEY", "base58-secret")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_SUBMIT_REQUEST_TOPIC", "submit.request")
	t.Setenv("KAFKA_SUBMIT_STATUS_TOPIC", "submit.status")
	t.Setenv("KAFKA_SUBMIT_DLQ_TOPIC", "submit.dlq")
	t.Setenv("SUBMIT_CONSUMER_GROUP", "submit-worker")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Env != "development" || cfg.App.LogLevel != "info" {
		t.Fatalf("unexpected app defaults: %+v", cfg.App)
	}
	if cfg.Execution.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", cfg.Execution.MaxRetries)
	}
	if cfg.Execution.BaseDelayMs != 1000 {
		t.Fatalf("expected default base delay 1000ms, got %d", cfg.Execution.BaseDelayMs)
	}
	if cfg.Execution.OverallTimeoutMs != 10000 {
		t.Fatalf("expected default overall timeout 10000ms, got %d", cfg.Execution.OverallTimeoutMs)
	}
	if cfg.Worker.Concurrency != 10 || cfg.Worker.MsgMaxBytes != 65536 {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Worker)
	}
	if cfg.Metrics.Port != 9091 {
		t.Fatalf("expected default metrics port 9091, got %d", cfg.Metrics.Port)
	}
	if cfg.Channels.Jito.Enabled || cfg.Channels.Bloxroute.Enabled || cfg.Channels.Helius.Enabled {
		t.Fatalf("expected all channels disabled by default: %+v", cfg.Channels)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("RPC_ENDPOINT", "")

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for missing rpc endpoint")
	}
	if !strings.Contains(err.Error(), "RPC_ENDPOINT") {
		t.Fatalf("expected offending key named, got %v", err)
	}
}

func TestLoadAccumulatesErrors(t *testing.T) {
	setRequired(t)
	t.Setenv("WALLET_PRIVATE_KEY", "")
	t.Setenv("KAFKA_BROKERS", "")

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"WALLET_PRIVATE_KEY", "KAFKA_BROKERS"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s reported, got %v", key, err)
		}
	}
}

func TestLoadChannelConditionalRequirements(t *testing.T) {
	setRequired(t)
	t.Setenv("JITO_ENABLED", "true")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when bundler enabled without endpoint settings")
	}

	t.Setenv("JITO_BLOCK_ENGINE_URL", "https://block-engine.example")
	t.Setenv("JITO_TIP_ACCOUNT", "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Channels.Jito.Enabled || cfg.Channels.Jito.TipLamports != 10000 {
		t.Fatalf("unexpected bundler config: %+v", cfg.Channels.Jito)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("BASE_DELAY_MS", "250")
	t.Setenv("PRIORITY_FEE_LAMPORTS", "12000")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Execution.MaxRetries != 5 || cfg.Execution.BaseDelayMs != 250 {
		t.Fatalf("unexpected execution config: %+v", cfg.Execution)
	}
	if cfg.Execution.PriorityFeeLamports != 12000 {
		t.Fatalf("expected priority fee override, got %d", cfg.Execution.PriorityFeeLamports)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("expected trimmed broker list, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_RETRIES", "not-a-number")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for malformed integer")
	}
}
