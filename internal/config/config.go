package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the ledger submitter.
type Config struct {
	App       AppConfig
	RPC       RPCConfig
	Wallet    WalletConfig
	Channels  ChannelsConfig
	Execution ExecutionConfig
	Kafka     KafkaConfig
	Worker    WorkerConfig
	Metrics   MetricsConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// RPCConfig defines the generic network endpoint used by the direct
// fallback and the payload builder.
type RPCConfig struct {
	Endpoint string
}

// WalletConfig stores the signing key material.
type WalletConfig struct {
	PrivateKey string
}

// JitoConfig holds the bundler channel settings.
type JitoConfig struct {
	Enabled        bool
	BlockEngineURL string
	TipAccount     string
	TipLamports    uint64
}

// BloxrouteConfig holds the relay channel settings.
type BloxrouteConfig struct {
	Enabled     bool
	Endpoint    string
	AuthHeader  string
	TipLamports uint64
}

// HeliusConfig holds the staked-RPC channel settings.
type HeliusConfig struct {
	Enabled     bool
	Endpoint    string
	TipLamports uint64
}

// ChannelsConfig enumerates the supported acceptance channels.
type ChannelsConfig struct {
	Jito      JitoConfig
	Bloxroute BloxrouteConfig
	Helius    HeliusConfig
}

// ExecutionConfig controls engine racing, fallback and probing behaviour.
type ExecutionConfig struct {
	MaxRetries          int
	BaseDelayMs         int
	OverallTimeoutMs    int
	SubmitTimeoutMs     int
	HealthTimeoutMs     int
	PriorityFeeLamports uint64
}

// KafkaConfig defines broker information and the submission topics.
type KafkaConfig struct {
	Brokers       []string
	RequestTopic  string
	StatusTopic   string
	DLQTopic      string
	ConsumerGroup string
}

// WorkerConfig bounds the submission worker.
type WorkerConfig struct {
	Concurrency int
	MsgMaxBytes int
}

// MetricsConfig controls the metrics/health HTTP listener.
type MetricsConfig struct {
	Port int
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.RPC.Endpoint = ldr.getString("RPC_ENDPOINT", "", true)
	cfg.Wallet.PrivateKey = ldr.getString("WALLET_PRIVATE_KEY", "", true)

	cfg.Channels.Jito.Enabled = ldr.getBool("JITO_ENABLED", false, false)
	cfg.Channels.Jito.BlockEngineURL = ldr.getString("JITO_BLOCK_ENGINE_URL", "", cfg.Channels.Jito.Enabled)
	cfg.Channels.Jito.TipAccount = ldr.getString("JITO_TIP_ACCOUNT", "", cfg.Channels.Jito.Enabled)
	cfg.Channels.Jito.TipLamports = ldr.getUint64("JITO_TIP_LAMPORTS", 10000, false)

	cfg.Channels.Bloxroute.Enabled = ldr.getBool("BLOXROUTE_ENABLED", false, false)
	cfg.Channels.Bloxroute.Endpoint = ldr.getString("BLOXROUTE_ENDPOINT", "", cfg.Channels.Bloxroute.Enabled)
	cfg.Channels.Bloxroute.AuthHeader = ldr.getString("BLOXROUTE_AUTH_HEADER", "", cfg.Channels.Bloxroute.Enabled)
	cfg.Channels.Bloxroute.TipLamports = ldr.getUint64("BLOXROUTE_TIP_LAMPORTS", 10000, false)

	cfg.Channels.Helius.Enabled = ldr.getBool("HELIUS_ENABLED", false, false)
	cfg.Channels.Helius.Endpoint = ldr.getString("HELIUS_ENDPOINT", "", cfg.Channels.Helius.Enabled)
	cfg.Channels.Helius.TipLamports = ldr.getUint64("HELIUS_TIP_LAMPORTS", 0, false)

	cfg.Execution.MaxRetries = ldr.getInt("MAX_RETRIES", 3, false)
	cfg.Execution.BaseDelayMs = ldr.getInt("BASE_DELAY_MS", 1000, false)
	cfg.Execution.OverallTimeoutMs = ldr.getInt("OVERALL_TIMEOUT_MS", 10000, false)
	cfg.Execution.SubmitTimeoutMs = ldr.getInt("SUBMIT_TIMEOUT_MS", 5000, false)
	cfg.Execution.HealthTimeoutMs = ldr.getInt("HEALTH_TIMEOUT_MS", 2000, false)
	cfg.Execution.PriorityFeeLamports = ldr.getUint64("PRIORITY_FEE_LAMPORTS", 5000, false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", true)
	cfg.Kafka.RequestTopic = ldr.getString("KAFKA_SUBMIT_REQUEST_TOPIC", "", true)
	cfg.Kafka.StatusTopic = ldr.getString("KAFKA_SUBMIT_STATUS_TOPIC", "", true)
	cfg.Kafka.DLQTopic = ldr.getString("KAFKA_SUBMIT_DLQ_TOPIC", "", true)
	cfg.Kafka.ConsumerGroup = ldr.getString("SUBMIT_CONSUMER_GROUP", "", true)

	cfg.Worker.Concurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)
	cfg.Worker.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 65536, false)

	cfg.Metrics.Port = ldr.getInt("METRICS_PORT", 9091, false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getUint64(key string, def uint64, required bool) uint64 {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	u, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid unsigned integer", key))
		return def
	}
	return u
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
