package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend selectors.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all service settings, populated from environment variables.
// Both binaries share the struct; Load validates the ingestion service's
// slice of it and LoadListener the listener's.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Storage sink selection.
	StorageBackend string
	AlertsFilePath string
	SQLiteDSN      string

	// Kafka fan-out of stored records (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Channel gateway credentials and identifiers (listener only).
	ChannelAppID   string
	ChannelAppHash string
	ChannelAccount string
	ChannelName    string
	GatewayURL     string

	// Relay to the ingestion endpoint (listener only).
	IngestURL     string
	RelayTimeout  time.Duration
	QueueSize     int
	BackfillLimit int
}

// Load reads configuration for the ingestion service, applying defaults
// where unset. Missing or invalid required settings are fatal.
func Load() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	switch cfg.StorageBackend {
	case BackendFile:
		if cfg.AlertsFilePath == "" {
			return nil, errors.New("ALERTS_FILE is required for the file backend")
		}
	case BackendSQLite:
		if cfg.SQLiteDSN == "" {
			return nil, errors.New("SQLITE_DSN is required for the sqlite backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want %q or %q)", cfg.StorageBackend, BackendFile, BackendSQLite)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
		}
	}

	return cfg, nil
}

// LoadListener reads configuration for the channel listener. Every gateway
// credential and identifier is required; all missing variables are reported
// together so one restart fixes the lot.
func LoadListener() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, v := range []struct{ name, value string }{
		{"CHANNEL_APP_ID", cfg.ChannelAppID},
		{"CHANNEL_APP_HASH", cfg.ChannelAppHash},
		{"CHANNEL_ACCOUNT", cfg.ChannelAccount},
		{"CHANNEL_NAME", cfg.ChannelName},
		{"CHANNEL_GATEWAY_URL", cfg.GatewayURL},
		{"INGEST_URL", cfg.IngestURL},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.QueueSize <= 0 {
		return nil, errors.New("invalid LISTENER_QUEUE_SIZE")
	}
	if cfg.BackfillLimit <= 0 {
		return nil, errors.New("invalid BACKFILL_LIMIT")
	}

	return cfg, nil
}

func loadCommon() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	relayTimeout, err := parseDuration("RELAY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	queueSize, err := parseInt("LISTENER_QUEUE_SIZE", 64)
	if err != nil {
		return nil, err
	}
	backfillLimit, err := parseInt("BACKFILL_LIMIT", 100)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	return &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StorageBackend: envOrDefault("STORAGE_BACKEND", BackendFile),
		AlertsFilePath: envOrDefault("ALERTS_FILE", "data/all_messages.json"),
		SQLiteDSN:      envOrDefault("SQLITE_DSN", "file:weather_alerts.db"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "stored-weather-alerts"),

		ChannelAppID:   os.Getenv("CHANNEL_APP_ID"),
		ChannelAppHash: os.Getenv("CHANNEL_APP_HASH"),
		ChannelAccount: os.Getenv("CHANNEL_ACCOUNT"),
		ChannelName:    os.Getenv("CHANNEL_NAME"),
		GatewayURL:     os.Getenv("CHANNEL_GATEWAY_URL"),

		IngestURL:     os.Getenv("INGEST_URL"),
		RelayTimeout:  relayTimeout,
		QueueSize:     queueSize,
		BackfillLimit: backfillLimit,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
