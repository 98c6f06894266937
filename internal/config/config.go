package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Météo-France API credentials. At least one is required.
	ApplicationID string
	APIKey        string
	Token         string

	BaseURL          string
	RequestTimeout   time.Duration
	MaxRetries       int
	BreakerThreshold uint32

	TempDir      string
	PollInterval time.Duration

	// Kafka publishing is disabled when no broker is configured.
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// KafkaEnabled reports whether level changes should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present; variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parsePositiveDuration("METEOFRANCE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	maxRetries, err := parseIntRange("METEOFRANCE_MAX_RETRIES", 0, 0, 10)
	if err != nil {
		return nil, err
	}
	breakerThreshold, err := parseIntRange("METEOFRANCE_BREAKER_THRESHOLD", 0, 0, 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ApplicationID:    os.Getenv("METEOFRANCE_APPLICATION_ID"),
		APIKey:           os.Getenv("METEOFRANCE_API_KEY"),
		Token:            os.Getenv("METEOFRANCE_TOKEN"),
		BaseURL:          os.Getenv("METEOFRANCE_BASE_URL"),
		RequestTimeout:   requestTimeout,
		MaxRetries:       maxRetries,
		BreakerThreshold: uint32(breakerThreshold), //nolint:gosec // bounded by parseIntRange
		TempDir:          os.Getenv("VIGILANCE_TEMP_DIR"),
		PollInterval:     pollInterval,
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "vigilance-levels"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.ApplicationID == "" && cfg.APIKey == "" && cfg.Token == "" {
		return nil, errors.New("one of METEOFRANCE_APPLICATION_ID, METEOFRANCE_API_KEY or METEOFRANCE_TOKEN is required")
	}
	if os.Getenv("KAFKA_BROKERS") != "" && !cfg.KafkaEnabled() {
		return nil, errors.New("invalid KAFKA_BROKERS: no broker address")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseIntRange(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, lo, hi)
	}
	return n, nil
}
