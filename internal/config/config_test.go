package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("METEOFRANCE_API_KEY", testAPIKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testAPIKey, cfg.APIKey)
	assert.Empty(t, cfg.ApplicationID)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.MaxRetries)
	assert.Zero(t, cfg.BreakerThreshold)
	assert.Empty(t, cfg.TempDir)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "vigilance-levels", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("METEOFRANCE_APPLICATION_ID", "Y2xpZW50OnNlY3JldA==")
	t.Setenv("METEOFRANCE_BASE_URL", "http://localhost:9000/public/")
	t.Setenv("METEOFRANCE_TIMEOUT", "5s")
	t.Setenv("METEOFRANCE_MAX_RETRIES", "3")
	t.Setenv("METEOFRANCE_BREAKER_THRESHOLD", "5")
	t.Setenv("VIGILANCE_TEMP_DIR", "/var/tmp/vigilance")
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Y2xpZW50OnNlY3JldA==", cfg.ApplicationID)
	assert.Equal(t, "http://localhost:9000/public/", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, uint32(5), cfg.BreakerThreshold)
	assert.Equal(t, "/var/tmp/vigilance", cfg.TempDir)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_RequiresCredential(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METEOFRANCE_APPLICATION_ID")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"METEOFRANCE_TIMEOUT", "bad"},
		{"METEOFRANCE_TIMEOUT", "0s"},
		{"POLL_INTERVAL", "-5m"},
		{"METEOFRANCE_MAX_RETRIES", "-1"},
		{"METEOFRANCE_MAX_RETRIES", "11"},
		{"METEOFRANCE_MAX_RETRIES", "three"},
		{"METEOFRANCE_BREAKER_THRESHOLD", "1000"},
		{"KAFKA_BROKERS", " , "},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("METEOFRANCE_API_KEY", testAPIKey)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("METEOFRANCE_API_KEY=from-dotenv\nPOLL_INTERVAL=2m\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("POLL_INTERVAL", "3m")
	// godotenv sets variables directly; make sure they are restored.
	t.Setenv("METEOFRANCE_API_KEY", "")
	require.NoError(t, os.Unsetenv("METEOFRANCE_API_KEY"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.APIKey)
	assert.Equal(t, 3*time.Minute, cfg.PollInterval, "environment wins over .env")
}
