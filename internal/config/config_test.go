package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every COMMITWATCH_ env var that Load() reads.
var allConfigKeys = []string{
	"COMMITWATCH_TELEGRAM_TOKEN",
	"COMMITWATCH_GITHUB_TOKEN",
	"COMMITWATCH_POLL_INTERVAL",
	"COMMITWATCH_POLL_CONCURRENCY",
	"COMMITWATCH_NOTIFY_ON_FIRST_SEEN",
	"COMMITWATCH_LISTEN_ADDR",
	"COMMITWATCH_DB_PATH",
}

// isolateConfigEnv saves and unsets all COMMITWATCH_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev instance).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COMMITWATCH_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("COMMITWATCH_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("COMMITWATCH_POLL_INTERVAL", "10m")
	t.Setenv("COMMITWATCH_POLL_CONCURRENCY", "8")
	t.Setenv("COMMITWATCH_NOTIFY_ON_FIRST_SEEN", "true")
	t.Setenv("COMMITWATCH_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("COMMITWATCH_DB_PATH", "/tmp/test.db")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "123456:test-token", cfg.TelegramToken)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, 8, cfg.PollConcurrency)
	assert.True(t, cfg.NotifyOnFirstSeen)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COMMITWATCH_TELEGRAM_TOKEN", "123456:test-token")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.GitHubToken)
	assert.Equal(t, 1*time.Minute, cfg.PollInterval)
	assert.Equal(t, 4, cfg.PollConcurrency)
	assert.False(t, cfg.NotifyOnFirstSeen)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "commitwatch.db", cfg.DBPath)
}

func TestLoad_MissingTelegramToken(t *testing.T) {
	isolateConfigEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COMMITWATCH_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("COMMITWATCH_POLL_INTERVAL", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativePollInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COMMITWATCH_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("COMMITWATCH_POLL_INTERVAL", "-5m")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COMMITWATCH_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("COMMITWATCH_POLL_CONCURRENCY", "0")

	_, err := Load()
	assert.Error(t, err)
}
