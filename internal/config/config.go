// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	TelegramToken     string
	GitHubToken       string
	PollInterval      time.Duration
	PollConcurrency   int
	NotifyOnFirstSeen bool
	ListenAddr        string
	DBPath            string
}

// Load reads configuration from environment variables and returns a validated
// Config. COMMITWATCH_TELEGRAM_TOKEN is required. COMMITWATCH_GITHUB_TOKEN is
// optional; without it GitHub queries run unauthenticated at a lower rate
// limit. Optional variables with defaults: COMMITWATCH_POLL_INTERVAL (1m),
// COMMITWATCH_POLL_CONCURRENCY (4), COMMITWATCH_NOTIFY_ON_FIRST_SEEN (false),
// COMMITWATCH_LISTEN_ADDR (127.0.0.1:8080), COMMITWATCH_DB_PATH (commitwatch.db).
func Load() (*Config, error) {
	telegramToken := os.Getenv("COMMITWATCH_TELEGRAM_TOKEN")
	if telegramToken == "" {
		return nil, fmt.Errorf("COMMITWATCH_TELEGRAM_TOKEN is required")
	}

	githubToken := os.Getenv("COMMITWATCH_GITHUB_TOKEN")

	pollInterval := 1 * time.Minute
	if v, ok := os.LookupEnv("COMMITWATCH_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("COMMITWATCH_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("COMMITWATCH_POLL_INTERVAL must be positive, got %q", v)
		}
		pollInterval = parsed
	}

	pollConcurrency := 4
	if v, ok := os.LookupEnv("COMMITWATCH_POLL_CONCURRENCY"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("COMMITWATCH_POLL_CONCURRENCY must be a positive integer, got %q", v)
		}
		pollConcurrency = parsed
	}

	notifyOnFirstSeen := false
	if v, ok := os.LookupEnv("COMMITWATCH_NOTIFY_ON_FIRST_SEEN"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COMMITWATCH_NOTIFY_ON_FIRST_SEEN must be a boolean, got %q", v)
		}
		notifyOnFirstSeen = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("COMMITWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "commitwatch.db"
	if v, ok := os.LookupEnv("COMMITWATCH_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		TelegramToken:     telegramToken,
		GitHubToken:       githubToken,
		PollInterval:      pollInterval,
		PollConcurrency:   pollConcurrency,
		NotifyOnFirstSeen: notifyOnFirstSeen,
		ListenAddr:        listenAddr,
		DBPath:            dbPath,
	}, nil
}
