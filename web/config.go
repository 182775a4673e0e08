// Package web serves the job aggregator frontend: page controllers, the
// route guard, and the per-browser session registry that keeps each
// visitor's backend credential server-side.
package web

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the frontend server.
type Config struct {
	Port           string
	BackendURL     string
	RedisURL       string // optional; empty means in-memory sessions
	ViewsDir       string
	SessionTTL     time.Duration // idle eviction + redis key TTL
	KeepAliveSpec  string        // cron spec for the backend health ping; empty disables
	RequestTimeout time.Duration
}

// LoadConfig reads environment variables and returns a validated Config.
// Fail-fast: a missing BACKEND_URL is a deploy mistake, not a runtime state.
func LoadConfig() (*Config, error) {
	backend := os.Getenv("BACKEND_URL")
	if backend == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	views := os.Getenv("VIEWS_DIR")
	if views == "" {
		views = "./views"
	}

	ttl := 24 * time.Hour
	if s := os.Getenv("SESSION_TTL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer, got %q", s)
		}
		ttl = time.Duration(v) * time.Hour
	}

	keepAlive := os.Getenv("KEEPALIVE_SPEC")
	if keepAlive == "" {
		keepAlive = "@every 10m"
	}
	if keepAlive == "off" {
		keepAlive = ""
	}

	timeout := 30 * time.Second
	if s := os.Getenv("REQUEST_TIMEOUT_SECONDS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be a positive integer, got %q", s)
		}
		timeout = time.Duration(v) * time.Second
	}

	return &Config{
		Port:           port,
		BackendURL:     backend,
		RedisURL:       os.Getenv("REDIS_URL"),
		ViewsDir:       views,
		SessionTTL:     ttl,
		KeepAliveSpec:  keepAlive,
		RequestTimeout: timeout,
	}, nil
}
