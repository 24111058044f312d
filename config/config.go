// Package config provides production-grade configuration management for the
// proxy engine. It loads tunables from the process environment with safe
// defaults, as spec.md §6 requires.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all tunable parameters for the engine. The struct is loaded
// once at startup and shared across goroutines as a read-only value.
type Config struct {
	// APIKey is compared against the caller's X-API-Key header on every
	// route except /health and /metrics. No default is intended for production: an empty
	// value means the auth middleware rejects every request.
	APIKey string

	// SessionTTL is the idle duration after which a registered session is
	// evicted by the sweeper.
	SessionTTL time.Duration

	// MaxSessions bounds the session registry's size.
	MaxSessions int

	// Port is the TCP port the HTTP surface listens on.
	Port int

	// RequestTimeout is the per-hop deadline applied to each redirect hop
	// (spec.md §5: a chain of 5 redirects can consume 5×RequestTimeout).
	RequestTimeout time.Duration
}

// Default values per spec.md §6.
const (
	DefaultSessionTTL     = 3600 * time.Second
	DefaultMaxSessions    = 100
	DefaultPort           = 8000
	DefaultRequestTimeout = 30 * time.Second
)

// Load reads configuration from the environment. Unset variables fall back
// to the documented defaults; malformed values (non-integer PORT, etc.)
// produce an error instead of silently falling back.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:         os.Getenv("API_KEY"),
		SessionTTL:     DefaultSessionTTL,
		MaxSessions:    DefaultMaxSessions,
		Port:           DefaultPort,
		RequestTimeout: DefaultRequestTimeout,
	}

	if v, ok := os.LookupEnv("SESSION_TTL"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse SESSION_TTL=%q: %w", v, err)
		}
		cfg.SessionTTL = time.Duration(secs) * time.Second
	}

	if v, ok := os.LookupEnv("MAX_SESSIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse MAX_SESSIONS=%q: %w", v, err)
		}
		cfg.MaxSessions = n
	}

	if v, ok := os.LookupEnv("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse PORT=%q: %w", v, err)
		}
		cfg.Port = n
	}

	if v, ok := os.LookupEnv("REQUEST_TIMEOUT"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse REQUEST_TIMEOUT=%q: %w", v, err)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// Default returns a *Config pre-filled with the documented defaults and no
// API key. Callers are free to mutate the returned struct; each call returns
// a fresh independent copy.
func Default() *Config {
	return &Config{
		SessionTTL:     DefaultSessionTTL,
		MaxSessions:    DefaultMaxSessions,
		Port:           DefaultPort,
		RequestTimeout: DefaultRequestTimeout,
	}
}
