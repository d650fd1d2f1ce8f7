package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the sliding-window limiter guarding the
// booking-creation endpoints.  The defaults implement the standing
// policy of 10 requests per 10-minute window per client.
type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
	Prefix      string
}

// LoadRateLimitConfig reads the limiter settings from the environment,
// clamping nonsensical values back to safe ones.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		MaxRequests: envInt("RATE_LIMIT_MAX_REQUESTS", 10),
		Window:      envDur("RATE_LIMIT_WINDOW", 10*time.Minute),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.MaxRequests < 1 {
		cfg.MaxRequests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}
