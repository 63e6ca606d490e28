package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the SMDR_ prefix.  Boolean values
// accept "1", "true", "yes" and "0", "false", "no" (case-insensitive).
// Durations use Go syntax ("750ms", "2s"); sizes use datasize syntax
// ("64KB", "1MB").

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// parseable env vars override the existing value.  This should be called
// BEFORE CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SMDR_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := envInt("SMDR_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("SMDR_FILENAME"); v != "" {
		cfg.Filename = v
	}
	if v := envDuration("SMDR_POLL_INTERVAL"); v > 0 {
		cfg.PollInterval = v
	}
	if v := envDuration("SMDR_IDLE_TIMEOUT"); v > 0 {
		cfg.IdleTimeout = v
	}
	if v := envSize("SMDR_MAX_RECORD_SIZE"); v > 0 {
		cfg.MaxRecordSize = v
	}
	if v, ok := envBool("SMDR_FSYNC"); ok {
		cfg.Fsync = v
	}
	if v, ok := envBool("SMDR_CRLF"); ok {
		cfg.CRLF = v
	}
	if v := os.Getenv("SMDR_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v, ok := envBool("SMDR_NO_CONSOLE"); ok {
		cfg.NoConsole = v
	}
	if v := envInt("SMDR_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// envBool reports the parsed value and whether the variable held a
// recognised boolean at all.
func envBool(key string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func envSize(key string) datasize.ByteSize {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(v)); err != nil {
		return 0
	}
	return size
}
