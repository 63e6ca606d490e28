// Package config defines the runtime configuration for smdrcollect.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	smerr "smdrcollect/internal/errors"
)

// Config holds every tuneable for one collector process.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	Bind         string // listen host; empty means all interfaces
	Port         int
	PollInterval time.Duration // bounded accept wait
	IdleTimeout  time.Duration // per-read idle timeout within a session

	// ── Framing ──────────────────────────────────────────────────────
	MaxRecordSize datasize.ByteSize

	// ── Output log ───────────────────────────────────────────────────
	Filename string
	Fsync    bool // fsync after every appended row
	CRLF     bool // terminate rows with \r\n

	// ── Observability ────────────────────────────────────────────────
	MetricsAddr string // host:port for /metrics and /stats; empty = off
	NoConsole   bool   // log-line status instead of the console screen
	Verbose     int
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &smerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("the phone system is usually configured to send to port %d", DefaultPort),
		}
	}
	if strings.TrimSpace(c.Filename) == "" {
		return &smerr.ConfigError{
			Field:   "filename",
			Message: "output file is required",
			Hint:    fmt.Sprintf("use -f %s", DefaultFilename),
		}
	}
	if c.Bind != "" && net.ParseIP(c.Bind) == nil {
		return &smerr.ConfigError{
			Field:   "bind",
			Value:   c.Bind,
			Message: "not a numeric IP address",
			Hint:    "leave empty to listen on every interface",
		}
	}
	if c.PollInterval <= 0 {
		return &smerr.ConfigError{
			Field:   "poll-interval",
			Value:   c.PollInterval,
			Message: "must be positive",
		}
	}
	if c.IdleTimeout <= 0 {
		return &smerr.ConfigError{
			Field:   "idle-timeout",
			Value:   c.IdleTimeout,
			Message: "must be positive",
			Hint:    "a stalled producer would otherwise hold the only session forever",
		}
	}
	if c.MaxRecordSize < datasize.ByteSize(minRecordSize) {
		return &smerr.ConfigError{
			Field:   "max-record-size",
			Value:   c.MaxRecordSize.HR(),
			Message: fmt.Sprintf("must be at least %d bytes", minRecordSize),
		}
	}
	if c.MaxRecordSize > maxRecordSize {
		return &smerr.ConfigError{
			Field:   "max-record-size",
			Value:   c.MaxRecordSize.HR(),
			Message: "must be at most " + maxRecordSize.HR(),
			Hint:    "SMDR rows are a few hundred bytes; the default is " + DefaultMaxRecordSize.HR(),
		}
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return &smerr.ConfigError{
				Field:   "metrics-addr",
				Value:   c.MetricsAddr,
				Message: err.Error(),
				Hint:    "use host:port, e.g. 127.0.0.1:9100",
			}
		}
	}
	return nil
}

// minRecordSize is one full 36-column row of empty fields plus slack.
const minRecordSize = 64

// maxRecordSize keeps the limit representable as an int on every
// platform; the framer treats a non-positive limit as unlimited.
const maxRecordSize = 1 * datasize.GB
