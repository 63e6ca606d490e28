package config

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.Filename != "smdr.csv" {
		t.Errorf("Filename = %q, want smdr.csv", cfg.Filename)
	}
	if !cfg.CRLF {
		t.Error("CRLF should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// ── Config.Validate ──────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	valid := func(mut func(*Config)) Config {
		cfg := *Defaults()
		mut(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", valid(func(*Config) {}), false},
		{"bind ipv4", valid(func(c *Config) { c.Bind = "127.0.0.1" }), false},
		{"bind ipv6", valid(func(c *Config) { c.Bind = "::1" }), false},
		{"bind hostname", valid(func(c *Config) { c.Bind = "pbx.local" }), true},
		{"port zero", valid(func(c *Config) { c.Port = 0 }), true},
		{"port too large", valid(func(c *Config) { c.Port = 70000 }), true},
		{"no filename", valid(func(c *Config) { c.Filename = "  " }), true},
		{"zero poll", valid(func(c *Config) { c.PollInterval = 0 }), true},
		{"negative idle", valid(func(c *Config) { c.IdleTimeout = -time.Second }), true},
		{"tiny record", valid(func(c *Config) { c.MaxRecordSize = 10 * datasize.B }), true},
		{"largest record", valid(func(c *Config) { c.MaxRecordSize = 1 * datasize.GB }), false},
		{"oversized limit", valid(func(c *Config) { c.MaxRecordSize = 2 * datasize.GB }), true},
		{"limit wraps int", valid(func(c *Config) { c.MaxRecordSize = datasize.ByteSize(math.MaxUint64) }), true},
		{"metrics addr", valid(func(c *Config) { c.MetricsAddr = "127.0.0.1:9100" }), false},
		{"metrics no port", valid(func(c *Config) { c.MetricsAddr = "localhost" }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		mut     func(*Config)
		wantSub string
	}{
		{"port has hint", func(c *Config) { c.Port = -1 }, "hint:"},
		{"port names flag", func(c *Config) { c.Port = 99999 }, "--port=99999"},
		{"filename has hint", func(c *Config) { c.Filename = "" }, "hint: use -f smdr.csv"},
		{"idle has hint", func(c *Config) { c.IdleTimeout = 0 }, "hint:"},
		{"record size cap", func(c *Config) { c.MaxRecordSize = 4 * datasize.EB }, "--max-record-size"},
		{"record size cap has hint", func(c *Config) { c.MaxRecordSize = 4 * datasize.EB }, "must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mut(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}
