package config

import (
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
)

func TestLoadFromEnv_Listener(t *testing.T) {
	t.Setenv("SMDR_BIND", "10.0.0.5")
	t.Setenv("SMDR_PORT", "5100")
	t.Setenv("SMDR_POLL_INTERVAL", "250ms")
	t.Setenv("SMDR_IDLE_TIMEOUT", "3s")

	cfg := Defaults()
	LoadFromEnv(cfg)

	if cfg.Bind != "10.0.0.5" {
		t.Errorf("Bind = %q, want 10.0.0.5", cfg.Bind)
	}
	if cfg.Port != 5100 {
		t.Errorf("Port = %d, want 5100", cfg.Port)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.IdleTimeout != 3*time.Second {
		t.Errorf("IdleTimeout = %v, want 3s", cfg.IdleTimeout)
	}
}

func TestLoadFromEnv_Output(t *testing.T) {
	t.Setenv("SMDR_FILENAME", "/var/log/pbx/smdr.csv")
	t.Setenv("SMDR_MAX_RECORD_SIZE", "8KB")

	cfg := Defaults()
	LoadFromEnv(cfg)

	if cfg.Filename != "/var/log/pbx/smdr.csv" {
		t.Errorf("Filename = %q", cfg.Filename)
	}
	if cfg.MaxRecordSize != 8*datasize.KB {
		t.Errorf("MaxRecordSize = %v, want 8KB", cfg.MaxRecordSize)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		value string
		want  bool
		set   bool
	}{
		{"1", true, true},
		{"true", true, true},
		{"YES", true, true},
		{"0", false, true},
		{"false", false, true},
		{"No", false, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SMDR_FSYNC", tt.value)
			t.Setenv("SMDR_CRLF", tt.value)

			cfg := Defaults()
			LoadFromEnv(cfg)

			if !tt.set {
				if cfg.Fsync || !cfg.CRLF {
					t.Errorf("unrecognised value %q should leave defaults", tt.value)
				}
				return
			}
			if cfg.Fsync != tt.want {
				t.Errorf("Fsync = %v, want %v", cfg.Fsync, tt.want)
			}
			if cfg.CRLF != tt.want {
				t.Errorf("CRLF = %v, want %v", cfg.CRLF, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_InvalidIgnored(t *testing.T) {
	t.Setenv("SMDR_PORT", "not-a-number")
	t.Setenv("SMDR_IDLE_TIMEOUT", "soon")
	t.Setenv("SMDR_MAX_RECORD_SIZE", "big")

	cfg := Defaults()
	LoadFromEnv(cfg)

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default", cfg.Port)
	}
	if cfg.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("IdleTimeout = %v, want default", cfg.IdleTimeout)
	}
	if cfg.MaxRecordSize != DefaultMaxRecordSize {
		t.Errorf("MaxRecordSize = %v, want default", cfg.MaxRecordSize)
	}
}

func TestLoadFromEnv_Observability(t *testing.T) {
	t.Setenv("SMDR_METRICS_ADDR", "127.0.0.1:9100")
	t.Setenv("SMDR_NO_CONSOLE", "yes")
	t.Setenv("SMDR_VERBOSE", "2")

	cfg := Defaults()
	LoadFromEnv(cfg)

	if cfg.MetricsAddr != "127.0.0.1:9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if !cfg.NoConsole {
		t.Error("NoConsole should be true")
	}
	if cfg.Verbose != 2 {
		t.Errorf("Verbose = %d, want 2", cfg.Verbose)
	}
}
