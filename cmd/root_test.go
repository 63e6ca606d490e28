package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"

	smerr "smdrcollect/internal/errors"
	"smdrcollect/util"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}} {
		t.Run(args[0], func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-p", "5001", "-f", "calls.csv", "--max-record-size", "8KB", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"port", []string{"-p", "70000"}, "port"},
		{"bind", []string{"--bind", "not-an-ip"}, "bind"},
		{"idle", []string{"--idle-timeout", "0s"}, "idle-timeout"},
		{"size", []string{"--max-record-size", "8B"}, "max-record-size"},
		{"size cap", []string{"--max-record-size", "2GB"}, "max-record-size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), append(tt.args, "--dry-run"))
			var ce *smerr.ConfigError
			if !smerr.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	if err := Execute(context.Background(), []string{"--nonexistent-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_BadSize verifies --max-record-size rejects garbage.
func TestExecute_BadSize(t *testing.T) {
	err := Execute(context.Background(), []string{"--max-record-size", "lots", "--dry-run"})
	if err == nil || !strings.Contains(err.Error(), "invalid size") {
		t.Fatalf("expected invalid size error, got %v", err)
	}
}

// TestExecute_Positional verifies stray arguments are rejected.
func TestExecute_Positional(t *testing.T) {
	err := Execute(context.Background(), []string{"5000"})
	if err == nil || !strings.Contains(err.Error(), "unexpected argument") {
		t.Fatalf("expected unexpected argument error, got %v", err)
	}
}

// TestExecute_Run starts the collector, sends one record and stops it
// through the context.
func TestExecute_Run(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "smdr.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, []string{
			"--bind", "127.0.0.1",
			"-p", fmt.Sprint(port),
			"-f", path,
			"--no-console",
			"--idle-timeout", "200ms",
			"--poll-interval", "20ms",
		})
	}()

	addr := util.ListenAddr("127.0.0.1", port)
	var conn net.Conn
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("collector never listened: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	conn.Write([]byte("\"John Doe\",Inbound,5551234,5555678\n")) //nolint:errcheck
	conn.Close()

	want := "John Doe,Inbound,5551234,5555678\r\n"
	for {
		data, _ := os.ReadFile(path)
		if strings.HasSuffix(string(data), want) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("record not written; file = %q", data)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("collector did not stop after cancel")
	}
}

// TestExecute_PortInUse verifies a bind failure is fatal.
func TestExecute_PortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	err = Execute(context.Background(), []string{
		"--bind", "127.0.0.1",
		"-p", fmt.Sprint(port),
		"-f", filepath.Join(t.TempDir(), "smdr.csv"),
		"--no-console",
	})
	var ne *smerr.NetworkError
	if !smerr.As(err, &ne) || ne.Op != "listen" {
		t.Fatalf("expected listen NetworkError, got %v", err)
	}
}

// TestExecute_MetricsAddrInUse verifies a busy --metrics-addr stops the
// collector before it starts listening for records.
func TestExecute_MetricsAddrInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = Execute(ctx, []string{
		"--bind", "127.0.0.1",
		"-p", "5000",
		"-f", filepath.Join(t.TempDir(), "smdr.csv"),
		"--no-console",
		"--metrics-addr", busy.Addr().String(),
	})
	if err == nil || !strings.Contains(err.Error(), "metrics endpoint") {
		t.Fatalf("expected metrics endpoint error, got %v", err)
	}
	var ne *smerr.NetworkError
	if !smerr.As(err, &ne) || ne.Op != "listen" {
		t.Errorf("expected listen NetworkError, got %v", err)
	}
}

func TestSizeValue(t *testing.T) {
	var size datasize.ByteSize
	v := &sizeValue{&size}

	if err := v.Set("2MB"); err != nil {
		t.Fatal(err)
	}
	if size != 2*datasize.MB {
		t.Errorf("size = %v, want 2MB", size)
	}
	if v.Type() != "size" {
		t.Errorf("Type() = %q", v.Type())
	}
	if err := v.Set("-1"); err == nil {
		t.Error("expected error for negative size")
	}
}

// TestExecute_EnvPrecedence verifies flags beat SMDR_* variables.
func TestExecute_EnvPrecedence(t *testing.T) {
	t.Setenv("SMDR_PORT", "70000")
	if err := Execute(context.Background(), []string{"--dry-run"}); err == nil {
		t.Fatal("expected env port to be validated")
	}
	if err := Execute(context.Background(), []string{"-p", "5002", "--dry-run"}); err != nil {
		t.Fatalf("flag should override env: %v", err)
	}
}
