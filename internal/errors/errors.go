// Package errors provides domain-specific error types for smdrcollect.
//
// The collector sorts failures into four classes: fatal (listener setup),
// session-local (peer gone, idle timeout), record-local (bad CSV, oversized
// record) and operator-initiated (quit).  The types here carry enough
// context for the control loop to pick the right class without string
// matching.
package errors

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrIdleTimeout     = errors.New("idle timeout")
	ErrRecordTooLarge  = errors.New("record exceeds maximum size")
	ErrQuit            = errors.New("quit requested")
	ErrListenerClosed  = errors.New("listener is closed")
	ErrMalformedRecord = errors.New("malformed CSV record")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "listen", "accept", "read"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Hint returns operator guidance for errors that end the process.
func (e *NetworkError) Hint() string {
	if e.Op != "listen" {
		return ""
	}
	switch {
	case errors.Is(e.Err, syscall.EADDRINUSE):
		return fmt.Sprintf("another program is already using %s", e.Addr)
	case errors.Is(e.Err, syscall.EACCES), errors.Is(e.Err, os.ErrPermission):
		return fmt.Sprintf("insufficient permission to bind %s; use a port above 1023", e.Addr)
	default:
		return "the port may be in use or you may lack permission to bind it"
	}
}

// RecordError is a record-local failure: the record named by Seq in the
// given session was dropped, nothing was appended.
type RecordError struct {
	Session int64  // session sequence number
	Seq     int64  // record sequence number within the session
	Raw     string // offending raw record (may be truncated by the caller)
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("session %d record %d: %v", e.Session, e.Seq, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTimeout reports whether err is a deadline expiry on a socket or an
// idle timeout raised by the session.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIdleTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsClosed reports whether err comes from using a closed socket.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, ErrListenerClosed)
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsRecordLocal reports whether err only affects a single record.
func IsRecordLocal(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}

// classifyRetryable inspects standard library error types.  Accept
// failures caused by descriptor exhaustion or an aborted handshake go
// away on their own.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
