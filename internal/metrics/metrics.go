// Package metrics provides lightweight, lock-free counters for the
// collector.  The same Collector is the process-wide collector state
// (records committed, last commit time) read by the status reporter,
// and the source for the optional Prometheus and JSON endpoints.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Collector tracks runtime metrics for one collector process.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	sessionsActive   atomic.Int64
	sessionsTotal    atomic.Int64
	idleTimeouts     atomic.Int64
	bytesIn          atomic.Int64
	bytesDiscarded   atomic.Int64
	recordsCommitted atomic.Int64
	recordsMalformed atomic.Int64
	recordsOversized atomic.Int64
	acceptRetries    atomic.Int64
	errorsTotal      atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastCommit   time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// IdleTimeout records a session closed for going quiet.
func (c *Collector) IdleTimeout() {
	if c == nil {
		return
	}
	c.idleTimeouts.Add(1)
}

// ActiveSessions returns the number of open sessions (0 or 1).
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// AcceptRetry records a transient accept failure that will be retried.
func (c *Collector) AcceptRetry() {
	if c == nil {
		return
	}
	c.acceptRetries.Add(1)
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the producer.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesDiscarded records n bytes of an unterminated record thrown away
// when its session ended.
func (c *Collector) BytesDiscarded(n int64) {
	if c == nil {
		return
	}
	c.bytesDiscarded.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// ── Record metrics ───────────────────────────────────────────────────

// RecordCommitted counts one appended row committed at t.
func (c *Collector) RecordCommitted(t time.Time) {
	if c == nil {
		return
	}
	c.recordsCommitted.Add(1)
	c.mu.Lock()
	c.lastCommit = t
	c.mu.Unlock()
}

// RecordMalformed counts one record dropped for bad CSV.
func (c *Collector) RecordMalformed() {
	if c == nil {
		return
	}
	c.recordsMalformed.Add(1)
}

// RecordOversized counts one record dropped for exceeding the size
// limit.
func (c *Collector) RecordOversized() {
	if c == nil {
		return
	}
	c.recordsOversized.Add(1)
}

// RecordsCommitted returns the number of rows appended since startup.
func (c *Collector) RecordsCommitted() int64 {
	if c == nil {
		return 0
	}
	return c.recordsCommitted.Load()
}

// RecordsRejected returns malformed plus oversized records.
func (c *Collector) RecordsRejected() int64 {
	if c == nil {
		return 0
	}
	return c.recordsMalformed.Load() + c.recordsOversized.Load()
}

// LastCommit returns the time of the last committed row, or the zero
// time if there has been none.
func (c *Collector) LastCommit() time.Time {
	if c == nil {
		return time.Time{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastCommit
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	IdleTimeouts     int64  `json:"idle_timeouts"`
	BytesIn          int64  `json:"bytes_in"`
	BytesDiscarded   int64  `json:"bytes_discarded"`
	RecordsCommitted int64  `json:"records_committed"`
	RecordsMalformed int64  `json:"records_malformed"`
	RecordsOversized int64  `json:"records_oversized"`
	AcceptRetries    int64  `json:"accept_retries"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastCommit       string `json:"last_commit,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:   c.sessionsActive.Load(),
		SessionsTotal:    c.sessionsTotal.Load(),
		IdleTimeouts:     c.idleTimeouts.Load(),
		BytesIn:          c.bytesIn.Load(),
		BytesDiscarded:   c.bytesDiscarded.Load(),
		RecordsCommitted: c.recordsCommitted.Load(),
		RecordsMalformed: c.recordsMalformed.Load(),
		RecordsOversized: c.recordsOversized.Load(),
		AcceptRetries:    c.acceptRetries.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	if !c.lastCommit.IsZero() {
		s.LastCommit = c.lastCommit.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
