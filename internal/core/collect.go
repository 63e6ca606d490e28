package core

import (
	"context"
	"fmt"
	"net"
	"time"

	"smdrcollect/internal/capability"
	"smdrcollect/internal/csvlog"
	smerr "smdrcollect/internal/errors"
	"smdrcollect/internal/framer"
	"smdrcollect/internal/metrics"
	"smdrcollect/internal/retry"
	"smdrcollect/internal/session"
	"smdrcollect/internal/shutdown"
	"smdrcollect/internal/status"
	"smdrcollect/internal/transport"
	"smdrcollect/util"
)

// CollectMode accepts producer connections one at a time and appends
// every record they send to the output file.
//
// Everything runs on the caller's goroutine.  The only blocking calls
// are a bounded accept and a bounded read, so the quit monitor is
// consulted at least once per poll interval while idle and after every
// read while draining.
type CollectMode struct {
	Address       string // host:port to bind
	PollInterval  time.Duration
	IdleTimeout   time.Duration
	MaxRecordSize int // bytes; 0 = unlimited
	LogPath       string
	LogOptions    csvlog.Options
	Quit          shutdown.Monitor
	Reporter      status.Reporter
	Metrics       *metrics.Collector
	Backoff       *retry.Backoff // around accept; nil uses retry.AcceptBackoff defaults
	Logger        *util.Logger

	// Listen defaults to transport.Listen.
	Listen func(address string) (transport.Acceptor, error)
	// Bound, when set, is called with the listener address once bound.
	Bound func(net.Addr)

	port   int
	nextID int64
}

// Run binds the listener, opens the output file and serves producers
// until the quit monitor fires or ctx is cancelled, which both return
// nil.  A bind failure, an append failure or a persistent accept
// failure is returned.
func (m *CollectMode) Run(ctx context.Context) error {
	if m.Metrics == nil {
		m.Metrics = metrics.New()
	}

	ln, err := m.listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	m.port = portOf(ln.Addr())
	m.Logger.Info("listening on %s", ln.Addr())
	if m.Bound != nil {
		m.Bound(ln.Addr())
	}

	out, err := csvlog.Open(m.LogPath, m.LogOptions)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			m.Logger.Error("close %s: %v", m.LogPath, cerr)
			return
		}
		m.Logger.Verbose("closed %s after appending %d row(s)", m.LogPath, out.Appended())
	}()
	if out.HeaderWritten() {
		m.Logger.Verbose("wrote header to new file %s", m.LogPath)
	}

	quit := shutdown.Any{shutdown.FromContext(ctx), m.quit()}
	ingest := &capability.Ingest{
		Log:      out,
		Metrics:  m.Metrics,
		Quit:     quit,
		Logger:   m.Logger,
		OnCommit: m.report,
	}
	backoff := m.acceptBackoff()

	m.report()

	for {
		if quit.PollQuitSignal() {
			m.Logger.Verbose("quit requested; %d record(s) committed", m.Metrics.RecordsCommitted())
			return nil
		}

		conn, err := m.accept(ctx, ln, quit, backoff)
		if err != nil {
			if ctx.Err() != nil || smerr.Is(err, smerr.ErrQuit) || smerr.IsClosed(err) {
				return nil
			}
			return err
		}
		if conn == nil {
			continue
		}

		if err := m.serve(ctx, conn, ingest); err != nil {
			return err
		}
	}
}

// Snapshot returns the current collector state for the status reporter.
func (m *CollectMode) Snapshot() status.Snapshot {
	return status.Snapshot{
		Port:       m.port,
		Path:       m.LogPath,
		Records:    m.Metrics.RecordsCommitted(),
		Rejected:   m.Metrics.RecordsRejected(),
		Sessions:   m.Metrics.TotalSessions(),
		LastRecord: m.Metrics.LastCommit(),
	}
}

// accept waits one poll interval for a producer.  A timeout yields a
// nil conn and nil error.  Transient failures are retried with backoff.
func (m *CollectMode) accept(ctx context.Context, ln transport.Acceptor, quit shutdown.Monitor, b *retry.Backoff) (net.Conn, error) {
	var conn net.Conn
	err := b.Do(ctx, func(int) error {
		c, err := ln.Accept(m.pollInterval())
		switch {
		case err == nil:
			conn = c
			return nil
		case smerr.IsTimeout(err):
			return nil
		case quit.PollQuitSignal():
			return retry.Permanent(smerr.ErrQuit)
		case smerr.IsRetryable(err):
			return err
		default:
			return retry.Permanent(err)
		}
	})
	return conn, err
}

// serve drains one producer connection.  Only a fatal capability error
// is returned; every other session ending is logged and absorbed.
func (m *CollectMode) serve(ctx context.Context, conn net.Conn, c capability.Capability) error {
	m.nextID++
	sess := session.New(m.nextID, conn, framer.New(m.MaxRecordSize), m.IdleTimeout, m.Logger)
	log := m.Logger.With(fmt.Sprintf("session %d", sess.ID))

	m.Metrics.SessionOpened()
	log.Verbose("connection from %s", sess.RemoteAddr())
	m.report()

	err := c.Handle(ctx, sess)

	if n := sess.Close(); n > 0 {
		m.Metrics.BytesDiscarded(int64(n))
		log.Warn("discarded %d byte(s) of unterminated record", n)
	}
	m.Metrics.SessionClosed()
	log.Verbose("closed after %v, %d record(s)", sess.Age().Truncate(time.Millisecond), sess.Records())
	return err
}

func (m *CollectMode) report() {
	if m.Reporter != nil {
		m.Reporter.Report(m.Snapshot())
	}
}

func (m *CollectMode) listen() (transport.Acceptor, error) {
	if m.Listen != nil {
		return m.Listen(m.Address)
	}
	return transport.Listen(m.Address)
}

func (m *CollectMode) quit() shutdown.Monitor {
	if m.Quit != nil {
		return m.Quit
	}
	return shutdown.Never{}
}

func (m *CollectMode) pollInterval() time.Duration {
	if m.PollInterval > 0 {
		return m.PollInterval
	}
	return 500 * time.Millisecond
}

// acceptBackoff returns a copy of the configured policy that counts and
// logs each retry.
func (m *CollectMode) acceptBackoff() *retry.Backoff {
	var b retry.Backoff
	if m.Backoff != nil {
		b = *m.Backoff
	} else {
		b = *retry.AcceptBackoff(0, 0)
	}
	next := b.OnRetry
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Metrics.AcceptRetry()
		m.Metrics.RecordError(err.Error())
		m.Logger.Warn("accept failed (attempt %d), retrying in %v: %v",
			attempt, wait.Truncate(time.Millisecond), err)
		if next != nil {
			next(attempt, err, wait)
		}
	}
	return &b
}

func portOf(addr net.Addr) int {
	if a, ok := addr.(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}
