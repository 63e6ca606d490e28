// Package session represents the lifetime of one accepted producer
// connection: the socket, its pending-record buffer and its idle
// timeout.
//
// A session is created on accept and destroyed when the peer closes or
// goes quiet.  Only the control loop touches it.
package session

import (
	"io"
	"net"
	"time"

	smerr "smdrcollect/internal/errors"
	"smdrcollect/internal/framer"
	"smdrcollect/util"
)

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID          int64
	Conn        net.Conn
	Framer      *framer.Framer
	IdleTimeout time.Duration
	Logger      *util.Logger

	records int64 // framed records seen, for diagnostics
	started time.Time
}

// New creates a Session bound to conn.
func New(id int64, conn net.Conn, f *framer.Framer, idle time.Duration, logger *util.Logger) *Session {
	return &Session{
		ID:          id,
		Conn:        conn,
		Framer:      f,
		IdleTimeout: idle,
		Logger:      logger,
		started:     time.Now(),
	}
}

// Read reads the next chunk from the peer, waiting at most IdleTimeout.
// It returns io.EOF when the peer closed the connection and an error
// wrapping [smerr.ErrIdleTimeout] when nothing arrived in time.
//
// A deadline can only be refused on a connection that is already
// closed, in which case Read returns at once; the read still happens so
// that the peer's close is reported as io.EOF.
func (s *Session) Read(p []byte) (int, error) {
	if s.IdleTimeout > 0 {
		_ = s.Conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
	}
	n, err := s.Conn.Read(p)
	switch {
	case err == nil, err == io.EOF:
		return n, err
	case smerr.Is(err, io.ErrClosedPipe), smerr.Is(err, net.ErrClosed):
		return n, io.EOF
	case smerr.IsTimeout(err):
		return n, smerr.ErrIdleTimeout
	default:
		return n, smerr.Wrap("read", s.RemoteAddr(), err)
	}
}

// NextRecord returns the 1-based sequence number for the next framed
// record.
func (s *Session) NextRecord() int64 {
	s.records++
	return s.records
}

// Records returns how many framed records the session has seen.
func (s *Session) Records() int64 { return s.records }

// Age returns how long the session has been open.
func (s *Session) Age() time.Duration { return time.Since(s.started) }

// RemoteAddr returns the peer address as a string.
func (s *Session) RemoteAddr() string {
	if a := s.Conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return "unknown"
}

// Close discards any unterminated record and closes the connection.  It
// returns the number of buffered bytes thrown away.
func (s *Session) Close() int {
	n := s.Framer.Reset()
	s.Conn.Close()
	return n
}
