// Package transport provides the listening side of the collector.
// Acceptors hand out inbound connections one bounded wait at a time so
// the control loop can do other work (polling for quit) between waits.
package transport

import (
	"net"
	"time"
)

// Acceptor accepts inbound connections with a bounded wait.
type Acceptor interface {
	// Accept waits at most wait for the next connection.  When no peer
	// connects in time it returns a nil conn and an error for which
	// errors.IsTimeout reports true.
	Accept(wait time.Duration) (net.Conn, error)

	// Addr returns the bound address (with the real port when the
	// configured port was 0).
	Addr() net.Addr

	// Close stops listening.  Pending and later Accept calls fail with
	// an error for which errors.IsClosed reports true.
	Close() error
}
