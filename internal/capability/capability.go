// Package capability defines what happens over an accepted producer
// connection.  A Capability operates on a Session rather than a raw
// net.Conn, which keeps it testable with in-memory pipes.
package capability

import (
	"context"

	"smdrcollect/internal/session"
)

// Capability drains a single session.
type Capability interface {
	// Handle runs until the session ends (peer close, idle timeout,
	// read error, quit).  Those endings are normal and return nil; a
	// non-nil error means the collector itself can no longer work.
	Handle(ctx context.Context, sess *session.Session) error
}
