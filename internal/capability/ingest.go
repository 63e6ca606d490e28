package capability

import (
	"context"
	"fmt"
	"io"
	"time"

	smerr "smdrcollect/internal/errors"
	"smdrcollect/internal/metrics"
	"smdrcollect/internal/record"
	"smdrcollect/internal/session"
	"smdrcollect/internal/shutdown"
	"smdrcollect/util"
)

// Appender durably appends one decoded row.  *csvlog.Log implements it.
type Appender interface {
	Append(row record.Row) error
}

// maxLoggedRecord bounds how much of a rejected record is echoed to the
// log.
const maxLoggedRecord = 200

// Ingest frames, decodes and appends every record of a session.
//
// A malformed record is reported and dropped; the session carries on.
// A failed append ends the session and is returned, since the
// collector can no longer honour its durability contract.
type Ingest struct {
	Log      Appender
	Metrics  *metrics.Collector
	Quit     shutdown.Monitor
	Logger   *util.Logger
	OnCommit func() // called after every committed row, e.g. to refresh status
}

// Handle implements [Capability].
func (c *Ingest) Handle(ctx context.Context, sess *session.Session) error {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	log := c.Logger.With(fmt.Sprintf("session %d", sess.ID))

	for {
		if c.stopping(ctx) {
			log.Verbose("quit requested; ending session after %d record(s)", sess.Records())
			return nil
		}

		n, err := sess.Read(*buf)
		if n > 0 {
			c.Metrics.BytesReceived(int64(n))
			if ferr := c.feed(sess, log, (*buf)[:n]); ferr != nil {
				return ferr
			}
		}

		if err == nil {
			continue
		}

		switch {
		case err == io.EOF:
			log.Verbose("peer %s closed after %d record(s)", sess.RemoteAddr(), sess.Records())
		case smerr.Is(err, smerr.ErrIdleTimeout):
			c.Metrics.IdleTimeout()
			log.Verbose("idle for %v; closing", sess.IdleTimeout)
		default:
			c.Metrics.RecordError(err.Error())
			log.Warn("read: %v", err)
		}
		return nil
	}
}

// feed frames chunk and commits every complete record in it.  Records
// the framer abandoned for size are counted one by one.
func (c *Ingest) feed(sess *session.Session, log *util.Logger, chunk []byte) error {
	var fatal error
	dropped := sess.Framer.Dropped()

	_ = sess.Framer.Feed(chunk, func(raw string) {
		if fatal != nil {
			return
		}
		err := c.commit(sess, log, raw)
		switch {
		case err == nil:
		case smerr.IsRecordLocal(err):
			log.Warn("Skipping malformed CSV record: %v", err)
		default:
			fatal = err
		}
	})

	for n := sess.Framer.Dropped() - dropped; n > 0; n-- {
		c.Metrics.RecordOversized()
		log.Warn("skipping record: %v", &smerr.RecordError{
			Session: sess.ID,
			Seq:     sess.NextRecord(),
			Err:     smerr.ErrRecordTooLarge,
		})
	}
	return fatal
}

// commit decodes raw and appends it.  A decode failure comes back as a
// *smerr.RecordError; any other error is an append failure.
func (c *Ingest) commit(sess *session.Session, log *util.Logger, raw string) error {
	seq := sess.NextRecord()

	row, err := record.Decode(raw)
	if err != nil {
		c.Metrics.RecordMalformed()
		log.Debug("rejected record %d: %q", seq, truncate(raw))
		return &smerr.RecordError{Session: sess.ID, Seq: seq, Raw: truncate(raw), Err: err}
	}

	if err := c.Log.Append(row); err != nil {
		c.Metrics.RecordError(err.Error())
		return fmt.Errorf("session %d record %d: %w", sess.ID, seq, err)
	}

	c.Metrics.RecordCommitted(time.Now())
	log.Debug("committed record %d (%d field(s))", seq, len(row))
	if c.OnCommit != nil {
		c.OnCommit()
	}
	return nil
}

func (c *Ingest) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return c.Quit != nil && c.Quit.PollQuitSignal()
}

func truncate(s string) string {
	if len(s) <= maxLoggedRecord {
		return s
	}
	return s[:maxLoggedRecord] + "..."
}
