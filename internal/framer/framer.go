// Package framer splits the byte stream of one connection into
// newline-terminated records.
//
// Reads may deliver any number of bytes, including a single byte or
// several records at once.  Bytes after a newline stay buffered and
// become the start of the next record; nothing is emitted until its
// terminating newline arrives.  A partial record left in the buffer
// when the session ends is discarded by [Framer.Reset].
package framer

import (
	"bytes"
	"strings"

	smerr "smdrcollect/internal/errors"
)

// Delimiter terminates every record on the wire.
const Delimiter = '\n'

// Framer accumulates bytes for a single session.  It is not safe for
// concurrent use; the control loop owns it.
type Framer struct {
	buf        []byte
	max        int  // 0 = unlimited
	discarding bool // dropping the rest of an oversized record
	dropped    int64
}

// New returns a Framer that abandons any record longer than maxRecord
// bytes.  A maxRecord of zero disables the limit.
func New(maxRecord int) *Framer {
	return &Framer{max: maxRecord}
}

// Feed appends p to the pending buffer and calls consume once for every
// record completed by it, in stream order.  Records are decoded as
// UTF-8 with invalid bytes removed and trimmed of surrounding
// whitespace; blank records are skipped without calling consume.
//
// Feed returns [smerr.ErrRecordTooLarge] if it abandoned at least one
// record during this call.  Framing continues after the next newline.
func (f *Framer) Feed(p []byte, consume func(raw string)) error {
	var err error
	for len(p) > 0 {
		i := bytes.IndexByte(p, Delimiter)
		if i < 0 {
			if !f.discarding {
				f.buf = append(f.buf, p...)
				if f.over(0) {
					f.abandon()
					f.discarding = true
					err = smerr.ErrRecordTooLarge
				}
			}
			return err
		}

		line := p[:i]
		p = p[i+1:]

		if f.discarding {
			f.discarding = false
			continue
		}
		if f.over(len(line)) {
			f.abandon()
			err = smerr.ErrRecordTooLarge
			continue
		}

		f.buf = append(f.buf, line...)
		raw := strings.TrimSpace(strings.ToValidUTF8(string(f.buf), ""))
		f.buf = f.buf[:0]
		if raw != "" {
			consume(raw)
		}
	}
	return err
}

// Pending returns the number of buffered bytes not yet terminated by a
// newline.
func (f *Framer) Pending() int { return len(f.buf) }

// Dropped returns how many records were abandoned for exceeding the
// size limit over the framer's lifetime.
func (f *Framer) Dropped() int64 { return f.dropped }

// Reset discards any partial record and returns the number of bytes
// thrown away.
func (f *Framer) Reset() int {
	n := len(f.buf)
	f.buf = f.buf[:0]
	f.discarding = false
	return n
}

func (f *Framer) over(extra int) bool {
	return f.max > 0 && len(f.buf)+extra > f.max
}

func (f *Framer) abandon() {
	f.buf = f.buf[:0]
	f.dropped++
}
