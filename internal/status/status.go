// Package status renders the collector's state for the operator.
//
// The control loop hands a [Snapshot] to a [Reporter] once at startup
// and again after every committed record.  Reporters only render; they
// never feed anything back into the loop.
package status

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"smdrcollect/util"
)

// TimeFormat is how the last-record timestamp is displayed.
const TimeFormat = "2006-01-02 15:04:05"

// Unset is displayed while no record has been committed.
const Unset = "N/A"

// Snapshot is a read-only copy of the collector state.
type Snapshot struct {
	Port       int
	Path       string
	Records    int64     // committed since startup
	Rejected   int64     // dropped as malformed or oversized
	Sessions   int64     // connections accepted since startup
	LastRecord time.Time // zero until the first commit
}

// LastRecordText formats LastRecord, or returns [Unset].
func (s Snapshot) LastRecordText() string {
	if s.LastRecord.IsZero() {
		return Unset
	}
	return s.LastRecord.Format(TimeFormat)
}

// Reporter renders snapshots.
type Reporter interface {
	Report(s Snapshot)
}

// Nop discards every snapshot.
type Nop struct{}

// Report implements [Reporter].
func (Nop) Report(Snapshot) {}

// Console redraws a small status screen on every report.
type Console struct {
	Out   io.Writer
	Title string
}

// clearScreen moves the cursor home and erases the display.
const clearScreen = "\x1b[H\x1b[2J"

const rule = "------------------------------"

// Report implements [Reporter].
func (c *Console) Report(s Snapshot) {
	title := c.Title
	if title == "" {
		title = "SMDR Collector"
	}
	fmt.Fprint(c.Out, clearScreen)
	fmt.Fprintf(c.Out, "%s\n", title)
	fmt.Fprintf(c.Out, "Press 'Q' to quit\n")
	fmt.Fprintf(c.Out, "%s\n", rule)
	fmt.Fprintf(c.Out, "Records Received: %d\n", s.Records)
	if s.Rejected > 0 {
		fmt.Fprintf(c.Out, "Records Rejected: %d\n", s.Rejected)
	}
	fmt.Fprintf(c.Out, "Connections: %d\n", s.Sessions)
	fmt.Fprintf(c.Out, "Listening Port: %d\n", s.Port)
	fmt.Fprintf(c.Out, "Output File: %s\n", s.Path)
	fmt.Fprintf(c.Out, "Last Record Received: %s\n", s.LastRecordText())
	fmt.Fprintf(c.Out, "%s\n", rule)
	fmt.Fprintf(c.Out, "Waiting for data...\n")
}

// Log writes one line per report, for unattended runs where nobody
// watches a screen.
type Log struct {
	Logger *util.Logger
}

// Report implements [Reporter].
func (l *Log) Report(s Snapshot) {
	l.Logger.Info("records=%d rejected=%d connections=%d port=%d file=%s last=%s",
		s.Records, s.Rejected, s.Sessions, s.Port, s.Path, s.LastRecordText())
}

// ForOutput picks the console screen when out is a terminal and the
// line logger otherwise.  raw tells the console that the terminal is in
// raw mode and needs "\r\n" line endings.
func ForOutput(out *os.File, raw bool, logger *util.Logger) Reporter {
	if !term.IsTerminal(int(out.Fd())) {
		return &Log{Logger: logger}
	}
	var w io.Writer = out
	if raw {
		w = util.CRLFWriter(out)
	}
	return &Console{Out: w}
}
