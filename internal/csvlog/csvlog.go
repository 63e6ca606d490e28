// Package csvlog owns the append-only CSV file the collector writes.
//
// A new or empty file gets the SMDR header row first.  Every appended
// row is flushed to the operating system before Append returns, so a
// row counted as committed is never sitting in a user-space buffer.
package csvlog

import (
	"fmt"
	"io"
	"os"

	"smdrcollect/internal/record"
)

// Options controls how rows are written.
type Options struct {
	CRLF  bool // terminate rows with "\r\n" instead of "\n"
	Fsync bool // fsync the file after every row
}

// Log is an open output file.  It is not safe for concurrent use; the
// control loop is its only writer.
type Log struct {
	path          string
	file          *os.File
	crlf          bool
	fsync         bool
	headerWritten bool
	appended      int64
}

// Open opens path for appending, creating it if absent.  If the file is
// empty the header row is written before Open returns.  A non-empty file
// whose last byte is not a newline (an interrupted earlier write) is
// terminated first so the next row starts on its own line.
func Open(path string, opts Options) (*Log, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	l := &Log{
		path:  path,
		file:  f,
		crlf:  opts.CRLF,
		fsync: opts.Fsync,
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if st.Size() == 0 {
		if err := l.writeRow(record.Header()); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header to %s: %w", path, err)
		}
		l.headerWritten = true
		return l, nil
	}

	if err := terminateTail(path, f, st.Size()); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Append writes row as one CSV line.  When Append returns nil the line
// has been handed to the operating system (and synced, with Fsync).
func (l *Log) Append(row record.Row) error {
	if err := l.writeRow(row); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	l.appended++
	return nil
}

// Path returns the file path the log was opened with.
func (l *Log) Path() string { return l.path }

// HeaderWritten reports whether Open found the file empty and wrote the
// header row.
func (l *Log) HeaderWritten() bool { return l.headerWritten }

// Appended returns the number of data rows written since Open.
func (l *Log) Appended() int64 { return l.appended }

// Close closes the file.  Rows are never buffered, so there is nothing
// to flush.
func (l *Log) Close() error {
	return l.file.Close()
}

// writeRow encodes row and writes the whole line in one call.
func (l *Log) writeRow(row record.Row) error {
	line, err := record.Encode(row, l.crlf)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(l.file, line); err != nil {
		return err
	}
	if l.fsync {
		return l.file.Sync()
	}
	return nil
}

func terminateTail(path string, f *os.File, size int64) error {
	r, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", path, err)
	}
	defer r.Close()

	last := make([]byte, 1)
	if _, err := r.ReadAt(last, size-1); err != nil && err != io.EOF {
		return fmt.Errorf("inspect %s: %w", path, err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate partial line in %s: %w", path, err)
	}
	return nil
}
