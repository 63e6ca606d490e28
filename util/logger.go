// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.  Loggers derived with [Logger.With] share the
// parent's output, level and lock.
type Logger struct {
	core   *logCore
	prefix string
}

type logCore struct {
	mu         sync.Mutex
	level      LogLevel
	output     io.Writer
	timestamps bool
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
//
// Errors and warnings always print; the collector runs unattended and a
// dropped record must leave a trace even in quiet mode.
func NewLogger(verbosity int) *Logger {
	return &Logger{core: &logCore{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3,
	}}
}

// With returns a logger that prepends "name: " to every message.
func (l *Logger) With(name string) *Logger {
	p := name + ": "
	if l.prefix != "" {
		p = l.prefix + p
	}
	return &Logger{core: l.core, prefix: p}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.core.mu.Lock()
	l.core.timestamps = on
	l.core.mu.Unlock()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	l.core.output = w
	l.core.mu.Unlock()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.core.level }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.core.level >= LogNormal {
		l.write("INF", format, args...)
	}
}

// Warn always prints.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("WRN", format, args...)
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.core.level >= LogVerbose {
		l.write("VRB", format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.core.level >= LogDebug {
		l.write("DBG", format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERR", format, args...)
}

func (l *Logger) write(level, format string, args ...interface{}) {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := l.prefix + fmt.Sprintf(format, args...)
	if c.timestamps {
		ts := time.Now().Format("15:04:05.000")
		fmt.Fprintf(c.output, "%s [%s] %s\n", ts, level, msg)
	} else {
		fmt.Fprintf(c.output, "[%s] %s\n", level, msg)
	}
}
