package config

import (
	"time"

	"github.com/c2h5oh/datasize"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the TCP port the phone system connects to.
	DefaultPort = 5000

	// DefaultFilename is the output CSV, relative to the working directory.
	DefaultFilename = "smdr.csv"

	// DefaultPollInterval bounds each accept wait so the quit monitor is
	// checked at least this often while no producer is connected.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultIdleTimeout is how long a session may go without receiving
	// a byte before it is closed.
	DefaultIdleTimeout = 1 * time.Second

	// DefaultMaxRecordSize caps the bytes buffered for one record.  Real
	// SMDR rows are well under 1KB.
	DefaultMaxRecordSize = 64 * datasize.KB

	// DefaultMaxAcceptRetries is how many consecutive transient accept
	// failures are tolerated before the collector gives up.
	DefaultMaxAcceptRetries = 10

	// DefaultMaxAcceptBackoff caps the wait between accept retries.
	DefaultMaxAcceptBackoff = 5 * time.Second

	// DefaultMetricsShutdownGrace is how long the metrics endpoint gets
	// to finish in-flight scrapes at exit.
	DefaultMetricsShutdownGrace = 2 * time.Second
)

// Defaults returns a Config populated with every default value.
func Defaults() *Config {
	return &Config{
		Port:          DefaultPort,
		Filename:      DefaultFilename,
		PollInterval:  DefaultPollInterval,
		IdleTimeout:   DefaultIdleTimeout,
		MaxRecordSize: DefaultMaxRecordSize,
		CRLF:          true,
	}
}
