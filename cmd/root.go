// Package cmd wires up the CLI flags and runs the collector.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"smdrcollect/config"
	"smdrcollect/internal/core"
	smerr "smdrcollect/internal/errors"
	"smdrcollect/internal/metrics"
	"smdrcollect/internal/shutdown"
	"smdrcollect/internal/status"
	"smdrcollect/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X smdrcollect/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the collector until ctx is cancelled or
// the operator presses Q.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Defaults()
	config.LoadFromEnv(cfg)
	envVerbose := cfg.Verbose

	fs := flag.NewFlagSet("smdrcollect", flag.ContinueOnError)

	// ── listener ─────────────────────────────────────────────────
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port the phone system sends SMDR to")
	fs.StringVar(&cfg.Bind, "bind", cfg.Bind, "Address to listen on (default all interfaces)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Close a connection after this long without data")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Longest wait for a connection before checking for quit")
	fs.Var(&sizeValue{&cfg.MaxRecordSize}, "max-record-size", "Drop records longer than this (e.g. 64KB, 1MB)")

	// ── output ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.Filename, "filename", "f", cfg.Filename, "CSV file to append records to")
	fs.BoolVar(&cfg.Fsync, "fsync", cfg.Fsync, "Sync the file to disk after every record")
	fs.BoolVar(&cfg.CRLF, "crlf", cfg.CRLF, "End rows with CRLF (--crlf=false for LF)")

	// ── observability ────────────────────────────────────────────
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and /stats on host:port")
	fs.BoolVar(&cfg.NoConsole, "no-console", cfg.NoConsole, "Log status lines instead of drawing the status screen")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("smdrcollect %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		printConfig(cfg)
		return nil
	}

	return run(ctx, cfg)
}

// run builds the components for cfg and runs the collector.
func run(ctx context.Context, cfg *config.Config) error {
	logger := util.NewLogger(cfg.Verbose)
	collector := metrics.New()

	// The key monitor puts the terminal in raw mode, so everything
	// written to it from here on needs CRLF line endings.
	var quit shutdown.Monitor
	raw := false
	if !cfg.NoConsole && term.IsTerminal(int(os.Stdin.Fd())) {
		keys, err := shutdown.WatchTerminal(os.Stdin)
		if err != nil {
			logger.Warn("cannot watch keyboard, use Ctrl-C to stop: %v", err)
		} else {
			defer keys.Close() //nolint:errcheck
			quit = keys
			raw = keys.Raw()
		}
	}
	if raw {
		logger.SetOutput(util.CRLFWriter(os.Stderr))
	}

	var reporter status.Reporter
	if cfg.NoConsole {
		reporter = &status.Log{Logger: logger}
	} else {
		reporter = status.ForOutput(os.Stdout, raw, logger)
	}

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.MetricsAddr, collector, logger.With("metrics"))
		if err != nil {
			logHint(logger, err)
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		defer srv.Shutdown(config.DefaultMetricsShutdownGrace) //nolint:errcheck
	}

	mode, err := core.Build(cfg, logger, core.Deps{
		Quit:     quit,
		Reporter: reporter,
		Metrics:  collector,
	})
	if err != nil {
		return err
	}

	err = mode.Run(ctx)
	if err != nil {
		logHint(logger, err)
		return err
	}

	logger.Verbose("stopped: %d record(s) committed, %d rejected",
		collector.RecordsCommitted(), collector.RecordsRejected())
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

// logHint prints the remedy attached to a network error, if any.
func logHint(logger *util.Logger, err error) {
	var ne *smerr.NetworkError
	if smerr.As(err, &ne) {
		if hint := ne.Hint(); hint != "" {
			logger.Error("%s", hint)
		}
	}
}

// sizeValue adapts a datasize.ByteSize to pflag.Value.
type sizeValue struct {
	p *datasize.ByteSize
}

func (v *sizeValue) String() string {
	if v.p == nil {
		return ""
	}
	return v.p.String()
}

func (v *sizeValue) Set(s string) error {
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	*v.p = size
	return nil
}

func (v *sizeValue) Type() string { return "size" }

func printConfig(cfg *config.Config) {
	fmt.Printf("listen:          %s\n", util.ListenAddr(cfg.Bind, cfg.Port))
	fmt.Printf("file:            %s (crlf=%t fsync=%t)\n", cfg.Filename, cfg.CRLF, cfg.Fsync)
	fmt.Printf("idle timeout:    %v\n", cfg.IdleTimeout)
	fmt.Printf("poll interval:   %v\n", cfg.PollInterval)
	fmt.Printf("max record size: %s\n", cfg.MaxRecordSize.HR())
	if cfg.MetricsAddr != "" {
		fmt.Printf("metrics:         http://%s/metrics\n", cfg.MetricsAddr)
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `SMDR Collector v%s

Receives Station Message Detail Records from a phone system over TCP and
appends them to a CSV file.  Press Q to quit.

Usage:
  smdrcollect [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  Every option can also be set as SMDR_<NAME>, e.g. SMDR_PORT=5001.
  Command-line flags take precedence.

Examples:
  smdrcollect                                 Listen on 5000, write smdr.csv
  smdrcollect -p 5001 -f /var/log/smdr.csv    Custom port and file
  smdrcollect --no-console --metrics-addr 127.0.0.1:9100
`)
}
