package core

import (
	"smdrcollect/config"
	"smdrcollect/internal/csvlog"
	"smdrcollect/internal/metrics"
	"smdrcollect/internal/retry"
	"smdrcollect/internal/shutdown"
	"smdrcollect/internal/status"
	"smdrcollect/util"
)

// Deps carries the process-level collaborators that do not come from
// the Config: how quit is detected, where status goes and which
// collector receives the counters.
type Deps struct {
	Quit     shutdown.Monitor
	Reporter status.Reporter
	Metrics  *metrics.Collector
}

// Build constructs the collector Mode from the given configuration.
// cfg is expected to have passed Validate.
func Build(cfg *config.Config, logger *util.Logger, deps Deps) (Mode, error) {
	return buildCollect(cfg, logger, deps), nil
}

func buildCollect(cfg *config.Config, logger *util.Logger, deps Deps) *CollectMode {
	reporter := deps.Reporter
	if reporter == nil {
		reporter = status.Nop{}
	}
	quit := deps.Quit
	if quit == nil {
		quit = shutdown.Never{}
	}

	return &CollectMode{
		Address:       util.ListenAddr(cfg.Bind, cfg.Port),
		PollInterval:  cfg.PollInterval,
		IdleTimeout:   cfg.IdleTimeout,
		MaxRecordSize: int(cfg.MaxRecordSize.Bytes()),
		LogPath:       cfg.Filename,
		LogOptions: csvlog.Options{
			CRLF:  cfg.CRLF,
			Fsync: cfg.Fsync,
		},
		Quit:     quit,
		Reporter: reporter,
		Metrics:  deps.Metrics,
		Backoff:  retry.AcceptBackoff(config.DefaultMaxAcceptRetries, config.DefaultMaxAcceptBackoff),
		Logger:   logger,
	}
}
