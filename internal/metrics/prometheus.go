package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	smerr "smdrcollect/internal/errors"
	"smdrcollect/util"
)

const namespace = "smdr"

var (
	descSessions = prometheus.NewDesc(namespace+"_sessions_total",
		"Connections accepted from the producer.", nil, nil)
	descSessionsActive = prometheus.NewDesc(namespace+"_sessions_active",
		"Connections currently being drained.", nil, nil)
	descIdleTimeouts = prometheus.NewDesc(namespace+"_idle_timeouts_total",
		"Sessions closed because the producer went quiet.", nil, nil)
	descBytes = prometheus.NewDesc(namespace+"_received_bytes_total",
		"Bytes read from the producer.", nil, nil)
	descDiscarded = prometheus.NewDesc(namespace+"_discarded_bytes_total",
		"Bytes of unterminated records dropped at session end.", nil, nil)
	descRecords = prometheus.NewDesc(namespace+"_records_total",
		"Records by outcome.", []string{"outcome"}, nil)
	descAcceptRetries = prometheus.NewDesc(namespace+"_accept_retries_total",
		"Transient accept failures that were retried.", nil, nil)
	descErrors = prometheus.NewDesc(namespace+"_errors_total",
		"Errors recorded by the collector.", nil, nil)
	descLastCommit = prometheus.NewDesc(namespace+"_last_commit_timestamp_seconds",
		"Unix time of the last committed record, 0 if none.", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		descSessions, descSessionsActive, descIdleTimeouts, descBytes,
		descDiscarded, descRecords, descAcceptRetries, descErrors, descLastCommit,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	counter(descSessions, c.TotalSessions())
	ch <- prometheus.MustNewConstMetric(descSessionsActive, prometheus.GaugeValue, float64(c.ActiveSessions()))
	counter(descIdleTimeouts, c.idleTimeouts.Load())
	counter(descBytes, c.bytesIn.Load())
	counter(descDiscarded, c.bytesDiscarded.Load())
	counter(descRecords, c.recordsCommitted.Load(), "committed")
	counter(descRecords, c.recordsMalformed.Load(), "malformed")
	counter(descRecords, c.recordsOversized.Load(), "oversized")
	counter(descAcceptRetries, c.acceptRetries.Load())
	counter(descErrors, c.errorsTotal.Load())

	var last float64
	if t := c.LastCommit(); !t.IsZero() {
		last = float64(t.UnixNano()) / 1e9
	}
	ch <- prometheus.MustNewConstMetric(descLastCommit, prometheus.GaugeValue, last)
}

// Handler serves /metrics in Prometheus text format and /stats as the
// JSON snapshot.
func Handler(c *Collector) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c.Snapshot()) //nolint:errcheck
	})
	return mux, nil
}

// Server is the optional metrics endpoint.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *util.Logger
}

// Serve binds addr and serves the metrics endpoint in the background.
// A bad or busy address is reported here, before anything is served.
// The endpoint is the only part of the collector that runs beside the
// control loop and it only reads counters.
func Serve(addr string, c *Collector, logger *util.Logger) (*Server, error) {
	h, err := Handler(c)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, smerr.Wrap("listen", addr, err)
	}
	s := &Server{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}
	logger.Verbose("metrics listening on %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener: %v", err)
		}
	}()
	return s, nil
}

// Addr returns the address the endpoint is bound to.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Shutdown stops the endpoint, waiting at most grace for in-flight
// requests.
func (s *Server) Shutdown(grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
