// Package metrics exposes Prometheus counters for inventory queries and
// remediation dispatch. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "patchctl"

// maxLabelLen caps label values so a malformed query name can't blow up cardinality.
const maxLabelLen = 64

func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

// Metrics holds the collectors. Each instance owns its registry so tests can
// create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	queries       *prometheus.CounterVec
	queryFailures *prometheus.CounterVec
	parseDrops    prometheus.Counter
	commands      *prometheus.CounterVec
	commandFails  *prometheus.CounterVec
	inFlight      prometheus.Gauge
	cycles        prometheus.Counter
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "queries_total",
			Help:      "Resource Graph queries issued, by classification",
		}, []string{"query"}),
		queryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "query_failures_total",
			Help:      "Resource Graph queries that failed and degraded to an empty set",
		}, []string{"query"}),
		parseDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "parse_drops_total",
			Help:      "Rows dropped because the resource ID could not be parsed",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Remediation commands submitted, by kind",
		}, []string{"kind"}),
		commandFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "command_failures_total",
			Help:      "Remediation command submissions that failed, by kind",
		}, []string{"kind"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "in_flight",
			Help:      "Command submissions currently running",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "refresh_cycles_total",
			Help:      "Completed gathering cycles",
		}),
	}

	m.registry.MustRegister(
		m.queries,
		m.queryFailures,
		m.parseDrops,
		m.commands,
		m.commandFails,
		m.inFlight,
		m.cycles,
	)
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// QueryIssued records one inventory query.
func (m *Metrics) QueryIssued(query string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(sanitizeLabel(query)).Inc()
}

// QueryFailed records an inventory query that degraded to an empty set.
func (m *Metrics) QueryFailed(query string) {
	if m == nil {
		return
	}
	m.queryFailures.WithLabelValues(sanitizeLabel(query)).Inc()
}

// ParseDropped records rows dropped for unparseable resource IDs.
func (m *Metrics) ParseDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.parseDrops.Add(float64(n))
}

// CommandStarted marks a submission as in flight.
func (m *Metrics) CommandStarted(kind string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(sanitizeLabel(kind)).Inc()
	m.inFlight.Inc()
}

// CommandFinished clears the in-flight mark and records failures.
func (m *Metrics) CommandFinished(kind string, err error) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	if err != nil {
		m.commandFails.WithLabelValues(sanitizeLabel(kind)).Inc()
	}
}

// CycleCompleted records a finished gathering cycle.
func (m *Metrics) CycleCompleted() {
	if m == nil {
		return
	}
	m.cycles.Inc()
}

// Handler returns the HTTP handler serving /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return r
}

// Serve listens on addr until ctx is done. An empty addr disables the listener.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil || addr == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
