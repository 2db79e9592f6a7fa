// Package metrics exposes blocker counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the blocker collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	blocks          *prometheus.CounterVec
	disabled        prometheus.Counter
	rearms          *prometheus.CounterVec
	blockedPackages prometheus.Gauge
	nextRearm       prometheus.Gauge
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appblock",
			Name:      "events_total",
			Help:      "UI events received, by kind.",
		}, []string{"kind"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appblock",
			Name:      "blocks_total",
			Help:      "Block signals raised, by package.",
		}, []string{"package"}),
		disabled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appblock",
			Name:      "service_disabled_total",
			Help:      "Times the event observer was interrupted or destroyed.",
		}),
		rearms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appblock",
			Name:      "rearms_total",
			Help:      "Daily re-arm runs, by result.",
		}, []string{"result"}),
		blockedPackages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appblock",
			Name:      "blocked_packages",
			Help:      "Number of packages in the blocked list.",
		}),
		nextRearm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appblock",
			Name:      "next_rearm_timestamp_seconds",
			Help:      "Unix time of the next scheduled re-arm.",
		}),
	}
	m.registry.MustRegister(m.events, m.blocks, m.disabled, m.rearms, m.blockedPackages, m.nextRearm)
	return m
}

// ObserveEvent counts a received event.
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// ObserveBlock counts a block signal.
func (m *Metrics) ObserveBlock(pkg string) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(pkg).Inc()
}

// ObserveDisabled counts a service-disabled signal.
func (m *Metrics) ObserveDisabled() {
	if m == nil {
		return
	}
	m.disabled.Inc()
}

// ObserveRearm counts a re-arm run; result is "ok", "skipped" or "error".
func (m *Metrics) ObserveRearm(result string) {
	if m == nil {
		return
	}
	m.rearms.WithLabelValues(result).Inc()
}

// SetBlockedPackages records the blocked list size.
func (m *Metrics) SetBlockedPackages(n int) {
	if m == nil {
		return
	}
	m.blockedPackages.Set(float64(n))
}

// SetNextRearm records the next re-arm time.
func (m *Metrics) SetNextRearm(t time.Time) {
	if m == nil {
		return
	}
	m.nextRearm.Set(float64(t.Unix()))
}

// Registry returns the private registry (for tests and custom exporters).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
