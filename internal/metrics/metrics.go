// Package metrics exposes Prometheus instrumentation for the Metamob
// client, the response cache, the reports and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "monster_tracker"

// Registry holds every collector. All methods are no-ops on a nil Registry.
type Registry struct {
	registry *prometheus.Registry

	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	ReportRuns       *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	SnapshotPlayers  prometheus.Gauge
	TrackedMonsters  prometheus.Gauge
}

// NewRegistry creates a registry with process and Go runtime collectors
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metamob_requests_total",
				Help:      "Metamob API requests by endpoint and HTTP status (0 = transport failure)",
			},
			[]string{"endpoint", "status"},
		),
		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "metamob_request_duration_seconds",
				Help:      "Metamob API request latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
		ReportRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_runs_total",
				Help:      "Reports computed by name and outcome",
			},
			[]string{"report", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		SnapshotPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_players",
			Help:      "Players in the last loaded snapshot",
		}),
		TrackedMonsters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_monsters",
			Help:      "Distinct monsters in the last aggregation",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ProviderRequests,
		r.ProviderDuration,
		r.CacheLookups,
		r.ReportRuns,
		r.HTTPRequests,
		r.HTTPDuration,
		r.SnapshotPlayers,
		r.TrackedMonsters,
	)
	return r
}

// Gatherer returns the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveProviderRequest records one Metamob API call
func (r *Registry) ObserveProviderRequest(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ProviderRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.ProviderDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records a cache hit or miss
func (r *Registry) ObserveCacheLookup(kind string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(kind, result).Inc()
}

// ObserveReport records a report computation
func (r *Registry) ObserveReport(report string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.ReportRuns.WithLabelValues(report, outcome).Inc()
}

// ObserveHTTPRequest records one API request
func (r *Registry) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetSnapshotSize records the size of the last loaded snapshot and aggregation
func (r *Registry) SetSnapshotSize(players, monsters int) {
	if r == nil {
		return
	}
	r.SnapshotPlayers.Set(float64(players))
	r.TrackedMonsters.Set(float64(monsters))
}
