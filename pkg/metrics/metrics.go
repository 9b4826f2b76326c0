// Package metrics exposes Prometheus metrics for the league analyzer:
// refresh and resolver activity, leaderboard build performance, cache
// behavior, and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service registers.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	roundsRefreshed   prometheus.Counter
	refreshErrors     prometheus.Counter
	roundsStored      prometheus.Gauge
	playersTracked    prometheus.Gauge
	leaderboardBuilds *prometheus.CounterVec
	leaderboardErrors *prometheus.CounterVec
	buildDuration     *prometheus.HistogramVec
	clashesDetected   prometheus.Counter
	clashesRetracted  prometheus.Counter
	clashesActive     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry overrides the registry collectors attach to.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager builds and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "offsuit",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.roundsRefreshed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "rounds_refreshed_total",
		Help: "Rounds upserted from the scoreboard API.",
	})
	m.refreshErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "refresh_errors_total",
		Help: "Failed scoreboard refresh attempts.",
	})
	m.roundsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "rounds_stored",
		Help: "Rounds currently in the repository.",
	})
	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "players_tracked",
		Help: "Distinct player names across the stored history.",
	})
	m.leaderboardBuilds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "leaderboard_builds_total",
		Help: "Leaderboard computations by kind.",
	}, []string{"kind"})
	m.leaderboardErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "leaderboard_errors_total",
		Help: "Failed leaderboard computations by kind.",
	}, []string{"kind"})
	m.buildDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "leaderboard_build_seconds",
		Help:    "Leaderboard build duration by kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	m.clashesDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "name_clashes_detected_total",
		Help: "New name clash records persisted by the resolver.",
	})
	m.clashesRetracted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "name_clashes_retracted_total",
		Help: "Stale name clash records deleted by the resolver.",
	})
	m.clashesActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "name_clashes_active",
		Help: "Name clash records currently persisted.",
	})
	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "cache_hits_total",
		Help: "Leaderboard cache hits.",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "cache_misses_total",
		Help: "Leaderboard cache misses.",
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "http_request_seconds",
		Help:    "HTTP request duration by endpoint and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method"})

	return m
}

// Global manager; the service only ever needs one.
var global = NewManager()

// Registry returns the registry the /metrics endpoint serves.
func Registry() *prometheus.Registry { return global.registry }

func RecordRoundsRefreshed(n int) { global.roundsRefreshed.Add(float64(n)) }
func RecordRefreshError()         { global.refreshErrors.Inc() }
func UpdateRoundsStored(n int)    { global.roundsStored.Set(float64(n)) }
func UpdatePlayersTracked(n int)  { global.playersTracked.Set(float64(n)) }

func RecordLeaderboardBuild(kind string, seconds float64) {
	global.leaderboardBuilds.WithLabelValues(kind).Inc()
	global.buildDuration.WithLabelValues(kind).Observe(seconds)
}

func RecordLeaderboardError(kind string) {
	global.leaderboardErrors.WithLabelValues(kind).Inc()
}

func RecordClashesDetected(n int)  { global.clashesDetected.Add(float64(n)) }
func RecordClashesRetracted(n int) { global.clashesRetracted.Add(float64(n)) }
func UpdateClashesActive(n int)    { global.clashesActive.Set(float64(n)) }

func RecordCacheHit()  { global.cacheHits.Inc() }
func RecordCacheMiss() { global.cacheMisses.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	global.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPDuration(endpoint, method string, seconds float64) {
	global.httpDuration.WithLabelValues(endpoint, method).Observe(seconds)
}
