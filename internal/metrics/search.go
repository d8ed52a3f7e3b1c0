package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend label values.
const (
	BackendIndex    = "index"
	BackendFallback = "fallback"
)

// Fallback reason label values.
const (
	ReasonIneligible  = "ineligible"
	ReasonEngineError = "engine_error"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search calls by serving backend",
		},
		[]string{"entity", "backend"},
	)

	SearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entsearch",
			Name:      "search_fallback_total",
			Help:      "Total number of searches served by the fallback searcher",
		},
		[]string{"entity", "reason"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "entsearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"entity"},
	)

	FlagRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entsearch",
			Name:      "flag_refresh_total",
			Help:      "Eligibility flag refreshes",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchFallbackTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(FlagRefreshTotal)
	searchMetricsRegistered = true
}
