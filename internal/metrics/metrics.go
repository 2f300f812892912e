package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and provider metrics. Registered explicitly from main (no init()).
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "searches_total",
			Help:      "Total number of discovery searches by detected search type",
		},
		[]string{"search_type"},
	)

	LexicalFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "lexical_fallbacks_total",
			Help:      "Searches that fell back to lexical-only ranking after an embedding failure",
		},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "provider_errors_total",
			Help:      "Embedding/generation provider failures by provider and kind",
		},
		[]string{"provider", "kind"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "provider_request_duration_seconds",
			Help:      "Provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	RateLimitDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "rate_limit_denials_total",
			Help:      "Requests denied by the rate governor, by endpoint class",
		},
		[]string{"class"},
	)

	AnalyticsDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "analytics_drops_total",
			Help:      "Analytics events dropped because the pool or sink was unavailable",
		},
	)
)

// RegisterServiceMetrics registers all non-HTTP metrics with the default registry.
func RegisterServiceMetrics() {
	prometheus.MustRegister(
		SearchesTotal,
		LexicalFallbacksTotal,
		ProviderErrorsTotal,
		ProviderRequestDuration,
		RateLimitDenialsTotal,
		AnalyticsDropsTotal,
	)
}
