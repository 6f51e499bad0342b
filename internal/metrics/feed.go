package metrics

import "github.com/prometheus/client_golang/prometheus"

// Feed outcomes.
const (
	OutcomeRemote     = "remote"
	OutcomeFallback   = "fallback"
	OutcomeQueryError = "query_error"
)

// Feed pipeline Prometheus metrics.
var (
	FeedLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripboard",
			Name:      "feed_loads_total",
			Help:      "Feed loads by final outcome",
		},
		[]string{"feed", "outcome"},
	)

	EnrichmentLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripboard",
			Name:      "enrichment_lookups_total",
			Help:      "Photo lookups issued while enriching feed items",
		},
		[]string{"feed", "status"}, // "ok" / "error"
	)
)

func init() {
	prometheus.MustRegister(FeedLoadsTotal)
	prometheus.MustRegister(EnrichmentLookupsTotal)
}
