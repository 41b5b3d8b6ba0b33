// Package metrics holds the Prometheus collectors exported by scout serve.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "upstream_requests_total",
		Help:      "Total upstream requests by endpoint and status.",
	}, []string{"endpoint", "status"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scout",
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 3, 5, 10, 30},
	}, []string{"endpoint"})

	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "cache_lookups_total",
		Help:      "Session cache lookups by kind and result (hit or miss).",
	}, []string{"kind", "result"})

	EnrichmentTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "enrichment_tasks_total",
		Help:      "Enrichment tasks by outcome.",
	}, []string{"outcome"})

	EnrichmentInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scout",
		Name:      "enrichment_in_flight",
		Help:      "Enrichment requests currently outstanding.",
	})

	DedupSuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "dedup_suppressed_total",
		Help:      "Searches suppressed because the same query was just issued.",
	})

	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scout",
		Name:      "sessions",
		Help:      "Open browsing sessions held by the HTTP front end.",
	})
)

// Enrichment outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
	OutcomeCanceled = "canceled"
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		CacheLookupsTotal,
		EnrichmentTasksTotal,
		EnrichmentInFlight,
		DedupSuppressedTotal,
		Sessions,
	)
}
