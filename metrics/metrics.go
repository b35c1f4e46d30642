// Package metrics exposes Prometheus instrumentation for the pipeline. The
// serve command mounts Handler on the configured metrics address; one-shot runs
// still increment counters so a scrape between runs reflects the last cycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MentionsCollected counts raw mentions per collector source.
	MentionsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpinepulse_mentions_collected_total",
		Help: "Raw mentions collected, before deduplication.",
	}, []string{"source"})

	// CollectorFailures counts collector errors (the run continues without them).
	CollectorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpinepulse_collector_failures_total",
		Help: "Collector calls that returned an error.",
	}, []string{"source"})

	// MentionsAnalyzed counts classified mentions by mode: service or fallback.
	MentionsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpinepulse_mentions_analyzed_total",
		Help: "Mentions classified, labeled by classification mode.",
	}, []string{"mode"})

	// BatchFallbacks counts whole batches degraded to the keyword classifier.
	BatchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alpinepulse_batch_fallbacks_total",
		Help: "Annotation batches that fell back to the keyword classifier.",
	})

	// RunsTotal counts pipeline runs by final status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpinepulse_runs_total",
		Help: "Pipeline runs by status.",
	}, []string{"status"})

	// RunDuration observes end-to-end run time in seconds.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alpinepulse_run_duration_seconds",
		Help:    "End-to-end pipeline run duration.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
