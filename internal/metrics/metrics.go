// Package metrics holds the prometheus collectors shared by the engine, the
// lookup fetcher, the cache backends and the HTTP layer. Collectors register
// with the default registry at init and are served by promhttp on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "iparuby"

// Engine metrics.
var (
	PassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_passes_total",
			Help:      "Scan and translate passes run by annotation engines",
		},
	)

	AnnotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_inserted_total",
			Help:      "Ruby annotation sinks inserted into documents",
		},
	)

	ResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phrases_resolved_total",
			Help:      "Phrases resolved, by outcome",
		},
		[]string{"outcome"}, // "ipa" / "empty" / "fallback"
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phrase_cache_total",
			Help:      "Phrase cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)
)

// Lookup metrics.
var (
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Remote dictionary lookups, by outcome",
		},
		[]string{"outcome"}, // "ok" / "empty" / "error"
	)

	LookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Remote dictionary lookup duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	LookupsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookups_in_flight",
			Help:      "Remote dictionary lookups currently in flight",
		},
	)
)

// Pipeline metrics.
var (
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Annotation jobs finished, by final status",
		},
		[]string{"status"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_queue_depth",
			Help:      "Annotation jobs waiting for a worker",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PassesTotal,
		AnnotationsTotal,
		ResolvedTotal,
		CacheTotal,
		LookupsTotal,
		LookupDuration,
		LookupsInFlight,
		JobsTotal,
		QueueDepth,
	)
}
