package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	CollectionSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plenario",
			Name:      "collection_searches_total",
			Help:      "Per-collection k-NN searches during retrieval fan-out",
		},
		[]string{"collection", "status"},
	)

	CollectionSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plenario",
			Name:      "collection_search_duration_seconds",
			Help:      "Per-collection k-NN search duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"collection"},
	)

	RetrievalResultsMerged = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "plenario",
			Name:      "retrieval_results_merged",
			Help:      "Result count after merge and truncation",
			Buckets:   []float64{0, 5, 10, 20, 40, 80, 160},
		},
	)

	CollectionsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plenario",
			Name:      "collections_skipped_total",
			Help:      "Collections skipped at startup due to broken artifacts",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(CollectionSearchesTotal)
	prometheus.MustRegister(CollectionSearchDuration)
	prometheus.MustRegister(RetrievalResultsMerged)
	prometheus.MustRegister(CollectionsSkippedTotal)
	retrievalMetricsRegistered = true
}
