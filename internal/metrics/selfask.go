package metrics

import "github.com/prometheus/client_golang/prometheus"

// Self-ask Prometheus metrics.
var (
	SelfAskDecompositionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plenario",
			Name:      "selfask_decompositions_total",
			Help:      "Question decompositions by detected topic",
		},
		[]string{"topic"},
	)

	SelfAskSubQuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plenario",
			Name:      "selfask_subquestions_total",
			Help:      "Answered sub-questions by threshold acceptance",
		},
		[]string{"accepted"}, // "true" / "false"
	)
)

var selfAskMetricsRegistered bool

// RegisterSelfAskMetrics registers Prometheus self-ask metrics. Must be called once from main.
func RegisterSelfAskMetrics() {
	if selfAskMetricsRegistered {
		return
	}
	prometheus.MustRegister(SelfAskDecompositionsTotal)
	prometheus.MustRegister(SelfAskSubQuestionsTotal)
	selfAskMetricsRegistered = true
}
