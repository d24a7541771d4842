// Package metrics provides Prometheus metrics for travel-rag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts answered requests by route and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelrag",
			Name:      "requests_total",
			Help:      "Total number of assistant requests",
		},
		[]string{"route", "outcome"},
	)

	// StageDuration measures pipeline stage latency.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travelrag",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	// RetrievalResults observes how many results a hybrid search returned.
	RetrievalResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "travelrag",
			Name:      "retrieval_results",
			Help:      "Distribution of result counts per hybrid search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// LexicalFallbackTotal counts searches that fell back to semantic-only.
	LexicalFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "travelrag",
			Name:      "lexical_fallback_total",
			Help:      "Total number of lexical failures degraded to semantic-only",
		},
	)

	// LLMRetriesTotal counts generation retries.
	LLMRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "travelrag",
			Name:      "llm_retries_total",
			Help:      "Total number of retried generation attempts",
		},
	)

	// IndexDocumentsTotal counts indexed documents by final status.
	IndexDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelrag",
			Name:      "index_documents_total",
			Help:      "Total number of documents processed by the indexer",
		},
		[]string{"status"},
	)
)

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRequest records one assistant request.
func RecordRequest(route, outcome string) {
	RequestsTotal.WithLabelValues(route, outcome).Inc()
}

// RecordIndexed records one document reaching a terminal indexing status.
func RecordIndexed(status string) {
	IndexDocumentsTotal.WithLabelValues(status).Inc()
}
