package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generative-model and ingestion Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "llm_requests_total",
			Help:      "Total number of generative-model requests",
		},
		[]string{"operation", "status"}, // operation: generate / embed
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bazaar",
			Name:      "llm_request_duration_seconds",
			Help:      "Generative-model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	MediaProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "media_processed_total",
			Help:      "Media items processed during ingestion",
		},
		[]string{"kind", "status"}, // status: ok / degraded
	)

	RecordsPersistedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "records_persisted_total",
			Help:      "Records written through the multi-store fan-out",
		},
		[]string{"type", "status"}, // status: ok / partial / error
	)

	RerankTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "rerank_total",
			Help:      "Retrieval rerank outcomes",
		},
		[]string{"outcome"}, // reordered / fallback / empty
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers pipeline metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(MediaProcessedTotal)
	prometheus.MustRegister(RecordsPersistedTotal)
	prometheus.MustRegister(RerankTotal)
	llmMetricsRegistered = true
}
