package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline Prometheus metrics.
var (
	RetrievalHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_hits",
			Help:      "Hits returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	RetrievalDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_degraded_total",
			Help:      "Retrievals that fell back to no context",
		},
		[]string{"stage"}, // "embed" / "search"
	)

	RewritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_rewrites_total",
			Help:      "Query rewrite outcomes",
		},
		[]string{"outcome"}, // "rewritten" / "fallback" / "skipped"
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers by generation path",
		},
		[]string{"path"},
	)

	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_indexed_total",
			Help:      "Chunks written to the vector index",
		},
	)

	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Uploaded documents by outcome",
		},
		[]string{"status"},
	)

	ScopesReclaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scopes_reclaimed_total",
			Help:      "Idle scopes reclaimed by the reaper",
		},
	)
)

var ragOnce sync.Once

// RegisterRAGMetrics registers pipeline metrics with the default registry.
func RegisterRAGMetrics() {
	ragOnce.Do(func() {
		prometheus.MustRegister(
			RetrievalHits,
			RetrievalDegradedTotal,
			RewritesTotal,
			AnswersTotal,
			ChunksIndexedTotal,
			DocumentsIndexedTotal,
			ScopesReclaimedTotal,
		)
	})
}
