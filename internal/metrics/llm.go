package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Language model Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total chat completion tokens",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)

	LLMRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_retries_total",
			Help:      "Chat completion requests retried after a transient failure",
		},
		[]string{"provider", "model"},
	)
)

var llmOnce sync.Once

// RegisterLLMMetrics registers language model metrics with the default registry.
func RegisterLLMMetrics() {
	llmOnce.Do(func() {
		prometheus.MustRegister(LLMRequestsTotal, LLMRequestDuration, LLMTokensTotal, LLMRetriesTotal)
	})
}
