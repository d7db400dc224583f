// Package metrics provides Prometheus metrics for the chat service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequestsTotal counts chat requests by outcome.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"outcome"},
	)

	// StageDuration measures each chat stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newschat",
			Name:      "chat_stage_duration_seconds",
			Help:      "Duration of chat pipeline stages in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	// StoreOperationsTotal counts session store operations by result.
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "session_store_operations_total",
			Help:      "Total number of session store operations",
		},
		[]string{"operation", "status"},
	)

	// SessionResetsTotal counts mismatched session records replaced by an empty log.
	SessionResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "session_resets_total",
			Help:      "Total number of session records reset because of a shape mismatch",
		},
	)

	// RateLimitedTotal counts requests rejected by the per-client limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "rate_limited_requests_total",
			Help:      "Total number of requests rejected by rate limiting",
		},
		[]string{"route"},
	)

	// CorpusSize tracks the number of indexed articles.
	CorpusSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newschat",
			Name:      "corpus_articles",
			Help:      "Number of articles in the corpus index",
		},
	)

	// CorpusReady is 1 once the corpus index answers queries.
	CorpusReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newschat",
			Name:      "corpus_ready",
			Help:      "Corpus index readiness (1 = ready, 0 = building)",
		},
	)
)

// RecordChat records the outcome of a chat request.
func RecordChat(outcome string) {
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a chat stage took.
func ObserveStage(stage string, elapsed time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordStoreOperation records a session store operation.
func RecordStoreOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordRateLimited records a rejected request for route.
func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

// SetCorpus publishes corpus readiness and size.
func SetCorpus(ready bool, size int) {
	CorpusSize.Set(float64(size))
	if ready {
		CorpusReady.Set(1)
	} else {
		CorpusReady.Set(0)
	}
}
