package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// QueriesTotal counts query requests by outcome: success, bad_request, error.
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aiproxy",
		Name:      "queries_total",
		Help:      "Total number of prompt queries handled, labeled by result.",
	}, []string{"result"})

	// QueryDurationSeconds is the time spent draining the query capability.
	QueryDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aiproxy",
		Name:      "query_duration_seconds",
		Help:      "Time spent waiting for the AI query capability to finish.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
	})

	// NotificationsTotal counts published query results by outcome: sent, failed, dropped.
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aiproxy",
		Name:      "notifications_total",
		Help:      "Total number of query results published to Telegram, labeled by result.",
	}, []string{"result"})

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aiproxy",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the per-client rate limiter.",
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			QueriesTotal,
			QueryDurationSeconds,
			NotificationsTotal,
			RateLimitedTotal,
		)
	})
}
