package bedrock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gourmand_bedrock_requests_total",
			Help: "Total number of Bedrock API calls by operation and result",
		},
		[]string{"operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gourmand_bedrock_request_duration_seconds",
			Help:    "Bedrock API call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"operation"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gourmand_bedrock_errors_total",
			Help: "Total number of failed Bedrock API calls by error code",
		},
		[]string{"operation", "code"},
	)

	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gourmand_bedrock_tokens_total",
			Help: "Total tokens consumed by Converse calls",
		},
		[]string{"model", "direction"},
	)

	stopReasons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gourmand_converse_stop_reasons_total",
			Help: "Total number of Converse replies by stop reason",
		},
		[]string{"model", "stop_reason"},
	)

	limiterWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gourmand_bedrock_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the client-side rate limiter",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// observe records the outcome of one call.
func observe(op string, seconds float64, err error) {
	requestDuration.WithLabelValues(op).Observe(seconds)
	if err != nil {
		requestsTotal.WithLabelValues(op, "error").Inc()
		return
	}
	requestsTotal.WithLabelValues(op, "success").Inc()
}
