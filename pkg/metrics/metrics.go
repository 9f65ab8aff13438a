package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of inbound webhook deliveries (count)",
		},
		[]string{"status"},
	)

	WebhookProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_ms",
			Help:    "Processing duration for inbound webhook deliveries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	MessagesRoutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_routed_total",
			Help: "Total number of normalized messages by routing outcome (count)",
		},
		[]string{"destination"},
	)

	ForwardAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forward_attempts_total",
			Help: "Total number of downstream forwarding attempts (count)",
		},
		[]string{"destination", "status"},
	)

	ForwardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forward_duration_ms",
			Help:    "Duration of downstream forwarding calls in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"destination"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of rate limiter decisions (count)",
		},
		[]string{"status"},
	)

	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dependency_probe_duration_ms",
			Help:    "Duration of dependency liveness probes in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"dependency", "status"},
	)

	WorkerMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_messages_total",
			Help: "Total number of queued notifications handled by the worker (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through a circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failed requests through a circuit breaker (count)",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

func RegisterGatewayMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(WebhookDeliveriesTotal)
		prometheus.MustRegister(WebhookProcessingDuration)
		prometheus.MustRegister(MessagesRoutedTotal)
		prometheus.MustRegister(ForwardAttemptsTotal)
		prometheus.MustRegister(ForwardDuration)
		prometheus.MustRegister(RateLimitRequestsTotal)
		prometheus.MustRegister(ProbeDuration)
		prometheus.MustRegister(WorkerMessagesTotal)
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}
