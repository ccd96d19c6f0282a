package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds gateway-wide Prometheus metrics. Module-specific metrics live
// in their own packages (internal/session/metrics, internal/payment/metrics).
type Metrics struct {
	LoginsTotal        *prometheus.CounterVec
	BackendRequests    *prometheus.CounterVec
	BackendDurationSec *prometheus.HistogramVec
}

// New creates and registers all gateway-wide Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		BackendRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_backend_requests_total",
			Help: "Upstream backend API requests by endpoint group and outcome",
		}, []string{"group", "outcome"}),
		BackendDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verigate_backend_request_duration_seconds",
			Help:    "Upstream backend API request latency",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"group"}),
	}
}
