package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the session lifecycle.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	WarningsIssued  prometheus.Counter
	SessionsExpired prometheus.Counter
}

// New creates and registers the session metrics.
func New() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "verigate_sessions_active",
			Help: "Sessions currently registered and not expired",
		}),
		WarningsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verigate_session_warnings_total",
			Help: "Idle-timeout warnings issued",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verigate_sessions_expired_total",
			Help: "Sessions force-logged-out after idle timeout",
		}),
	}
}
