package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels calls the backend accepted.
	OutcomeSuccess = "success"
	// OutcomeError labels rejected or failed calls.
	OutcomeError = "error"
)

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsight",
			Name:      "backend_requests_total",
			Help:      "Total outbound Datadog API calls, partitioned by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	backendRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsight",
			Name:      "backend_request_seconds",
			Help:      "Outbound Datadog API call latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	heartbeatTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsight",
			Name:      "heartbeat_ticks_total",
			Help:      "Heartbeat loop iterations, partitioned by submission outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches opsight collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		backendRequestsTotal,
		backendRequestSeconds,
		heartbeatTicksTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveBackendRequest records one outbound call.
func ObserveBackendRequest(operation string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	backendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	backendRequestSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveHeartbeatTick records one heartbeat loop iteration.
func ObserveHeartbeatTick(err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	heartbeatTicksTotal.WithLabelValues(outcome).Inc()
}
