package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	CleanupRemoved = "removed"
	CleanupFailed  = "failed"
)

// LifecycleMetrics records catalog lifecycle operations and the artifact
// cleanup they trigger. A nil *LifecycleMetrics is a valid no-op.
type LifecycleMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	cleanup  *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "operation_duration_seconds",
		Help:      "Duration of catalog lifecycle operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "operation_failures_total",
		Help:      "Failed catalog lifecycle operations by error code.",
	}, []string{"operation", "code"})
	cleanup := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "artifact_cleanup_total",
		Help:      "Artifact deletions performed as compensation or after commit.",
	}, []string{"operation", "result"})
	reg.MustRegister(duration, failures, cleanup)
	return &LifecycleMetrics{
		duration: duration,
		failures: failures,
		cleanup:  cleanup,
	}
}

// Observe records one finished operation. code is empty on success.
func (m *LifecycleMetrics) Observe(operation string, elapsed time.Duration, code string) {
	if m == nil || m.duration == nil {
		return
	}
	operation = normalizeLabel(operation)
	outcome := OutcomeSuccess
	if code != "" {
		outcome = OutcomeFailure
		m.failures.WithLabelValues(operation, code).Inc()
	}
	m.duration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

// ObserveCleanup counts artifact deletions; failed deletions are orphans.
func (m *LifecycleMetrics) ObserveCleanup(operation string, removed, failed int) {
	if m == nil || m.cleanup == nil {
		return
	}
	operation = normalizeLabel(operation)
	if removed > 0 {
		m.cleanup.WithLabelValues(operation, CleanupRemoved).Add(float64(removed))
	}
	if failed > 0 {
		m.cleanup.WithLabelValues(operation, CleanupFailed).Add(float64(failed))
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
