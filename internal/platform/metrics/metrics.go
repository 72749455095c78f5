package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type caseMetrics struct {
	transitions   *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

var caseMetricsSingleton = sync.OnceValue(func() *caseMetrics {
	return &caseMetrics{
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cases",
			Name:      "transitions_total",
			Help:      "Total number of committed case status transitions.",
		}, []string{"from", "to"}),
		conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cases",
			Name:      "store_conflicts_total",
			Help:      "Total number of optimistic-concurrency conflicts seen while saving a case.",
		}, []string{"operation"}),
		notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cases",
			Name:      "notifications_total",
			Help:      "Total number of case notification dispatches by result.",
		}, []string{"result"}),
	}
})

// Transitions expone el contador (para tests con prometheus/testutil).
func Transitions() *prometheus.CounterVec { return caseMetricsSingleton().transitions }

func Conflicts() *prometheus.CounterVec { return caseMetricsSingleton().conflicts }

func Notifications() *prometheus.CounterVec { return caseMetricsSingleton().notifications }

func ObserveTransition(from, to string) {
	caseMetricsSingleton().transitions.WithLabelValues(from, to).Inc()
}

func ObserveConflict(operation string) {
	caseMetricsSingleton().conflicts.WithLabelValues(operation).Inc()
}

// ObserveNotification: result es "sent" o "failed".
func ObserveNotification(result string) {
	caseMetricsSingleton().notifications.WithLabelValues(result).Inc()
}
