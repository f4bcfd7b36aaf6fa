package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec
	CapabilityDuration *prometheus.HistogramVec
	ErrorsCount        *prometheus.CounterVec
	Cancellations      *prometheus.CounterVec
	BookingsCreated    prometheus.Counter
}

// NewMetrics creates new prometheus metrics registered on the default registry
func NewMetrics(namespace string) *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewMetricsWithRegistry registers metrics on reg. Tests pass a fresh registry so
// repeated construction does not panic on duplicate registration.
func NewMetricsWithRegistry(reg prometheus.Registerer, namespace string) *Metrics {
	return newMetrics(promauto.With(reg), namespace)
}

func newMetrics(factory promauto.Factory, namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "The total number of conversation turns by routed intent",
		}, []string{"intent"}),
		CapabilityDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capability_duration_seconds",
			Help:      "Time taken by capability invocations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of capability errors by kind",
		}, []string{"kind"}),
		Cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancellation protocol outcomes",
		}, []string{"outcome"}),
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "The total number of reservations created",
		}),
	}
}
