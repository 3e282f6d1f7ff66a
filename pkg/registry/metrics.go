package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus collectors of one Registry. A nil *metrics
// records nothing.
type metrics struct {
	pooledResources  prometheus.Gauge
	registrations    prometheus.Gauge
	resourcesCreated prometheus.Counter
	entriesDelivered prometheus.Counter
	entriesDropped   *prometheus.CounterVec
	handlerErrors    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	const subsystem = "registry"

	return &metrics{
		pooledResources: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pooled_resources",
			Help:      "Number of native observation resources held by the pool",
		}),
		registrations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registrations",
			Help:      "Number of (element, resource) registrations",
		}),
		resourcesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resources_created_total",
			Help:      "Total number of native observation resources created",
		}),
		entriesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entries_delivered_total",
			Help:      "Total number of change entries delivered to subscribers",
		}),
		entriesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entries_dropped_total",
			Help:      "Total number of change entries without a subscriber",
		}, []string{"reason"}),
		handlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handler_errors_total",
			Help:      "Total number of subscriber failures during dispatch",
		}, []string{"kind"}),
	}
}

func (m *metrics) setSizes(resources, registrations int) {
	if m == nil {
		return
	}
	m.pooledResources.Set(float64(resources))
	m.registrations.Set(float64(registrations))
}

func (m *metrics) created() {
	if m == nil {
		return
	}
	m.resourcesCreated.Inc()
}

func (m *metrics) delivered() {
	if m == nil {
		return
	}
	m.entriesDelivered.Inc()
}

func (m *metrics) dropped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.entriesDropped.WithLabelValues(reason).Add(float64(n))
}

func (m *metrics) failed(kind string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(kind).Inc()
}
