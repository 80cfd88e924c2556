package push

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the push collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registered        prometheus.Counter
	deactivated       prometheus.Counter
	deliveries        *prometheus.CounterVec
	broadcastDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registered: factory.NewCounter(prometheus.CounterOpts{
			Name: "push_subscriptions_registered_total",
			Help: "Subscriptions created or reactivated.",
		}),
		deactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "push_subscriptions_deactivated_total",
			Help: "Unsubscribe requests applied to the store.",
		}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Delivery attempts by outcome.",
		}, []string{"outcome"}),
		broadcastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "push_broadcast_duration_seconds",
			Help:    "Wall time of a full broadcast.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) incRegistered() {
	if m != nil {
		m.registered.Inc()
	}
}

func (m *Metrics) incDeactivated() {
	if m != nil {
		m.deactivated.Inc()
	}
}

func (m *Metrics) observeDelivery(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Expired() {
			outcome = "expired"
		}
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeBroadcast(start time.Time) {
	if m != nil {
		m.broadcastDuration.Observe(time.Since(start).Seconds())
	}
}
