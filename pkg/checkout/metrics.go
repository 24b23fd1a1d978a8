package checkout

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"storefront/pkg/cart"
)

// Metrics records checkout outcomes.
type Metrics struct {
	CheckoutsTotal       *prometheus.CounterVec
	CheckoutDuration     prometheus.Histogram
	NotificationFailures prometheus.Counter
}

// NewMetrics creates the checkout metrics and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_total",
			Help:      "Checkout attempts by result",
		}, []string{"result"}),
		CheckoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "checkout_duration_seconds",
			Help:      "Checkout duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "notification_failures_total",
			Help:      "Order notifications that failed after commit",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CheckoutsTotal, m.CheckoutDuration, m.NotificationFailures)
	}
	return m
}

func (m *Metrics) observe(err error, elapsed time.Duration) {
	m.CheckoutsTotal.WithLabelValues(resultLabel(err)).Inc()
	m.CheckoutDuration.Observe(elapsed.Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoActiveCart):
		return "no_active_cart"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, cart.ErrValidation):
		return "validation"
	case errors.Is(err, ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "error"
}
