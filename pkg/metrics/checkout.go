package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CheckoutMetrics records order placement outcomes.
type CheckoutMetrics struct {
	placed     *prometheus.CounterVec
	failed     *prometheus.CounterVec
	orderValue prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op instance, which tests rely on.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed, labelled by payment method.",
	}, []string{"payment_method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Order placements rolled back, labelled by reason.",
	}, []string{"reason"})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_value",
		Help:    "Final order totals after discounts.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	reg.MustRegister(placed, failed, orderValue)
	return &CheckoutMetrics{
		placed:     placed,
		failed:     failed,
		orderValue: orderValue,
	}
}

// IncPlaced increments the placed counter for the given payment method.
func (m *CheckoutMetrics) IncPlaced(paymentMethod string) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncFailed increments the failure counter for the given reason.
func (m *CheckoutMetrics) IncFailed(reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveOrderValue records a committed order total.
func (m *CheckoutMetrics) ObserveOrderValue(total decimal.Decimal) {
	if m == nil || m.orderValue == nil {
		return
	}
	f, _ := total.Float64()
	m.orderValue.Observe(f)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
