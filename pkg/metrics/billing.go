package metrics

import "github.com/prometheus/client_golang/prometheus"

// BillingMetrics counts billing lifecycle transitions and recorded payments.
type BillingMetrics struct {
	transitions *prometheus.CounterVec
	payments    *prometheus.CounterVec
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bill_transitions_total",
		Help: "Bill status transitions by target status.",
	}, []string{"to_status"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Payments recorded by final status.",
	}, []string{"status"})
	reg.MustRegister(transitions, payments)
	return &BillingMetrics{
		transitions: transitions,
		payments:    payments,
	}
}

// IncTransition increments the transition counter for the target status.
func (b *BillingMetrics) IncTransition(toStatus string) {
	if b == nil || b.transitions == nil {
		return
	}
	b.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncPayment increments the payment counter for the given status.
func (b *BillingMetrics) IncPayment(status string) {
	if b == nil || b.payments == nil {
		return
	}
	b.payments.WithLabelValues(normalizeLabel(status)).Inc()
}
