package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReservationMetrics records reservation outcomes under contention.
type ReservationMetrics struct {
	outcomes *prometheus.CounterVec
}

const (
	OutcomeReserved     = "reserved"
	OutcomeInsufficient = "insufficient_inventory"
	OutcomeConfirmed    = "confirmed"
	OutcomeExpired      = "expired"
	OutcomeCancelled    = "cancelled"
	OutcomeFailed       = "failed"
)

// NewReservationMetrics registers the reservation metrics on the provided registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_outcomes_total",
		Help: "Reservation lifecycle outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &ReservationMetrics{outcomes: outcomes}
}

// Inc counts one reservation outcome.
func (r *ReservationMetrics) Inc(outcome string) {
	if r == nil || r.outcomes == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	r.outcomes.WithLabelValues(outcome).Inc()
}
