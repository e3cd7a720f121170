package metrics

import "github.com/prometheus/client_golang/prometheus"

// ListingMetrics records marketplace listing outcomes.
type ListingMetrics struct {
	outcomes *prometheus.CounterVec
}

const (
	ListingOutcomeListed    = "listed"
	ListingOutcomeSold      = "sold"
	ListingOutcomeCancelled = "cancelled"
	ListingOutcomeExpired   = "expired"
)

// NewListingMetrics registers the listing metrics on the provided registerer.
func NewListingMetrics(reg prometheus.Registerer) *ListingMetrics {
	if reg == nil {
		return &ListingMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_listing_outcomes_total",
		Help: "Marketplace listing lifecycle outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &ListingMetrics{outcomes: outcomes}
}

// Inc counts one listing outcome.
func (l *ListingMetrics) Inc(outcome string) {
	if l == nil || l.outcomes == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	l.outcomes.WithLabelValues(outcome).Inc()
}
