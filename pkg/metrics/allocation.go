package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AllocationMetrics records deck update activity.
type AllocationMetrics struct {
	updates  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	ordered  prometheus.Counter
}

// NewAllocationMetrics registers the allocation metrics on the provided
// registerer. A nil registerer yields a no-op instance.
func NewAllocationMetrics(reg prometheus.Registerer) *AllocationMetrics {
	if reg == nil {
		return &AllocationMetrics{}
	}
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deck_updates_total",
		Help: "Deck update computations by mode and outcome.",
	}, []string{"mode", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deck_update_duration_seconds",
		Help:    "Duration of deck update computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	ordered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cards_ordered_total",
		Help: "Cards added to order lists by applied deck updates.",
	})
	reg.MustRegister(updates, duration, ordered)
	return &AllocationMetrics{
		updates:  updates,
		duration: duration,
		ordered:  ordered,
	}
}

// IncUpdate increments the update counter for the given mode and status.
func (a *AllocationMetrics) IncUpdate(mode, status string) {
	if a == nil || a.updates == nil {
		return
	}
	a.updates.WithLabelValues(normalizeLabel(mode), normalizeLabel(status)).Inc()
}

// ObserveDiff records the duration of a diff computation.
func (a *AllocationMetrics) ObserveDiff(mode string, duration time.Duration) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.WithLabelValues(normalizeLabel(mode)).Observe(duration.Seconds())
}

// AddOrdered adds to the running count of cards sent to order lists.
func (a *AllocationMetrics) AddOrdered(n int) {
	if a == nil || a.ordered == nil || n <= 0 {
		return
	}
	a.ordered.Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
