// Package metrics holds the Prometheus collectors of the travel organizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkordes/travel-organizer/internal/domain"
)

// Booking mutation labels.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
)

// Metrics tracks date-range cache efficiency, conflicts and booking churn.
type Metrics struct {
	CacheReads       *prometheus.CounterVec
	DateConflicts    *prometheus.CounterVec
	BookingMutations *prometheus.CounterVec
	AggregatesCached prometheus.Gauge
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests
// so repeated calls do not collide on the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheReads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trip_date_cache_reads_total",
			Help: "Reads of a trip's booked date range, by cache result",
		}, []string{"result"}),
		DateConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trip_date_conflicts_total",
			Help: "Declared trip dates found not to cover the bookings, by bound",
		}, []string{"kind"}),
		BookingMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_mutations_total",
			Help: "Bookings added, updated or removed",
		}, []string{"op"}),
		AggregatesCached: f.NewGauge(prometheus.GaugeOpts{
			Name: "trip_aggregates_cached",
			Help: "Trip aggregates currently held in memory",
		}),
	}
}

// ObserveCacheRead records whether a range read was served from the cache.
func (m *Metrics) ObserveCacheRead(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheReads.WithLabelValues(result).Inc()
}

// ObserveConflict records a detected conflict. A nil conflict is ignored.
func (m *Metrics) ObserveConflict(c *domain.DateConflict) {
	if c == nil {
		return
	}
	m.DateConflicts.WithLabelValues(string(c.Kind)).Inc()
}

// IncrementBookingMutation records a persisted booking change.
func (m *Metrics) IncrementBookingMutation(op string) {
	m.BookingMutations.WithLabelValues(op).Inc()
}

// SetAggregatesCached reports the size of the in-memory trip store.
func (m *Metrics) SetAggregatesCached(n int) {
	m.AggregatesCached.Set(float64(n))
}
