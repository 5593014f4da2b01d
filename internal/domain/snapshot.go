package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TripSnapshot is a point-in-time copy of a trip and everything derived from it.
// Unlike *Trip it is a plain value and safe to hand to other goroutines.
type TripSnapshot struct {
	ID        uuid.UUID
	Name      string
	StartDate *Day
	EndDate   *Day
	Notes     string
	TimeZone  string
	CreatedAt time.Time
	UpdatedAt time.Time

	Version     uint64
	BookedRange *DateRange    // nil when the trip has no bookings
	Conflict    *DateConflict // nil when the declared window covers every booking
	Bookings    []BookingSnapshot
}

// BookingSnapshot is a value copy of a Booking. Exactly one of the detail
// pointers is set, matching Kind.
type BookingSnapshot struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	Kind      BookingKind
	Start     time.Time
	End       time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Lodging        *LodgingDetails
	Transportation *TransportationDetails
	Activity       *ActivityDetails
}

// Snapshot copies the trip. Bookings are ordered by start time, then ID.
func (t *Trip) Snapshot() TripSnapshot {
	s := TripSnapshot{
		ID:        t.ID,
		Name:      t.Name,
		StartDate: copyDay(t.StartDate),
		EndDate:   copyDay(t.EndDate),
		Notes:     t.Notes,
		TimeZone:  t.location().String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Version:   t.version,
		Conflict:  t.DeclaredDateConflict(),
		Bookings:  make([]BookingSnapshot, 0, len(t.bookings)),
	}
	if r, ok := t.CachedDateRange(); ok {
		s.BookedRange = &r
	}
	for _, b := range t.bookings {
		s.Bookings = append(s.Bookings, SnapshotBooking(b))
	}
	slices.SortFunc(s.Bookings, func(a, b BookingSnapshot) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return s
}

// SnapshotBooking copies a single booking.
func SnapshotBooking(b Booking) BookingSnapshot {
	s := BookingSnapshot{
		ID:        b.ID(),
		Kind:      b.Kind(),
		Start:     b.Start(),
		End:       b.End(),
		Notes:     b.Notes(),
		CreatedAt: b.CreatedAt(),
		UpdatedAt: b.UpdatedAt(),
	}
	if trip := b.Trip(); trip != nil {
		s.TripID = trip.ID
	}
	switch v := b.(type) {
	case *Lodging:
		d := v.LodgingDetails
		s.Lodging = &d
	case *Transportation:
		d := v.TransportationDetails
		s.Transportation = &d
	case *Activity:
		d := v.ActivityDetails
		s.Activity = &d
	}
	return s
}

func copyDay(d *Day) *Day {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
