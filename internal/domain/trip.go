// Package domain contains the core types of the travel organizer.
// A Trip is the aggregate root; its Bookings are the only date-bearing records
// below it, and the trip caches the day range they span.
// This package depends on nothing but the standard library and google/uuid and
// is imported by every other internal package (repo, service, handler).
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Trip is the aggregate root for a single journey.
//
// StartDate and EndDate are the window the traveller declared; they are
// independent of the bookings and either may be nil. Bookings are only ever
// added, removed or re-dated through Trip and Booking methods, each of which
// bumps the trip's content version. The cached booking range is recomputed
// lazily the first time it is read after a bump.
//
// A Trip is not safe for concurrent use. Callers serialise access.
type Trip struct {
	ID        uuid.UUID
	Name      string
	StartDate *Day
	EndDate   *Day
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	loc      *time.Location
	bookings []Booking
	version  uint64
	cache    dateRangeCache
}

// NewTrip returns an empty trip whose calendar days are read in loc.
// A nil loc means UTC.
func NewTrip(id uuid.UUID, name string, loc *time.Location) *Trip {
	return &Trip{ID: id, Name: name, loc: loc}
}

// Location is the reference calendar used to truncate booking instants to days.
func (t *Trip) Location() *time.Location { return t.location() }

func (t *Trip) location() *time.Location {
	if t.loc == nil {
		return time.UTC
	}
	return t.loc
}

// SetLocation changes the reference calendar. Booking days may shift, so the
// cached range is invalidated.
func (t *Trip) SetLocation(loc *time.Location) {
	t.loc = loc
	t.bump()
}

// AddBooking attaches b to this trip. A booking owned by another trip is
// detached from it first, so a booking never belongs to two trips.
// Adding a booking that is already a member changes nothing.
func (t *Trip) AddBooking(b Booking) {
	c := b.core()
	if c.trip == t {
		return
	}
	if c.trip != nil {
		c.trip.RemoveBooking(b)
	}
	t.bookings = append(t.bookings, b)
	c.trip = t
	t.bump()
}

// RemoveBooking detaches b from this trip and reports whether it was a member.
func (t *Trip) RemoveBooking(b Booking) bool {
	i := t.indexOf(b.core())
	if i < 0 {
		return false
	}
	t.detach(i)
	return true
}

// RemoveBookingByID detaches the booking with the given ID and returns it.
func (t *Trip) RemoveBookingByID(id uuid.UUID) (Booking, bool) {
	for i, b := range t.bookings {
		if b.ID() == id {
			t.detach(i)
			return b, true
		}
	}
	return nil, false
}

func (t *Trip) detach(i int) {
	b := t.bookings[i]
	t.bookings = slices.Delete(t.bookings, i, i+1)
	b.core().trip = nil
	t.bump()
}

func (t *Trip) indexOf(c *bookingCore) int {
	return slices.IndexFunc(t.bookings, func(b Booking) bool { return b.core() == c })
}

// Booking returns the member booking with the given ID.
func (t *Trip) Booking(id uuid.UUID) (Booking, bool) {
	for _, b := range t.bookings {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

// Bookings returns the current members. The slice is a copy; changing it does
// not change the trip.
func (t *Trip) Bookings() []Booking {
	return slices.Clone(t.bookings)
}

// BookingCount returns the number of member bookings.
func (t *Trip) BookingCount() int { return len(t.bookings) }

// Invalidate bumps the content version without any other change.
// Code that modifies bookings outside the methods of Trip and Booking must
// call it afterwards, or the cached range goes stale.
func (t *Trip) Invalidate() { t.bump() }

func (t *Trip) bump() { t.version++ }

// ContentVersion is the number of booking mutations the trip has seen.
func (t *Trip) ContentVersion() uint64 { return t.version }

// CachedDateRange returns the closed day range spanned by all bookings:
// the earliest start day to the latest end day. ok is false when the trip has
// no bookings. The range is recomputed at most once per content version.
func (t *Trip) CachedDateRange() (r DateRange, ok bool) {
	return t.cache.get(t)
}

// IsCacheValid reports whether the next CachedDateRange call is a cache hit.
func (t *Trip) IsCacheValid() bool {
	return t.cache.isValid(t)
}

// DateConflict checks a candidate declared window against the bookings.
func (t *Trip) DateConflict(start, end *Day) *DateConflict {
	r, ok := t.CachedDateRange()
	if !ok {
		return nil
	}
	return CheckConflicts(&r, start, end)
}

// DeclaredDateConflict checks the trip's own StartDate and EndDate.
func (t *Trip) DeclaredDateConflict() *DateConflict {
	return t.DateConflict(t.StartDate, t.EndDate)
}

// CheckDateConflicts is DateConflict for instants: the declared bounds are
// truncated to days in the trip's calendar and the conflict, if any, is
// returned as its message.
func (t *Trip) CheckDateConflicts(start, end *time.Time) (string, bool) {
	c := t.DateConflict(t.dayPtr(start), t.dayPtr(end))
	if c == nil {
		return "", false
	}
	return c.Message(), true
}

func (t *Trip) dayPtr(ts *time.Time) *Day {
	if ts == nil {
		return nil
	}
	d := DayOf(*ts, t.location())
	return &d
}
