package domain

import "time"

// dateRangeCache memoizes the day range spanned by a trip's bookings.
//
// The cache is valid iff captured equals the trip's content version. The zero
// value is valid for a trip at version 0: such a trip has never been mutated,
// so it has no bookings, and an absent range is the correct answer.
type dateRangeCache struct {
	resolved DateRange
	hasRange bool
	captured uint64
}

// get returns the trip's booked range, rescanning the bookings only when the
// trip has been mutated since the last read. It writes nothing but the cache
// fields, so reading never invalidates anything.
func (c *dateRangeCache) get(t *Trip) (DateRange, bool) {
	if c.isValid(t) {
		return c.resolved, c.hasRange
	}
	c.resolved, c.hasRange = foldRange(t.bookings, t.location())
	c.captured = t.version
	return c.resolved, c.hasRange
}

func (c *dateRangeCache) isValid(t *Trip) bool {
	return c.captured == t.version
}

// foldRange computes [min start day, max end day] over bookings.
// Every variant is folded the same way; ok is false for an empty slice.
func foldRange(bookings []Booking, loc *time.Location) (r DateRange, ok bool) {
	for _, b := range bookings {
		start := DayOf(b.Start(), loc)
		end := DayOf(b.End(), loc)
		if !ok {
			r = DateRange{Start: start, End: end}
			ok = true
			continue
		}
		if start < r.Start {
			r.Start = start
		}
		if end > r.End {
			r.End = end
		}
	}
	return r, ok
}
