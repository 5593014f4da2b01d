package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-organizer/internal/domain"
)

// ---- helpers ---------------------------------------------------------------

// base is "day 0" for every test in this package.
var base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// at returns an instant on the given day offset from base, at the given hour.
func at(day, hour int) time.Time {
	return base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

// dayN returns the Day for the given offset from base.
func dayN(n int) domain.Day {
	return domain.DayOf(base, time.UTC).AddDays(n)
}

func newTrip() *domain.Trip {
	return domain.NewTrip(uuid.New(), "Lisbon", time.UTC)
}

func lodging(startDay, endDay int) *domain.Lodging {
	return domain.NewLodging(uuid.New(), at(startDay, 15), at(endDay, 11),
		domain.LodgingDetails{Name: "Hotel Avenida"})
}

func flight(startDay, endDay int) *domain.Transportation {
	return domain.NewTransportation(uuid.New(), at(startDay, 7), at(endDay, 22),
		domain.TransportationDetails{Mode: domain.ModeFlight, Carrier: "TAP"})
}

func activity(startDay, endDay int) *domain.Activity {
	return domain.NewActivity(uuid.New(), at(startDay, 9), at(endDay, 17),
		domain.ActivityDetails{Name: "Tram 28"})
}

func requireRange(t *testing.T, trip *domain.Trip, start, end int) {
	t.Helper()
	r, ok := trip.CachedDateRange()
	require.True(t, ok, "expected a booked range")
	assert.Equal(t, domain.DateRange{Start: dayN(start), End: dayN(end)}, r)
}

// ---- empty and single booking ---------------------------------------------

func TestTrip_Empty_NoRangeAndValidCache(t *testing.T) {
	trip := newTrip()

	assert.True(t, trip.IsCacheValid(), "an untouched trip's cache represents the empty trip")

	_, ok := trip.CachedDateRange()

	assert.False(t, ok)
	assert.True(t, trip.IsCacheValid())
	assert.Zero(t, trip.ContentVersion())
}

func TestTrip_SingleBooking_RangeCoversIt(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(domain.NewLodging(uuid.New(), base, base.Add(72*time.Hour), domain.LodgingDetails{Name: "Casa"}))

	requireRange(t, trip, 0, 3)
}

func TestTrip_StartEqualsEnd_IsSingleDay(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(domain.NewActivity(uuid.New(), at(4, 10), at(4, 10), domain.ActivityDetails{Name: "Fado"}))

	r, ok := trip.CachedDateRange()

	require.True(t, ok)
	assert.Equal(t, 1, r.Days())
}

// ---- fold ------------------------------------------------------------------

func TestTrip_FoldsAllVariantsAlike(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(lodging(2, 5))
	trip.AddBooking(flight(1, 1))
	trip.AddBooking(activity(3, 8))

	requireRange(t, trip, 1, 8)
}

func TestTrip_FoldIgnoresTimeOfDay(t *testing.T) {
	early := newTrip()
	early.AddBooking(domain.NewActivity(uuid.New(), at(2, 0), at(5, 0), domain.ActivityDetails{Name: "a"}))
	early.AddBooking(domain.NewActivity(uuid.New(), at(2, 1), at(5, 0), domain.ActivityDetails{Name: "b"}))

	late := newTrip()
	late.AddBooking(domain.NewActivity(uuid.New(), at(2, 23), at(5, 23), domain.ActivityDetails{Name: "a"}))
	late.AddBooking(domain.NewActivity(uuid.New(), at(2, 1), at(5, 12), domain.ActivityDetails{Name: "b"}))

	r1, ok1 := early.CachedDateRange()
	r2, ok2 := late.CachedDateRange()

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, domain.DateRange{Start: dayN(2), End: dayN(5)}, r2)
}

// A booking that ends before it starts is folded as given; validating it is
// the job of whoever creates bookings.
func TestTrip_FoldKeepsInvertedBookingAsGiven(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(activity(5, 2))

	requireRange(t, trip, 5, 2)
}

func TestTrip_LocationDecidesCalendarDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on day 1 is still the evening of day 0 in New York.
	b := domain.NewActivity(uuid.New(), at(1, 2), at(1, 2), domain.ActivityDetails{Name: "Late show"})
	trip := domain.NewTrip(uuid.New(), "East coast", ny)
	trip.AddBooking(b)

	r, ok := trip.CachedDateRange()
	require.True(t, ok)
	assert.Equal(t, dayN(0), r.Start)

	trip.SetLocation(time.UTC)

	assert.False(t, trip.IsCacheValid(), "changing the calendar must invalidate the cache")
	requireRange(t, trip, 1, 1)
}

// ---- invalidation ----------------------------------------------------------

func TestTrip_AddBooking_InvalidatesAndExtends(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(lodging(2, 5))
	requireRange(t, trip, 2, 5)
	require.True(t, trip.IsCacheValid())

	trip.AddBooking(activity(6, 10))

	assert.False(t, trip.IsCacheValid())
	requireRange(t, trip, 2, 10)
	assert.True(t, trip.IsCacheValid())
}

func TestTrip_RemoveBooking_ShrinksRange(t *testing.T) {
	trip := newTrip()
	bound := activity(6, 10)
	trip.AddBooking(lodging(2, 5))
	trip.AddBooking(bound)
	requireRange(t, trip, 2, 10)

	removed := trip.RemoveBooking(bound)

	require.True(t, removed)
	assert.False(t, trip.IsCacheValid())
	assert.Nil(t, bound.Trip(), "removed booking must be detached")
	requireRange(t, trip, 2, 5)
}

func TestTrip_RemoveLastBooking_RangeBecomesEmpty(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	trip.AddBooking(b)
	requireRange(t, trip, 2, 5)

	trip.RemoveBooking(b)

	_, ok := trip.CachedDateRange()
	assert.False(t, ok)
	assert.True(t, trip.IsCacheValid())
}

func TestTrip_RemoveBookingByID(t *testing.T) {
	trip := newTrip()
	b := flight(1, 2)
	trip.AddBooking(b)

	got, ok := trip.RemoveBookingByID(b.ID())

	require.True(t, ok)
	assert.Equal(t, b.ID(), got.ID())
	assert.Zero(t, trip.BookingCount())

	_, ok = trip.RemoveBookingByID(uuid.New())
	assert.False(t, ok)
}

func TestTrip_RemoveNonMember_IsNoOp(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(lodging(2, 5))
	requireRange(t, trip, 2, 5)
	v := trip.ContentVersion()

	removed := trip.RemoveBooking(activity(1, 9))

	assert.False(t, removed)
	assert.Equal(t, v, trip.ContentVersion())
	assert.True(t, trip.IsCacheValid())
}

func TestTrip_SetStartOnAttachedBooking_Invalidates(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	trip.AddBooking(b)
	requireRange(t, trip, 2, 5)

	b.SetStart(at(0, 12))

	assert.False(t, trip.IsCacheValid())
	requireRange(t, trip, 0, 5)
}

func TestTrip_SetEndOnAttachedBooking_Invalidates(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	trip.AddBooking(b)
	requireRange(t, trip, 2, 5)

	b.SetEnd(at(9, 12))

	assert.False(t, trip.IsCacheValid())
	requireRange(t, trip, 2, 9)
}

func TestTrip_SetSameDate_StillInvalidates(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	trip.AddBooking(b)
	requireRange(t, trip, 2, 5)

	b.SetStart(b.Start())

	assert.False(t, trip.IsCacheValid())
	requireRange(t, trip, 2, 5)
}

func TestTrip_Reschedule_BumpsVersionOnce(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	trip.AddBooking(b)
	v := trip.ContentVersion()

	b.Reschedule(at(3, 15), at(7, 11))

	assert.Equal(t, v+1, trip.ContentVersion())
	requireRange(t, trip, 3, 7)
}

func TestTrip_DetachedBooking_DoesNotAffectFormerTrip(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	trip.AddBooking(b)
	trip.RemoveBooking(b)
	_, _ = trip.CachedDateRange()
	v := trip.ContentVersion()

	b.SetStart(at(-3, 0))
	b.SetEnd(at(30, 0))

	assert.Equal(t, v, trip.ContentVersion())
	assert.True(t, trip.IsCacheValid())
}

func TestTrip_AddBookingOwnedByAnotherTrip_MovesIt(t *testing.T) {
	from := newTrip()
	to := newTrip()
	b := activity(3, 4)
	from.AddBooking(b)
	fromVersion := from.ContentVersion()

	to.AddBooking(b)

	assert.Same(t, to, b.Trip())
	assert.Zero(t, from.BookingCount())
	assert.Equal(t, 1, to.BookingCount())
	assert.Greater(t, from.ContentVersion(), fromVersion)
	_, ok := from.CachedDateRange()
	assert.False(t, ok)
	requireRange(t, to, 3, 4)
}

func TestTrip_AddBookingTwice_DoesNotDuplicate(t *testing.T) {
	trip := newTrip()
	b := activity(3, 4)
	trip.AddBooking(b)

	trip.AddBooking(b)

	assert.Equal(t, 1, trip.BookingCount())
}

func TestTrip_Invalidate_ForcesRecompute(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(lodging(2, 5))
	requireRange(t, trip, 2, 5)

	trip.Invalidate()

	assert.False(t, trip.IsCacheValid())
	requireRange(t, trip, 2, 5)
}

func TestTrip_ContentVersion_StrictlyIncreases(t *testing.T) {
	trip := newTrip()
	b := lodging(2, 5)
	var seen []uint64
	record := func() { seen = append(seen, trip.ContentVersion()) }

	record()
	trip.AddBooking(b)
	record()
	b.SetStart(at(1, 0))
	record()
	b.SetEnd(at(6, 0))
	record()
	trip.Invalidate()
	record()
	trip.RemoveBooking(b)
	record()

	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1], "version must increase at step %d", i)
	}
}

// ---- reads -----------------------------------------------------------------

func TestTrip_ConsecutiveReads_AreIdentical(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(lodging(2, 5))
	trip.AddBooking(flight(1, 1))

	r1, ok1 := trip.CachedDateRange()
	v := trip.ContentVersion()
	r2, ok2 := trip.CachedDateRange()

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, v, trip.ContentVersion(), "reading must never bump the version")
	assert.True(t, trip.IsCacheValid())
}

func TestTrip_Bookings_ReturnsCopy(t *testing.T) {
	trip := newTrip()
	trip.AddBooking(lodging(2, 5))

	got := trip.Bookings()
	got[0] = activity(0, 20)

	requireRange(t, trip, 2, 5)
}

func TestTrip_BookingLookup(t *testing.T) {
	trip := newTrip()
	b := flight(1, 1)
	trip.AddBooking(b)

	got, ok := trip.Booking(b.ID())
	require.True(t, ok)
	assert.Equal(t, domain.KindTransportation, got.Kind())

	_, ok = trip.Booking(uuid.New())
	assert.False(t, ok)
}
