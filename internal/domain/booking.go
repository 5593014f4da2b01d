package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingKind identifies which variant a Booking is.
type BookingKind string

const (
	KindLodging        BookingKind = "lodging"
	KindTransportation BookingKind = "transportation"
	KindActivity       BookingKind = "activity"
)

// IsValid returns true if k is a recognised booking kind.
func (k BookingKind) IsValid() bool {
	switch k {
	case KindLodging, KindTransportation, KindActivity:
		return true
	}
	return false
}

// ParseBookingKind converts a string to a BookingKind, returning an error if invalid.
func ParseBookingKind(s string) (BookingKind, error) {
	k := BookingKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid booking kind: %q", ErrValidation, s)
	}
	return k, nil
}

// TransportMode is how a Transportation booking travels.
type TransportMode string

const (
	ModeFlight TransportMode = "flight"
	ModeTrain  TransportMode = "train"
	ModeBus    TransportMode = "bus"
	ModeCar    TransportMode = "car"
	ModeFerry  TransportMode = "ferry"
	ModeOther  TransportMode = "other"
)

// IsValid returns true if m is a recognised transport mode.
func (m TransportMode) IsValid() bool {
	switch m {
	case ModeFlight, ModeTrain, ModeBus, ModeCar, ModeFerry, ModeOther:
		return true
	}
	return false
}

// Booking is a dated child record of a Trip.
//
// Lodging, Transportation and Activity all implement it; the date-range cache
// only ever looks at Start and End, never at the concrete variant.
// The interface is sealed: only types in this package can satisfy it.
type Booking interface {
	ID() uuid.UUID
	Kind() BookingKind
	Start() time.Time
	End() time.Time
	Notes() string
	CreatedAt() time.Time
	UpdatedAt() time.Time

	// Trip returns the trip whose collection holds this booking, or nil when
	// the booking is detached.
	Trip() *Trip

	// SetStart, SetEnd and Reschedule change the booking's dates. When the
	// booking is attached, the owning trip's content version is bumped.
	SetStart(t time.Time)
	SetEnd(t time.Time)
	Reschedule(start, end time.Time)

	SetNotes(notes string)

	// Stamp records persistence timestamps. It does not touch the trip.
	Stamp(createdAt, updatedAt time.Time)

	core() *bookingCore
}

// bookingCore holds the state shared by every booking variant.
// trip is a non-owning back-reference: membership is owned by Trip.bookings,
// the pointer only lets a booking report its own date changes.
type bookingCore struct {
	id        uuid.UUID
	start     time.Time
	end       time.Time
	notes     string
	createdAt time.Time
	updatedAt time.Time

	trip *Trip
}

func newCore(id uuid.UUID, start, end time.Time) bookingCore {
	return bookingCore{id: id, start: start, end: end}
}

func (c *bookingCore) ID() uuid.UUID        { return c.id }
func (c *bookingCore) Start() time.Time     { return c.start }
func (c *bookingCore) End() time.Time       { return c.end }
func (c *bookingCore) Notes() string        { return c.notes }
func (c *bookingCore) CreatedAt() time.Time { return c.createdAt }
func (c *bookingCore) UpdatedAt() time.Time { return c.updatedAt }
func (c *bookingCore) Trip() *Trip          { return c.trip }
func (c *bookingCore) core() *bookingCore   { return c }

func (c *bookingCore) SetStart(t time.Time) {
	c.start = t
	c.touch()
}

func (c *bookingCore) SetEnd(t time.Time) {
	c.end = t
	c.touch()
}

// Reschedule sets both dates as a single mutation.
func (c *bookingCore) Reschedule(start, end time.Time) {
	c.start = start
	c.end = end
	c.touch()
}

func (c *bookingCore) SetNotes(notes string) { c.notes = notes }

func (c *bookingCore) Stamp(createdAt, updatedAt time.Time) {
	c.createdAt = createdAt
	c.updatedAt = updatedAt
}

// touch reports a date change to the owning trip. Detached bookings affect no trip.
func (c *bookingCore) touch() {
	if c.trip != nil {
		c.trip.bump()
	}
}

// LodgingDetails are the variant-specific fields of a Lodging booking.
type LodgingDetails struct {
	Name             string `json:"name"`
	Address          string `json:"address,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
}

// Lodging is a stay: Start is check-in, End is check-out.
type Lodging struct {
	bookingCore
	LodgingDetails
}

// NewLodging returns a detached Lodging booking.
func NewLodging(id uuid.UUID, checkIn, checkOut time.Time, d LodgingDetails) *Lodging {
	return &Lodging{bookingCore: newCore(id, checkIn, checkOut), LodgingDetails: d}
}

func (*Lodging) Kind() BookingKind { return KindLodging }

// TransportationDetails are the variant-specific fields of a Transportation booking.
type TransportationDetails struct {
	Mode        TransportMode `json:"mode"`
	Carrier     string        `json:"carrier,omitempty"`
	Origin      string        `json:"origin,omitempty"`
	Destination string        `json:"destination,omitempty"`
	Reference   string        `json:"reference,omitempty"`
}

// Transportation is a leg of travel: Start is departure, End is arrival.
type Transportation struct {
	bookingCore
	TransportationDetails
}

// NewTransportation returns a detached Transportation booking.
func NewTransportation(id uuid.UUID, departure, arrival time.Time, d TransportationDetails) *Transportation {
	return &Transportation{bookingCore: newCore(id, departure, arrival), TransportationDetails: d}
}

func (*Transportation) Kind() BookingKind { return KindTransportation }

// ActivityDetails are the variant-specific fields of an Activity booking.
type ActivityDetails struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Activity is anything else on the itinerary: a tour, a dinner, a concert.
type Activity struct {
	bookingCore
	ActivityDetails
}

// NewActivity returns a detached Activity booking.
func NewActivity(id uuid.UUID, start, end time.Time, d ActivityDetails) *Activity {
	return &Activity{bookingCore: newCore(id, start, end), ActivityDetails: d}
}

func (*Activity) Kind() BookingKind { return KindActivity }
