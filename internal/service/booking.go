package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/metrics"
	"github.com/pkordes/travel-organizer/internal/repo"
)

// BookingInput is the caller-supplied part of a booking. Exactly the details
// pointer matching Kind is read; the others are ignored.
type BookingInput struct {
	Kind  domain.BookingKind
	Start time.Time
	End   time.Time
	Notes string

	Lodging        *domain.LodgingDetails
	Transportation *domain.TransportationDetails
	Activity       *domain.ActivityDetails
}

// BookingService implements business logic for Booking operations.
// Every operation goes through the owning trip's aggregate, so the trip's
// cached date range always reflects the change.
type BookingService struct {
	Shared
	repo repo.BookingRepo
}

// NewBookingService constructs a BookingService backed by the provided repo.
func NewBookingService(r repo.BookingRepo, sh Shared) *BookingService {
	return &BookingService{Shared: sh, repo: r}
}

// Add validates a new booking, attaches it to the trip and persists it.
// Returns domain.ErrValidation if input violates business rules.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *BookingService) Add(ctx context.Context, tripID uuid.UUID, in BookingInput) (domain.BookingSnapshot, error) {
	b, err := newBooking(uuid.New(), in)
	if err != nil {
		return domain.BookingSnapshot{}, err
	}

	var snap domain.TripSnapshot
	err = s.Store.with(ctx, tripID, func(trip *domain.Trip) error {
		trip.AddBooking(b)
		if err := s.repo.Create(ctx, trip.ID, b); err != nil {
			return err
		}
		snap = s.snapshot(trip)
		return nil
	})
	if err != nil {
		return domain.BookingSnapshot{}, fmt.Errorf("service.BookingService.Add: %w", err)
	}

	s.Metrics.IncrementBookingMutation(metrics.OpAdd)
	s.afterChange(ctx, snap)
	return bookingFrom(snap, b.ID()), nil
}

// Get returns a single booking, scoped to the given trip.
// Returns domain.ErrNotFound if no such booking exists under that trip.
func (s *BookingService) Get(ctx context.Context, tripID, bookingID uuid.UUID) (domain.BookingSnapshot, error) {
	var out domain.BookingSnapshot
	err := s.Store.with(ctx, tripID, func(trip *domain.Trip) error {
		b, ok := trip.Booking(bookingID)
		if !ok {
			return untouched(domain.ErrNotFound)
		}
		out = domain.SnapshotBooking(b)
		return nil
	})
	if err != nil {
		return domain.BookingSnapshot{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	return out, nil
}

// List returns every booking of a trip ordered by start.
// Always returns a non-nil slice so callers can safely range over it.
func (s *BookingService) List(ctx context.Context, tripID uuid.UUID) ([]domain.BookingSnapshot, error) {
	var out []domain.BookingSnapshot
	err := s.Store.with(ctx, tripID, func(trip *domain.Trip) error {
		out = trip.Snapshot().Bookings
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.List: %w", err)
	}
	if out == nil {
		return []domain.BookingSnapshot{}, nil
	}
	return out, nil
}

// Update replaces a booking's dates, notes and details. The kind of a booking
// cannot change.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// booking does not exist under the given trip.
func (s *BookingService) Update(ctx context.Context, tripID, bookingID uuid.UUID, in BookingInput) (domain.BookingSnapshot, error) {
	if err := validateBooking(in); err != nil {
		return domain.BookingSnapshot{}, err
	}

	var snap domain.TripSnapshot
	err := s.Store.with(ctx, tripID, func(trip *domain.Trip) error {
		b, ok := trip.Booking(bookingID)
		if !ok {
			return untouched(domain.ErrNotFound)
		}
		if b.Kind() != in.Kind {
			return fmt.Errorf("%w: kind cannot change from %s to %s", domain.ErrValidation, b.Kind(), in.Kind)
		}

		if !b.Start().Equal(in.Start) {
			b.SetStart(in.Start)
		}
		if !b.End().Equal(in.End) {
			b.SetEnd(in.End)
		}
		b.SetNotes(in.Notes)
		applyDetails(b, in)

		if err := s.repo.Update(ctx, trip.ID, b); err != nil {
			return err
		}
		snap = s.snapshot(trip)
		return nil
	})
	if err != nil {
		return domain.BookingSnapshot{}, fmt.Errorf("service.BookingService.Update: %w", err)
	}

	s.Metrics.IncrementBookingMutation(metrics.OpUpdate)
	s.afterChange(ctx, snap)
	return bookingFrom(snap, bookingID), nil
}

// Remove detaches a booking from its trip and deletes it.
// Returns domain.ErrNotFound if the booking does not exist under the given trip.
func (s *BookingService) Remove(ctx context.Context, tripID, bookingID uuid.UUID) error {
	var snap domain.TripSnapshot
	err := s.Store.with(ctx, tripID, func(trip *domain.Trip) error {
		if _, ok := trip.RemoveBookingByID(bookingID); !ok {
			return untouched(domain.ErrNotFound)
		}
		if err := s.repo.Delete(ctx, trip.ID, bookingID); err != nil {
			return err
		}
		snap = s.snapshot(trip)
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.BookingService.Remove: %w", err)
	}

	s.Metrics.IncrementBookingMutation(metrics.OpRemove)
	s.afterChange(ctx, snap)
	return nil
}

// bookingFrom picks one booking out of a trip snapshot.
func bookingFrom(snap domain.TripSnapshot, id uuid.UUID) domain.BookingSnapshot {
	for _, b := range snap.Bookings {
		if b.ID == id {
			return b
		}
	}
	return domain.BookingSnapshot{}
}

// newBooking validates in and builds the matching detached variant.
func newBooking(id uuid.UUID, in BookingInput) (domain.Booking, error) {
	if err := validateBooking(in); err != nil {
		return nil, err
	}
	var b domain.Booking
	switch in.Kind {
	case domain.KindLodging:
		b = domain.NewLodging(id, in.Start, in.End, *in.Lodging)
	case domain.KindTransportation:
		b = domain.NewTransportation(id, in.Start, in.End, *in.Transportation)
	case domain.KindActivity:
		b = domain.NewActivity(id, in.Start, in.End, *in.Activity)
	}
	b.SetNotes(in.Notes)
	return b, nil
}

// applyDetails overwrites the variant fields of b from in.
// validateBooking has already checked that the matching pointer is set.
func applyDetails(b domain.Booking, in BookingInput) {
	switch b := b.(type) {
	case *domain.Lodging:
		b.LodgingDetails = *in.Lodging
	case *domain.Transportation:
		b.TransportationDetails = *in.Transportation
	case *domain.Activity:
		b.ActivityDetails = *in.Activity
	}
}

// validateBooking enforces business rules common to both Add and Update.
//   - Kind must be known and its details present.
//   - Start and End must be set, and End must not be before Start.
//   - Lodging and activities need a name; transportation needs a known mode.
func validateBooking(in BookingInput) error {
	if !in.Kind.IsValid() {
		return fmt.Errorf("%w: invalid booking kind: %q", domain.ErrValidation, in.Kind)
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", domain.ErrValidation)
	}
	if in.End.Before(in.Start) {
		return fmt.Errorf("%w: end must not be before start", domain.ErrValidation)
	}

	switch in.Kind {
	case domain.KindLodging:
		if in.Lodging == nil || strings.TrimSpace(in.Lodging.Name) == "" {
			return fmt.Errorf("%w: lodging name is required", domain.ErrValidation)
		}
	case domain.KindTransportation:
		if in.Transportation == nil || !in.Transportation.Mode.IsValid() {
			return fmt.Errorf("%w: transportation mode is required and must be known", domain.ErrValidation)
		}
	case domain.KindActivity:
		if in.Activity == nil || strings.TrimSpace(in.Activity.Name) == "" {
			return fmt.Errorf("%w: activity name is required", domain.ErrValidation)
		}
	}
	return nil
}
