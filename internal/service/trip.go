// Package service contains the business logic of the travel organizer.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
//
// Trip aggregates are held in a TripStore shared by TripService and
// BookingService; it is the only place that touches a *domain.Trip.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/events"
	"github.com/pkordes/travel-organizer/internal/metrics"
	"github.com/pkordes/travel-organizer/internal/repo"
)

// Shared carries the collaborators common to every service.
type Shared struct {
	Store   *TripStore
	Events  events.Publisher
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// afterChange reports a trip mutation: conflicts are counted and logged and a
// dates-changed event is published. Publishing is best-effort.
func (sh Shared) afterChange(ctx context.Context, snap domain.TripSnapshot) {
	if snap.Conflict != nil {
		sh.Metrics.ObserveConflict(snap.Conflict)
		sh.Logger.InfoContext(ctx, "trip dates conflict with bookings",
			"trip_id", snap.ID,
			"kind", snap.Conflict.Kind,
			"message", snap.Conflict.Message(),
		)
	}
	if err := sh.Events.PublishTripDatesChanged(ctx, events.NewTripDatesChanged(snap)); err != nil {
		sh.Logger.WarnContext(ctx, "publish trip event failed", "trip_id", snap.ID, "error", err)
	}
}

// snapshot copies trip, recording whether its booked range came from the cache.
func (sh Shared) snapshot(trip *domain.Trip) domain.TripSnapshot {
	sh.Metrics.ObserveCacheRead(trip.IsCacheValid())
	return trip.Snapshot()
}

// TripInput is the caller-supplied part of a trip.
// An empty TimeZone means the service default on create and "unchanged" on update.
type TripInput struct {
	Name      string
	StartDate *domain.Day
	EndDate   *domain.Day
	Notes     string
	TimeZone  string
}

// DateCheck is the outcome of checking a candidate date window against a trip.
type DateCheck struct {
	TripID      uuid.UUID
	Version     uint64
	BookedRange *domain.DateRange
	Conflict    *domain.DateConflict
}

// TripService implements business logic for Trip operations.
type TripService struct {
	Shared
	repo       repo.TripRepo
	defaultLoc *time.Location
}

// NewTripService constructs a TripService. New trips without a time zone use defaultLoc.
func NewTripService(r repo.TripRepo, sh Shared, defaultLoc *time.Location) *TripService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &TripService{Shared: sh, repo: r, defaultLoc: defaultLoc}
}

// Create validates and persists a new trip.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, in TripInput) (domain.TripSnapshot, error) {
	loc, err := s.validate(in, s.defaultLoc)
	if err != nil {
		return domain.TripSnapshot{}, err
	}

	trip := domain.NewTrip(uuid.Nil, strings.TrimSpace(in.Name), loc)
	trip.StartDate = in.StartDate
	trip.EndDate = in.EndDate
	trip.Notes = in.Notes

	if err := s.repo.Create(ctx, trip); err != nil {
		return domain.TripSnapshot{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	// Once put, the trip belongs to the store and is only touched under its lock.
	snap := trip.Snapshot()
	s.Store.put(trip)

	s.afterChange(ctx, snap)
	return snap, nil
}

// Get returns a snapshot of a trip with its booked range and declared-date conflict.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) Get(ctx context.Context, id uuid.UUID) (domain.TripSnapshot, error) {
	var snap domain.TripSnapshot
	err := s.Store.with(ctx, id, func(trip *domain.Trip) error {
		snap = s.snapshot(trip)
		return nil
	})
	if err != nil {
		return domain.TripSnapshot{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return snap, nil
}

// ListPaged returns one page of trip snapshots and the total trip count.
// Trips the store already holds are reported from the held aggregate, so a
// trip shows the same version here as from Get. Listing never adds to the store.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSnapshot, int64, error) {
	trips, total, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	out := make([]domain.TripSnapshot, 0, len(trips))
	for _, t := range trips {
		var snap domain.TripSnapshot
		held := s.Store.view(t.ID, func(cur *domain.Trip) {
			snap = cur.Snapshot()
		})
		if !held {
			snap = t.Snapshot()
		}
		out = append(out, snap)
	}
	return out, total, nil
}

// Update replaces the trip's name, declared dates, notes and, when given, its
// time zone. Bookings are not touched.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// trip does not exist.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, in TripInput) (domain.TripSnapshot, error) {
	var snap domain.TripSnapshot
	err := s.Store.with(ctx, id, func(trip *domain.Trip) error {
		loc, err := s.validate(in, trip.Location())
		if err != nil {
			return err
		}

		trip.Name = strings.TrimSpace(in.Name)
		trip.StartDate = in.StartDate
		trip.EndDate = in.EndDate
		trip.Notes = in.Notes
		if loc.String() != trip.Location().String() {
			trip.SetLocation(loc)
		}

		if err := s.repo.Update(ctx, trip); err != nil {
			return err
		}
		snap = s.snapshot(trip)
		return nil
	})
	if err != nil {
		return domain.TripSnapshot{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	s.afterChange(ctx, snap)
	return snap, nil
}

// Delete removes a trip and its bookings.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.Store.remove(ctx, id, func() error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// CheckDates reports whether a candidate declared window would conflict with
// the trip's bookings, without changing the trip. Nil bounds are not checked.
// Returns domain.ErrValidation if end is before start.
func (s *TripService) CheckDates(ctx context.Context, id uuid.UUID, start, end *domain.Day) (DateCheck, error) {
	if start != nil && end != nil && *end < *start {
		return DateCheck{}, fmt.Errorf("%w: end must not be before start", domain.ErrValidation)
	}

	var out DateCheck
	err := s.Store.with(ctx, id, func(trip *domain.Trip) error {
		s.Metrics.ObserveCacheRead(trip.IsCacheValid())
		out = DateCheck{TripID: trip.ID, Version: trip.ContentVersion()}
		if r, ok := trip.CachedDateRange(); ok {
			out.BookedRange = &r
		}
		out.Conflict = trip.DateConflict(start, end)
		return nil
	})
	if err != nil {
		return DateCheck{}, fmt.Errorf("service.TripService.CheckDates: %w", err)
	}
	s.Metrics.ObserveConflict(out.Conflict)
	return out, nil
}

// validate enforces business rules common to both Create and Update and
// resolves the time zone. An empty zone resolves to fallback.
//   - Name must be non-empty (whitespace-only names are rejected).
//   - EndDate, if set, must not be before StartDate.
//   - TimeZone, if set, must be a known IANA zone.
func (s *TripService) validate(in TripInput, fallback *time.Location) (*time.Location, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if in.StartDate != nil && in.EndDate != nil && *in.EndDate < *in.StartDate {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if in.TimeZone == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(in.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time_zone %q", domain.ErrValidation, in.TimeZone)
	}
	return loc, nil
}
