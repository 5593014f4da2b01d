package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/events"
	"github.com/pkordes/travel-organizer/internal/metrics"
	"github.com/pkordes/travel-organizer/internal/repo"
	"github.com/pkordes/travel-organizer/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field. Set only the ones your test needs.
type mockTripRepo struct {
	create    func(ctx context.Context, trip *domain.Trip) error
	getByID   func(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	listPaged func(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error)
	update    func(ctx context.Context, trip *domain.Trip) error
	delete    func(ctx context.Context, id uuid.UUID) error

	loads atomic.Int32
}

func (m *mockTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	m.loads.Add(1)
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip *domain.Trip) error {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockBookingRepo is a hand-written test double for repo.BookingRepo.
type mockBookingRepo struct {
	create        func(ctx context.Context, tripID uuid.UUID, b domain.Booking) error
	update        func(ctx context.Context, tripID uuid.UUID, b domain.Booking) error
	delete        func(ctx context.Context, tripID, bookingID uuid.UUID) error
	listByTripIDs func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, tripID uuid.UUID, b domain.Booking) error {
	return m.create(ctx, tripID, b)
}
func (m *mockBookingRepo) Update(ctx context.Context, tripID uuid.UUID, b domain.Booking) error {
	return m.update(ctx, tripID, b)
}
func (m *mockBookingRepo) Delete(ctx context.Context, tripID, bookingID uuid.UUID) error {
	return m.delete(ctx, tripID, bookingID)
}
func (m *mockBookingRepo) ListByTripIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Booking, error) {
	return m.listByTripIDs(ctx, ids)
}

var _ repo.BookingRepo = (*mockBookingRepo)(nil)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TripDatesChanged
	err    error
}

func (p *recordingPublisher) PublishTripDatesChanged(_ context.Context, e events.TripDatesChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) last() events.TripDatesChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return events.TripDatesChanged{}
	}
	return p.events[len(p.events)-1]
}

var _ events.Publisher = (*recordingPublisher)(nil)

// ---- fixtures --------------------------------------------------------------

// june returns 10:00 UTC on the given day of June 2025.
func june(d int) time.Time {
	return time.Date(2025, time.June, d, 10, 0, 0, 0, time.UTC)
}

func juneDay(d int) *domain.Day {
	v := domain.NewDay(2025, time.June, d)
	return &v
}

func stay(checkIn, checkOut int) *domain.Lodging {
	return domain.NewLodging(uuid.New(), june(checkIn), june(checkOut), domain.LodgingDetails{Name: "Casa do Alto"})
}

// storedTrip returns a repo whose GetByID builds a fresh aggregate with a
// stay on June 2-5 every time it is called, the way Postgres would.
func storedTrip(id uuid.UUID, bookings ...func() domain.Booking) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, got uuid.UUID) (*domain.Trip, error) {
			if got != id {
				return nil, domain.ErrNotFound
			}
			trip := domain.NewTrip(id, "Portugal", time.UTC)
			trip.StartDate = juneDay(1)
			trip.EndDate = juneDay(10)
			for _, b := range bookings {
				trip.AddBooking(b())
			}
			return trip, nil
		},
		update: func(context.Context, *domain.Trip) error { return nil },
		delete: func(context.Context, uuid.UUID) error { return nil },
	}
}

func okBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{
		create: func(context.Context, uuid.UUID, domain.Booking) error { return nil },
		update: func(context.Context, uuid.UUID, domain.Booking) error { return nil },
		delete: func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
	}
}

// harness wires both services around one store, as cmd/api does.
type harness struct {
	trips    *service.TripService
	bookings *service.BookingService
	store    *service.TripStore
	pub      *recordingPublisher
	metrics  *metrics.Metrics
}

func newHarness(tr repo.TripRepo, br repo.BookingRepo) *harness {
	m := metrics.New(prometheus.NewRegistry())
	store := service.NewTripStore(tr, 0, m)
	pub := &recordingPublisher{}
	sh := service.Shared{
		Store:   store,
		Events:  pub,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return &harness{
		trips:    service.NewTripService(tr, sh, time.UTC),
		bookings: service.NewBookingService(br, sh),
		store:    store,
		pub:      pub,
		metrics:  m,
	}
}
