// Package handler implements the HTTP handlers for the travel organizer API.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, trip.go, booking.go) but share the same Server struct so they
// can access its dependencies. Routes wires them into a chi router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/service"
	"github.com/pkordes/travel-organizer/openapi"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, in service.TripInput) (domain.TripSnapshot, error)
	Get(ctx context.Context, id uuid.UUID) (domain.TripSnapshot, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSnapshot, int64, error)
	Update(ctx context.Context, id uuid.UUID, in service.TripInput) (domain.TripSnapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CheckDates(ctx context.Context, id uuid.UUID, start, end *domain.Day) (service.DateCheck, error)
}

// BookingServicer defines the business operations the booking handlers depend on.
type BookingServicer interface {
	Add(ctx context.Context, tripID uuid.UUID, in service.BookingInput) (domain.BookingSnapshot, error)
	Get(ctx context.Context, tripID, bookingID uuid.UUID) (domain.BookingSnapshot, error)
	List(ctx context.Context, tripID uuid.UUID) ([]domain.BookingSnapshot, error)
	Update(ctx context.Context, tripID, bookingID uuid.UUID, in service.BookingInput) (domain.BookingSnapshot, error)
	Remove(ctx context.Context, tripID, bookingID uuid.UUID) error
}

var (
	_ TripServicer    = (*service.TripService)(nil)
	_ BookingServicer = (*service.BookingService)(nil)
)

// Server holds the dependencies of every handler.
type Server struct {
	trips    TripServicer
	bookings BookingServicer
	metrics  http.Handler
	logger   *slog.Logger
}

// NewServer constructs the Server. metrics may be nil, in which case
// /metrics is not routed.
func NewServer(trips TripServicer, bookings BookingServicer, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{trips: trips, bookings: bookings, metrics: metrics, logger: logger}
}

// Routes returns the API router. Cross-cutting middleware (request IDs,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Put("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)
			r.Post("/date-check", s.CheckTripDates)

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", s.ListBookings)
				r.Post("/", s.AddBooking)
				r.Get("/{bookingID}", s.GetBooking)
				r.Put("/{bookingID}", s.UpdateBooking)
				r.Delete("/{bookingID}", s.RemoveBooking)
			})
		})
	})

	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi.Document)
}
