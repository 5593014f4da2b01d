package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/service"
)

const bookingNotFound = "booking not found"

// bookingRequest is the body of POST and PUT on bookings. Exactly the details
// object matching kind is read.
type bookingRequest struct {
	Kind           string                        `json:"kind"`
	Start          time.Time                     `json:"start"`
	End            time.Time                     `json:"end"`
	Notes          *string                       `json:"notes,omitempty"`
	Lodging        *domain.LodgingDetails        `json:"lodging,omitempty"`
	Transportation *domain.TransportationDetails `json:"transportation,omitempty"`
	Activity       *domain.ActivityDetails       `json:"activity,omitempty"`
}

type bookingResponse struct {
	ID             openapi_types.UUID            `json:"id"`
	TripID         openapi_types.UUID            `json:"trip_id"`
	Kind           string                        `json:"kind"`
	Start          time.Time                     `json:"start"`
	End            time.Time                     `json:"end"`
	Notes          *string                       `json:"notes,omitempty"`
	Lodging        *domain.LodgingDetails        `json:"lodging,omitempty"`
	Transportation *domain.TransportationDetails `json:"transportation,omitempty"`
	Activity       *domain.ActivityDetails       `json:"activity,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"`
}

type bookingListResponse struct {
	Data []bookingResponse `json:"data"`
}

// AddBooking handles POST /trips/{tripID}/bookings.
func (s *Server) AddBooking(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body bookingRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.bookings.Add(r.Context(), tripID, requestToBookingInput(body))
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, bookingToResponse(created))
}

// ListBookings handles GET /trips/{tripID}/bookings.
// Bookings are ordered by start.
func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	bookings, err := s.bookings.List(r.Context(), tripID)
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}

	data := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		data[i] = bookingToResponse(b)
	}
	writeJSON(w, http.StatusOK, bookingListResponse{Data: data})
}

// GetBooking handles GET /trips/{tripID}/bookings/{bookingID}.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	tripID, bookingID, ok := bookingPath(w, r)
	if !ok {
		return
	}

	b, err := s.bookings.Get(r.Context(), tripID, bookingID)
	if err != nil {
		s.respondError(w, r, err, bookingNotFound)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// UpdateBooking handles PUT /trips/{tripID}/bookings/{bookingID}.
func (s *Server) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	tripID, bookingID, ok := bookingPath(w, r)
	if !ok {
		return
	}
	var body bookingRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	updated, err := s.bookings.Update(r.Context(), tripID, bookingID, requestToBookingInput(body))
	if err != nil {
		s.respondError(w, r, err, bookingNotFound)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(updated))
}

// RemoveBooking handles DELETE /trips/{tripID}/bookings/{bookingID}.
func (s *Server) RemoveBooking(w http.ResponseWriter, r *http.Request) {
	tripID, bookingID, ok := bookingPath(w, r)
	if !ok {
		return
	}

	if err := s.bookings.Remove(r.Context(), tripID, bookingID); err != nil {
		s.respondError(w, r, err, bookingNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bookingPath(w http.ResponseWriter, r *http.Request) (tripID, bookingID openapi_types.UUID, ok bool) {
	if tripID, ok = pathUUID(w, r, "tripID"); !ok {
		return
	}
	bookingID, ok = pathUUID(w, r, "bookingID")
	return
}

// --- mapping helpers --------------------------------------------------------

func requestToBookingInput(body bookingRequest) service.BookingInput {
	in := service.BookingInput{
		Kind:           domain.BookingKind(body.Kind),
		Start:          body.Start,
		End:            body.End,
		Lodging:        body.Lodging,
		Transportation: body.Transportation,
		Activity:       body.Activity,
	}
	if body.Notes != nil {
		in.Notes = *body.Notes
	}
	return in
}

func bookingToResponse(b domain.BookingSnapshot) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID,
		TripID:         b.TripID,
		Kind:           string(b.Kind),
		Start:          b.Start,
		End:            b.End,
		Lodging:        b.Lodging,
		Transportation: b.Transportation,
		Activity:       b.Activity,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.Notes != "" {
		resp.Notes = &b.Notes
	}
	return resp
}
