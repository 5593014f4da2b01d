package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/service"
)

const tripNotFound = "trip not found"

// tripRequest is the body of POST /trips and PUT /trips/{tripID}.
type tripRequest struct {
	Name      string              `json:"name"`
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	EndDate   *openapi_types.Date `json:"end_date,omitempty"`
	Notes     *string             `json:"notes,omitempty"`
	TimeZone  *string             `json:"time_zone,omitempty"`
}

// tripResponse is a trip with its derived dates. BookedRange is null for a
// trip without bookings; DateConflict is null when the declared dates cover
// every booking.
type tripResponse struct {
	ID           openapi_types.UUID  `json:"id"`
	Name         string              `json:"name"`
	StartDate    *openapi_types.Date `json:"start_date"`
	EndDate      *openapi_types.Date `json:"end_date"`
	Notes        *string             `json:"notes,omitempty"`
	TimeZone     string              `json:"time_zone"`
	BookedRange  *dateRange          `json:"booked_range"`
	DateConflict *string             `json:"date_conflict"`
	BookingCount int                 `json:"booking_count"`
	Version      uint64              `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type tripListResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination pagination     `json:"pagination"`
}

// dateCheckRequest is the body of POST /trips/{tripID}/date-check.
type dateCheckRequest struct {
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	EndDate   *openapi_types.Date `json:"end_date,omitempty"`
}

type dateCheckResponse struct {
	TripID      openapi_types.UUID `json:"trip_id"`
	Version     uint64             `json:"version"`
	BookedRange *dateRange         `json:"booked_range"`
	Conflict    bool               `json:"conflict"`
	Kind        *string            `json:"kind"`
	Message     *string            `json:"message"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body tripRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.trips.Create(r.Context(), requestToTripInput(body))
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListPaged(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}

	data := make([]tripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, tripListResponse{
		Data:       data,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	trip, err := s.trips.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body tripRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	updated, err := s.trips.Update(r.Context(), id, requestToTripInput(body))
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripID}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckTripDates handles POST /trips/{tripID}/date-check.
// It answers whether the given window would conflict with the trip's
// bookings. The trip itself is not changed.
func (s *Server) CheckTripDates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body dateCheckRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	check, err := s.trips.CheckDates(r.Context(), id, dateToDay(body.StartDate), dateToDay(body.EndDate))
	if err != nil {
		s.respondError(w, r, err, tripNotFound)
		return
	}

	resp := dateCheckResponse{
		TripID:      check.TripID,
		Version:     check.Version,
		BookedRange: rangeToResponse(check.BookedRange),
	}
	if c := check.Conflict; c != nil {
		kind := string(c.Kind)
		msg := c.Message()
		resp.Conflict = true
		resp.Kind = &kind
		resp.Message = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- mapping helpers --------------------------------------------------------

func requestToTripInput(body tripRequest) service.TripInput {
	in := service.TripInput{
		Name:      body.Name,
		StartDate: dateToDay(body.StartDate),
		EndDate:   dateToDay(body.EndDate),
	}
	if body.Notes != nil {
		in.Notes = *body.Notes
	}
	if body.TimeZone != nil {
		in.TimeZone = *body.TimeZone
	}
	return in
}

func tripToResponse(t domain.TripSnapshot) tripResponse {
	resp := tripResponse{
		ID:           t.ID,
		Name:         t.Name,
		StartDate:    dayToDate(t.StartDate),
		EndDate:      dayToDate(t.EndDate),
		TimeZone:     t.TimeZone,
		BookedRange:  rangeToResponse(t.BookedRange),
		BookingCount: len(t.Bookings),
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.Notes != "" {
		resp.Notes = &t.Notes
	}
	if t.Conflict != nil {
		msg := t.Conflict.Message()
		resp.DateConflict = &msg
	}
	return resp
}
