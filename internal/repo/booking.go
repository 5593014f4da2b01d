package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-organizer/internal/domain"
)

// BookingRepo defines the persistence operations for Bookings.
// Every operation is scoped to a trip: a booking ID that exists under a
// different trip is reported as domain.ErrNotFound.
type BookingRepo interface {
	// Create inserts b under tripID and stamps its timestamps.
	// The booking ID is assigned by the caller.
	Create(ctx context.Context, tripID uuid.UUID, b domain.Booking) error

	// Update overwrites the dates, notes and details of b.
	Update(ctx context.Context, tripID uuid.UUID, b domain.Booking) error

	// Delete removes a single booking.
	Delete(ctx context.Context, tripID, bookingID uuid.UUID) error

	// ListByTripIDs returns the bookings of every listed trip, keyed by trip ID
	// and ordered by start within each trip. Trips without bookings are absent.
	ListByTripIDs(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Booking, error)
}

// pgBookingRepo is the Postgres implementation of BookingRepo.
type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `id, trip_id, kind, start_at, end_at, notes, details, created_at, updated_at`

// Create inserts a new booking row.
func (r *pgBookingRepo) Create(ctx context.Context, tripID uuid.UUID, b domain.Booking) error {
	const q = `
		INSERT INTO bookings (id, trip_id, kind, start_at, end_at, notes, details)
		VALUES (@id, @trip_id, @kind, @start_at, @end_at, @notes, @details)
		RETURNING created_at, updated_at`

	args, err := bookingArgs(tripID, b)
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.Create: %w", err)
	}
	args["kind"] = string(b.Kind())

	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, q, args).Scan(&createdAt, &updatedAt); err != nil {
		return fmt.Errorf("repo.BookingRepo.Create: %w", err)
	}
	b.Stamp(createdAt, updatedAt)
	return nil
}

// Update overwrites the mutable booking columns. The kind never changes.
func (r *pgBookingRepo) Update(ctx context.Context, tripID uuid.UUID, b domain.Booking) error {
	const q = `
		UPDATE bookings
		SET start_at   = @start_at,
		    end_at     = @end_at,
		    notes      = @notes,
		    details    = @details,
		    updated_at = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING created_at, updated_at`

	args, err := bookingArgs(tripID, b)
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.Update: %w", err)
	}

	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, q, args).Scan(&createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.BookingRepo.Update: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.BookingRepo.Update: %w", err)
	}
	b.Stamp(createdAt, updatedAt)
	return nil
}

// Delete removes a booking by trip and booking ID.
func (r *pgBookingRepo) Delete(ctx context.Context, tripID, bookingID uuid.UUID) error {
	const q = `DELETE FROM bookings WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": bookingID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BookingRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByTripIDs loads bookings for several trips in one query.
func (r *pgBookingRepo) ListByTripIDs(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Booking, error) {
	out, err := listBookings(ctx, r.db, tripIDs)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByTripIDs: %w", err)
	}
	return out, nil
}

// listBookings is shared with the trip repo, which uses it to hydrate aggregates.
func listBookings(ctx context.Context, db db, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Booking, error) {
	out := make(map[uuid.UUID][]domain.Booking)
	if len(tripIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(tripIDs))
	for i, id := range tripIDs {
		ids[i] = id.String()
	}

	q := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE trip_id = ANY(@ids::uuid[])
		ORDER BY trip_id, start_at, id`

	rows, err := db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tripID, b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("list bookings: scan: %w", err)
		}
		out[tripID] = append(out[tripID], b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: rows: %w", err)
	}
	return out, nil
}

func bookingArgs(tripID uuid.UUID, b domain.Booking) (pgx.NamedArgs, error) {
	details, err := encodeDetails(b)
	if err != nil {
		return nil, err
	}
	return pgx.NamedArgs{
		"id":       b.ID(),
		"trip_id":  tripID,
		"start_at": b.Start(),
		"end_at":   b.End(),
		"notes":    b.Notes(),
		"details":  details,
	}, nil
}

// encodeDetails serialises the variant-specific fields into the details column.
func encodeDetails(b domain.Booking) ([]byte, error) {
	var v any
	switch b := b.(type) {
	case *domain.Lodging:
		v = b.LodgingDetails
	case *domain.Transportation:
		v = b.TransportationDetails
	case *domain.Activity:
		v = b.ActivityDetails
	default:
		return nil, fmt.Errorf("encode details: unsupported booking type %T", b)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	return raw, nil
}

// scanBooking maps a single bookings row into its concrete variant.
// The returned booking is detached; callers attach it to its trip.
func scanBooking(s scanner) (uuid.UUID, domain.Booking, error) {
	var (
		id        pgtype.UUID
		tripID    pgtype.UUID
		kind      string
		startAt   time.Time
		endAt     time.Time
		notes     string
		details   []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&id, &tripID, &kind, &startAt, &endAt, &notes, &details, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil, domain.ErrNotFound
		}
		return uuid.Nil, nil, err
	}

	bookingID := uuid.UUID(id.Bytes)
	var b domain.Booking
	switch domain.BookingKind(kind) {
	case domain.KindLodging:
		var d domain.LodgingDetails
		if err := json.Unmarshal(details, &d); err != nil {
			return uuid.Nil, nil, fmt.Errorf("decode lodging details: %w", err)
		}
		b = domain.NewLodging(bookingID, startAt, endAt, d)
	case domain.KindTransportation:
		var d domain.TransportationDetails
		if err := json.Unmarshal(details, &d); err != nil {
			return uuid.Nil, nil, fmt.Errorf("decode transportation details: %w", err)
		}
		b = domain.NewTransportation(bookingID, startAt, endAt, d)
	case domain.KindActivity:
		var d domain.ActivityDetails
		if err := json.Unmarshal(details, &d); err != nil {
			return uuid.Nil, nil, fmt.Errorf("decode activity details: %w", err)
		}
		b = domain.NewActivity(bookingID, startAt, endAt, d)
	default:
		return uuid.Nil, nil, fmt.Errorf("unknown booking kind %q", kind)
	}

	b.SetNotes(notes)
	b.Stamp(createdAt, updatedAt)
	return uuid.UUID(tripID.Bytes), b, nil
}
