// Package repo contains all database access logic for the travel organizer.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-organizer/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// Trips are returned as fully hydrated aggregates: every booking has been
// attached through Trip.AddBooking, so the date-range cache sees all of them.
type TripRepo interface {
	// Create inserts a new trip. The DB-generated id and timestamps are written
	// back into trip. Bookings are not persisted by Create.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID loads a trip and all its bookings.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)

	// ListPaged returns one page of trips (with bookings) ordered by declared
	// start date, most recent first, along with the total number of trips.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error)

	// Update overwrites the trip's own fields (not its bookings) and refreshes
	// trip.UpdatedAt. Returns domain.ErrNotFound if the trip does not exist.
	Update(ctx context.Context, trip *domain.Trip) error

	// Delete removes a trip and, by cascade, its bookings.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, name, start_date, end_date, notes, time_zone, created_at, updated_at`

// Create inserts a new trip row.
func (r *pgTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	const q = `
		INSERT INTO trips (name, start_date, end_date, notes, time_zone)
		VALUES (@name, @start_date, @end_date, @notes, @time_zone)
		RETURNING id, created_at, updated_at`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, q, tripArgs(trip)).Scan(&id, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	trip.ID = uuid.UUID(id.Bytes)
	return nil
}

// GetByID retrieves a trip by primary key and attaches its bookings.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	trip, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	if err := hydrate(ctx, r.db, []*domain.Trip{trip}); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return trip, nil
}

// ListPaged returns one page of trips. Bookings for the whole page are loaded
// with a single query.
func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + tripColumns + `
		FROM trips
		ORDER BY start_date DESC NULLS LAST, created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	trips := []*domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}
	rows.Close()

	if err := hydrate(ctx, r.db, trips); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	return trips, total, nil
}

// Update overwrites the mutable trip columns.
func (r *pgTripRepo) Update(ctx context.Context, trip *domain.Trip) error {
	const q = `
		UPDATE trips
		SET name       = @name,
		    start_date = @start_date,
		    end_date   = @end_date,
		    notes      = @notes,
		    time_zone  = @time_zone,
		    updated_at = now()
		WHERE id = @id
		RETURNING updated_at`

	args := tripArgs(trip)
	args["id"] = trip.ID

	err := r.db.QueryRow(ctx, q, args).Scan(&trip.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.TripRepo.Update: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func tripArgs(trip *domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"name":       trip.Name,
		"start_date": dayToDate(trip.StartDate), // nil becomes NULL
		"end_date":   dayToDate(trip.EndDate),
		"notes":      trip.Notes,
		"time_zone":  trip.Location().String(),
	}
}

// hydrate attaches every stored booking to its trip.
func hydrate(ctx context.Context, db db, trips []*domain.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Trip, len(trips))
	ids := make([]uuid.UUID, 0, len(trips))
	for _, t := range trips {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	bookings, err := listBookings(ctx, db, ids)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	for tripID, bs := range bookings {
		trip := byID[tripID]
		for _, b := range bs {
			trip.AddBooking(b)
		}
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single trips row into a *domain.Trip.
func scanTrip(s scanner) (*domain.Trip, error) {
	var (
		id        pgtype.UUID
		name      string
		startDate pgtype.Date
		endDate   pgtype.Date
		notes     string
		zone      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&id, &name, &startDate, &endDate, &notes, &zone, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}

	t := domain.NewTrip(uuid.UUID(id.Bytes), name, loc)
	t.StartDate = dateToDay(startDate)
	t.EndDate = dateToDay(endDate)
	t.Notes = notes
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return t, nil
}

// dayToDate converts an optional domain.Day to a nullable Postgres date.
func dayToDate(d *domain.Day) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

// dateToDay converts a nullable Postgres date to an optional domain.Day.
// pgx decodes dates as midnight UTC, so the civil date is read in UTC.
func dateToDay(d pgtype.Date) *domain.Day {
	if !d.Valid {
		return nil
	}
	day := domain.DayOf(d.Time, time.UTC)
	return &day
}
