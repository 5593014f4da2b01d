package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pkordes/travel-organizer/internal/domain"
	"github.com/pkordes/travel-organizer/internal/metrics"
	"github.com/pkordes/travel-organizer/internal/repo"
)

// DefaultStoreCapacity is used when NewTripStore is given a non-positive capacity.
const DefaultStoreCapacity = 1024

// TripStore keeps loaded trip aggregates in memory so their date-range caches
// survive between requests, and serialises all access to each of them.
//
// A *domain.Trip is not safe for concurrent use; every read and write of one
// goes through TripStore.with, which holds that trip's mutex. The database
// stays the source of truth: an aggregate whose change failed to persist is
// dropped and reloaded on next use.
type TripStore struct {
	trips    repo.TripRepo
	metrics  *metrics.Metrics
	capacity int

	mu      sync.Mutex
	entries map[uuid.UUID]*tripEntry
	loads   singleflight.Group
}

type tripEntry struct {
	mu      sync.Mutex
	trip    *domain.Trip
	dropped bool // guarded by mu
}

// NewTripStore returns an empty store holding at most capacity idle aggregates.
func NewTripStore(trips repo.TripRepo, capacity int, m *metrics.Metrics) *TripStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &TripStore{
		trips:    trips,
		metrics:  m,
		capacity: capacity,
		entries:  make(map[uuid.UUID]*tripEntry),
	}
}

// Len returns the number of aggregates currently held.
func (s *TripStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// untouchedError marks a failure that happened before fn changed the trip.
type untouchedError struct{ err error }

func (e untouchedError) Error() string { return e.err.Error() }
func (e untouchedError) Unwrap() error { return e.err }

// untouched wraps err so that with keeps the aggregate.
func untouched(err error) error { return untouchedError{err: err} }

// with runs fn with exclusive access to the trip, loading it first if needed.
// When fn fails the aggregate is dropped, discarding any in-memory change that
// did not reach the database, unless the error is a validation error or was
// marked untouched. The marker is stripped from the returned error.
func (s *TripStore) with(ctx context.Context, id uuid.UUID, fn func(trip *domain.Trip) error) error {
	e, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := fn(e.trip); err != nil {
		var u untouchedError
		if errors.As(err, &u) {
			return u.err
		}
		if !errors.Is(err, domain.ErrValidation) {
			s.dropLocked(id, e)
		}
		return err
	}
	return nil
}

// view runs fn under the trip's lock if the store already holds it, and
// reports whether it did. It never loads.
func (s *TripStore) view(id uuid.UUID, fn func(trip *domain.Trip)) bool {
	e, ok := s.lookup(id)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dropped {
		return false
	}
	fn(e.trip)
	return true
}

// remove runs del with exclusive access to the trip and then forgets it,
// whatever del returned.
func (s *TripStore) remove(ctx context.Context, id uuid.UUID, del func() error) error {
	e, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	defer s.dropLocked(id, e)
	return del()
}

// put adds a freshly created trip.
func (s *TripStore) put(trip *domain.Trip) {
	s.insert(trip.ID, &tripEntry{trip: trip})
}

// acquire returns the locked entry for id. Concurrent loads of the same trip
// share one database read.
func (s *TripStore) acquire(ctx context.Context, id uuid.UUID) (*tripEntry, error) {
	for {
		e, ok := s.lookup(id)
		if !ok {
			v, err, _ := s.loads.Do(id.String(), func() (any, error) {
				return s.load(context.WithoutCancel(ctx), id)
			})
			if err != nil {
				return nil, err
			}
			e = v.(*tripEntry)
		}

		e.mu.Lock()
		if !e.dropped {
			return e, nil
		}
		e.mu.Unlock()
	}
}

func (s *TripStore) load(ctx context.Context, id uuid.UUID) (*tripEntry, error) {
	if e, ok := s.lookup(id); ok {
		return e, nil
	}
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.TripStore.load: %w", err)
	}
	return s.insert(id, &tripEntry{trip: trip}), nil
}

func (s *TripStore) lookup(id uuid.UUID) (*tripEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// insert stores e unless an entry for id already exists, in which case the
// existing one wins. Idle entries are evicted to stay within capacity; busy
// ones are never evicted, so the store may briefly exceed it.
func (s *TripStore) insert(id uuid.UUID, e *tripEntry) *tripEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[id]; ok {
		return cur
	}
	for key, old := range s.entries {
		if len(s.entries) < s.capacity {
			break
		}
		if !old.mu.TryLock() {
			continue
		}
		old.dropped = true
		delete(s.entries, key)
		old.mu.Unlock()
	}
	s.entries[id] = e
	s.report()
	return e
}

// dropLocked forgets e. The caller holds e.mu.
func (s *TripStore) dropLocked(id uuid.UUID, e *tripEntry) {
	e.dropped = true
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[id] == e {
		delete(s.entries, id)
		s.report()
	}
}

// report publishes the store size. The caller holds s.mu.
func (s *TripStore) report() {
	if s.metrics != nil {
		s.metrics.SetAggregatesCached(len(s.entries))
	}
}
