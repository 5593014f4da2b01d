package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-organizer/internal/domain"
)

// fakeWriter records messages instead of sending them.
type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ messageWriter = (*fakeWriter)(nil)

func TestKafkaPublisher_WritesKeyedEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	tripID := uuid.New()
	err := p.PublishTripDatesChanged(context.Background(), TripDatesChanged{
		TripID:      tripID,
		Version:     4,
		BookedStart: "2025-06-02",
		BookedEnd:   "2025-06-05",
	})

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, tripID.String(), string(msg.Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, TypeTripDatesChanged, env.Type)
	assert.Equal(t, Source, env.Source)
	assert.True(t, fixed.Equal(env.Time))

	var data TripDatesChanged
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, uint64(4), data.Version)
	assert.Equal(t, "2025-06-05", data.BookedEnd)
	assert.Empty(t, data.Conflict)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom})

	err := p.PublishTripDatesChanged(context.Background(), TripDatesChanged{TripID: uuid.New()})

	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}

	require.NoError(t, newKafkaPublisher(w).Close())

	assert.True(t, w.closed)
}

func TestNewTripDatesChanged_FromSnapshot(t *testing.T) {
	start := domain.NewDay(2025, time.June, 3)
	booked := domain.DateRange{Start: domain.NewDay(2025, time.June, 2), End: domain.NewDay(2025, time.June, 5)}
	s := domain.TripSnapshot{
		ID:          uuid.New(),
		Version:     2,
		StartDate:   &start,
		BookedRange: &booked,
		Conflict:    domain.CheckConflicts(&booked, &start, nil),
	}

	e := NewTripDatesChanged(s)

	assert.Equal(t, "2025-06-03", e.DeclaredStart)
	assert.Empty(t, e.DeclaredEnd)
	assert.Equal(t, "2025-06-02", e.BookedStart)
	assert.Equal(t, "trip start date 2025-06-03 is after the earliest booking start date 2025-06-02", e.Conflict)
}

func TestNewTripDatesChanged_EmptyTrip(t *testing.T) {
	e := NewTripDatesChanged(domain.TripSnapshot{ID: uuid.New()})

	assert.Empty(t, e.BookedStart)
	assert.Empty(t, e.BookedEnd)
	assert.Empty(t, e.Conflict)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}

	assert.NoError(t, p.PublishTripDatesChanged(context.Background(), TripDatesChanged{}))
	assert.NoError(t, p.Close())
}
