// Package events publishes trip change notifications to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/pkordes/travel-organizer/internal/domain"
)

const (
	// Source identifies this service in every envelope.
	Source = "travel-organizer"

	// TypeTripDatesChanged is published after any change that can move a
	// trip's booked range or its declared window.
	TypeTripDatesChanged = "trip.dates_changed"
)

// Envelope wraps every event with routing metadata.
type Envelope struct {
	ID     uuid.UUID       `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// TripDatesChanged carries a trip's dates after a mutation. BookedStart and
// BookedEnd are absent when the trip has no bookings; Conflict is absent when
// the declared window covers every booking.
type TripDatesChanged struct {
	TripID        uuid.UUID `json:"trip_id"`
	Version       uint64    `json:"version"`
	DeclaredStart string    `json:"declared_start,omitempty"`
	DeclaredEnd   string    `json:"declared_end,omitempty"`
	BookedStart   string    `json:"booked_start,omitempty"`
	BookedEnd     string    `json:"booked_end,omitempty"`
	Conflict      string    `json:"conflict,omitempty"`
}

// NewTripDatesChanged builds the event from a snapshot.
func NewTripDatesChanged(s domain.TripSnapshot) TripDatesChanged {
	e := TripDatesChanged{TripID: s.ID, Version: s.Version}
	if s.StartDate != nil {
		e.DeclaredStart = s.StartDate.String()
	}
	if s.EndDate != nil {
		e.DeclaredEnd = s.EndDate.String()
	}
	if s.BookedRange != nil {
		e.BookedStart = s.BookedRange.Start.String()
		e.BookedEnd = s.BookedRange.End.String()
	}
	if s.Conflict != nil {
		e.Conflict = s.Conflict.Message()
	}
	return e
}

// Publisher delivers trip events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishTripDatesChanged(ctx context.Context, e TripDatesChanged) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single Kafka topic, keyed by trip ID so
// that every event of one trip lands on the same partition in order.
type KafkaPublisher struct {
	w   messageWriter
	now func() time.Time
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w, now: time.Now}
}

// PublishTripDatesChanged sends e wrapped in an Envelope.
func (p *KafkaPublisher) PublishTripDatesChanged(ctx context.Context, e TripDatesChanged) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events.KafkaPublisher.PublishTripDatesChanged: marshal data: %w", err)
	}
	value, err := json.Marshal(Envelope{
		ID:     uuid.New(),
		Source: Source,
		Type:   TypeTripDatesChanged,
		Time:   p.now().UTC(),
		Data:   data,
	})
	if err != nil {
		return fmt.Errorf("events.KafkaPublisher.PublishTripDatesChanged: marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.TripID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeTripDatesChanged)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events.KafkaPublisher.PublishTripDatesChanged: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// NopPublisher discards every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishTripDatesChanged(context.Context, TripDatesChanged) error { return nil }
func (NopPublisher) Close() error                                                    { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
