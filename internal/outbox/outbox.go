// Package outbox holds domain events written in the same unit of work as the
// state change that produced them, and a dispatcher that delivers them to a
// Sink with retry.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	EventAccountStatementGenerated      = "ACCOUNT_STATEMENT_GENERATED"
	EventAccountSpaceStatementGenerated = "ACCOUNT_SPACE_STATEMENT_GENERATED"

	AggregateStatement = "Statement"
)

// Event is one pending or delivered notification. IDs are ULIDs so that
// lexical order matches creation order.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
	Attempts      int
	NextAttemptAt time.Time
	DispatchedAt  *time.Time
	LastError     string
}

// NewEvent marshals payload and stamps a fresh ULID.
func NewEvent(aggregateType string, aggregateID uuid.UUID, eventType string, payload any, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		CreatedAt:     now,
		NextAttemptAt: now,
	}, nil
}

// Store persists outbox events.
type Store interface {
	Enqueue(ctx context.Context, evt Event) error
	// PendingEvents returns undelivered events due at now, oldest first.
	PendingEvents(ctx context.Context, limit int, now time.Time) ([]Event, error)
	MarkDispatched(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
}

// Sink delivers one event to the outside world.
type Sink interface {
	Send(ctx context.Context, evt Event) error
}

// Publisher enqueues events outside of a larger unit of work.
type Publisher struct {
	store Store
	now   func() time.Time
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Publish records an event for later delivery.
func (p *Publisher) Publish(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload any) (Event, error) {
	evt, err := NewEvent(aggregateType, aggregateID, eventType, payload, p.now())
	if err != nil {
		return Event{}, err
	}
	if err := p.store.Enqueue(ctx, evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}
