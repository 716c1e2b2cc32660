package lib

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ticketbooth/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	RESERVATION_CREATED        EventType = "reservation.created"
	RESERVATION_CONFIRMED      EventType = "reservation.confirmed"
	RESERVATION_PAYMENT_FAILED EventType = "reservation.payment_failed"
	RESERVATION_RELEASED       EventType = "reservation.released"
	RESERVATION_CANCELLED      EventType = "reservation.cancelled"
	RESERVATION_EXPIRED        EventType = "reservation.expired"
)

// ReservationEvent is published after the transaction that caused it commits.
type ReservationEvent struct {
	ID            uuid.UUID               `json:"id"`
	Type          EventType               `json:"type"`
	ReservationID uuid.UUID               `json:"reservationId"`
	UserID        uuid.UUID               `json:"userId"`
	EventID       uuid.UUID               `json:"eventId,omitempty"`
	Status        types.ReservationStatus `json:"status"`
	TicketIDs     []uuid.UUID             `json:"ticketIds,omitempty"`
	Amount        *decimal.Decimal        `json:"amount,omitempty"`
	OccurredAt    time.Time               `json:"occurredAt"`
}

func NewReservationEvent(kind EventType, reservationID, userID uuid.UUID, status types.ReservationStatus) ReservationEvent {
	return ReservationEvent{
		ID:            uuid.New(),
		Type:          kind,
		ReservationID: reservationID,
		UserID:        userID,
		Status:        status,
		OccurredAt:    time.Now().UTC(),
	}
}

func (e ReservationEvent) Key() []byte {
	return []byte(e.ReservationID.String())
}

func (e ReservationEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Name() string
	Publish(ctx context.Context, evt ReservationEvent) error
	Close()
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Name() string { return "log" }

func (LogPublisher) Publish(ctx context.Context, evt ReservationEvent) error {
	log.Printf("[EVENTS] %s reservation=%s status=%s tickets=%d\n", evt.Type, evt.ReservationID, evt.Status, len(evt.TicketIDs))
	return nil
}

func (LogPublisher) Close() {}

// MemoryPublisher keeps events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []ReservationEvent
}

func (m *MemoryPublisher) Name() string { return "memory" }

func (m *MemoryPublisher) Publish(ctx context.Context, evt ReservationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *MemoryPublisher) Close() {}

func (m *MemoryPublisher) Events() []ReservationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ReservationEvent(nil), m.events...)
}

func (m *MemoryPublisher) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]EventType, 0, len(m.events))
	for _, evt := range m.events {
		kinds = append(kinds, evt.Type)
	}
	return kinds
}

// Emit publishes and logs failures. Delivery problems never undo a committed change.
func Emit(ctx context.Context, p Publisher, evt ReservationEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		log.Printf("[EVENTS] Error publishing %s via %s: %s\n", evt.Type, p.Name(), err.Error())
		EventPublishFailures.WithLabelValues(p.Name()).Inc()
	}
}
