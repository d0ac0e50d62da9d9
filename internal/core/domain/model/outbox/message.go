package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"
)

// ErrMessageIsNotConstructed is returned when a Message was not created through NewMessage or RestoreMessage.
var ErrMessageIsNotConstructed = errors.New("Message must be created via NewMessage constructor")

// maxErrorLength bounds the stored last error.
const maxErrorLength = 512

// ActorPayload identifies who caused the event.
type ActorPayload struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Payload is the JSON document published to the notification topic.
type Payload struct {
	OrderID     string       `json:"order_id"`
	EventType   string       `json:"event_type"`
	OldStatus   string       `json:"old_status"`
	NewStatus   string       `json:"new_status"`
	Actor       ActorPayload `json:"actor"`
	EscrowState string       `json:"escrow_state"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Message is a lifecycle event waiting to be relayed to the notification collaborator.
// It is written in the same transaction as the state change that produced it.
type Message struct {
	id            kernel.UUID
	orderID       kernel.UUID
	eventType     string
	payload       []byte
	occurredAt    time.Time
	publishedAt   *time.Time
	attempts      int
	nextAttemptAt time.Time
	lastError     string

	isConstructed bool
}

// Snapshot is the persisted form of a Message.
type Snapshot struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	EventType     string
	Payload       []byte
	OccurredAt    time.Time
	PublishedAt   *time.Time
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
}

// NewMessage encodes an order event. The message is due immediately.
func NewMessage(event order.Event) (*Message, error) {
	if err := errors.Join(event.ID.Validate(), event.OrderID.Validate(), event.Actor.Validate()); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(Payload{
		OrderID:   event.OrderID.String(),
		EventType: string(event.Type),
		OldStatus: event.OldStatus.String(),
		NewStatus: event.NewStatus.String(),
		Actor: ActorPayload{
			ID:   event.Actor.ID().String(),
			Role: event.Actor.Role().String(),
		},
		EscrowState: event.EscrowState,
		Timestamp:   event.OccurredAt.UTC(),
	})
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	return &Message{
		id:            event.ID,
		orderID:       event.OrderID,
		eventType:     string(event.Type),
		payload:       payload,
		occurredAt:    event.OccurredAt,
		nextAttemptAt: event.OccurredAt,
		isConstructed: true,
	}, nil
}

// NewMessages encodes events in order.
func NewMessages(events []order.Event) ([]*Message, error) {
	messages := make([]*Message, 0, len(events))
	for _, e := range events {
		m, err := NewMessage(e)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// RestoreMessage rehydrates a Message from storage.
func RestoreMessage(s Snapshot) *Message {
	return &Message{
		id:            s.ID,
		orderID:       s.OrderID,
		eventType:     s.EventType,
		payload:       append([]byte(nil), s.Payload...),
		occurredAt:    s.OccurredAt,
		publishedAt:   s.PublishedAt,
		attempts:      s.Attempts,
		nextAttemptAt: s.NextAttemptAt,
		lastError:     s.LastError,
		isConstructed: true,
	}
}

// Snapshot returns a copy of the message state.
func (m *Message) Snapshot() Snapshot {
	return Snapshot{
		ID:            m.id,
		OrderID:       m.orderID,
		EventType:     m.eventType,
		Payload:       append([]byte(nil), m.payload...),
		OccurredAt:    m.occurredAt,
		PublishedAt:   m.publishedAt,
		Attempts:      m.attempts,
		NextAttemptAt: m.nextAttemptAt,
		LastError:     m.lastError,
	}
}

func (m *Message) Validate() error {
	if m == nil || !m.isConstructed {
		return ErrMessageIsNotConstructed
	}
	return nil
}

func (m *Message) ID() kernel.UUID {
	return m.id
}

// OrderID is also the partition key of the published record.
func (m *Message) OrderID() kernel.UUID {
	return m.orderID
}

func (m *Message) EventType() string {
	return m.eventType
}

// Payload returns the encoded JSON document.
func (m *Message) Payload() []byte {
	return append([]byte(nil), m.payload...)
}

func (m *Message) OccurredAt() time.Time {
	return m.occurredAt
}

func (m *Message) IsPublished() bool {
	return m.publishedAt != nil
}

func (m *Message) Attempts() int {
	return m.attempts
}

func (m *Message) NextAttemptAt() time.Time {
	return m.nextAttemptAt
}

func (m *Message) LastError() string {
	return m.lastError
}

// MarkPublished records a successful delivery to the broker.
func (m *Message) MarkPublished(now time.Time) {
	m.attempts++
	m.publishedAt = &now
	m.lastError = ""
}

// MarkFailed records a failed attempt and schedules the next one.
func (m *Message) MarkFailed(cause error, nextAttemptAt time.Time) {
	m.attempts++
	m.nextAttemptAt = nextAttemptAt
	if cause != nil {
		msg := strings.ToValidUTF8(cause.Error(), "")
		if len(msg) > maxErrorLength {
			msg = msg[:maxErrorLength]
		}
		m.lastError = msg
	}
}
