// Package outboxrepo stores lifecycle events written in the same transaction
// as the state change and hands them to the relay.
package outboxrepo

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/outbox"

	"github.com/google/uuid"
)

// MessageDTO is the row shape of the outbox_messages table. The seq column is
// assigned by the database and only used for ordering.
type MessageDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid"`
	EventType     string
	Payload       []byte `gorm:"type:jsonb"`
	OccurredAt    time.Time
	PublishedAt   *time.Time
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
}

func (MessageDTO) TableName() string {
	return "outbox_messages"
}

func fromDomain(m *outbox.Message) MessageDTO {
	s := m.Snapshot()
	return MessageDTO{
		ID:            s.ID.Bytes(),
		OrderID:       s.OrderID.Bytes(),
		EventType:     s.EventType,
		Payload:       s.Payload,
		OccurredAt:    s.OccurredAt,
		PublishedAt:   s.PublishedAt,
		Attempts:      s.Attempts,
		NextAttemptAt: s.NextAttemptAt,
		LastError:     s.LastError,
	}
}

func toDomain(dto MessageDTO) (*outbox.Message, error) {
	id, idErr := kernel.UUIDFromGoogle(dto.ID)
	orderID, orderErr := kernel.UUIDFromGoogle(dto.OrderID)
	if err := errors.Join(idErr, orderErr); err != nil {
		return nil, err
	}

	return outbox.RestoreMessage(outbox.Snapshot{
		ID:            id,
		OrderID:       orderID,
		EventType:     dto.EventType,
		Payload:       dto.Payload,
		OccurredAt:    dto.OccurredAt,
		PublishedAt:   dto.PublishedAt,
		Attempts:      dto.Attempts,
		NextAttemptAt: dto.NextAttemptAt,
		LastError:     dto.LastError,
	}), nil
}
