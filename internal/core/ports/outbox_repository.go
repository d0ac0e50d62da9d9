package ports

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/audit"
	"marketplace/internal/core/domain/model/outbox"
)

// OutboxRepository stores lifecycle events until they are relayed.
type OutboxRepository interface {
	// Add stores messages in the current transaction.
	Add(ctx context.Context, messages ...*outbox.Message) error

	// GetPending returns unpublished messages due at now with fewer than
	// maxAttempts attempts, oldest first. Rows are locked with SKIP LOCKED, so
	// concurrent relays receive disjoint batches.
	GetPending(ctx context.Context, now time.Time, limit, maxAttempts int) ([]*outbox.Message, error)

	// Update persists the delivery bookkeeping of a message.
	Update(ctx context.Context, message *outbox.Message) error
}

// AuditRepository appends administrative override records.
type AuditRepository interface {
	Add(ctx context.Context, entry *audit.Entry) error
}

// EventPublisher delivers one outbox message to the notification collaborator.
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}
