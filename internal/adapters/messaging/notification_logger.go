package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"marketplace/internal/core/domain/model/outbox"
)

// NotificationLogger is the reference notification handler: it decodes each
// lifecycle event and logs it. Real channels (email, push) plug in here.
type NotificationLogger struct {
	logger *slog.Logger
}

func NewNotificationLogger(logger *slog.Logger) *NotificationLogger {
	return &NotificationLogger{logger: logger.With(slog.String("component", "notifier"))}
}

func (n *NotificationLogger) Handle(ctx context.Context, payload []byte) error {
	var event outbox.Payload
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode lifecycle event: %w", err)
	}
	if event.OrderID == "" || event.EventType == "" {
		return fmt.Errorf("lifecycle event without order id or type: %s", payload)
	}

	n.logger.InfoContext(ctx, "lifecycle event received",
		slog.String("order_id", event.OrderID),
		slog.String("event_type", event.EventType),
		slog.String("old_status", event.OldStatus),
		slog.String("new_status", event.NewStatus),
		slog.String("actor_role", event.Actor.Role),
		slog.String("actor_id", event.Actor.ID),
		slog.String("escrow_state", event.EscrowState),
		slog.Time("timestamp", event.Timestamp),
	)
	return nil
}
