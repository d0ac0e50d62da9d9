package order

import (
	"time"

	"marketplace/internal/core/domain/model/kernel"
)

// EventType names a lifecycle notification, e.g. "order.confirmed".
type EventType string

// Annotation events record workflow steps that do not change the order status.
// Their OldStatus and NewStatus are both the current status.
const (
	EventOrderPlaced               EventType = "order.placed"
	EventOrderRepriced             EventType = "order.repriced"
	EventDisputeInvestigating      EventType = "dispute.investigating"
	EventDisputeEscalated          EventType = "dispute.escalated"
	EventDisputeEvidenceAdded      EventType = "dispute.evidence_added"
	EventDisputeSiteVisitScheduled EventType = "dispute.site_visit_scheduled"
	EventDisputeSiteVisitCompleted EventType = "dispute.site_visit_completed"
	EventDeliveryPinLocked         EventType = "delivery.pin_locked"
	EventDeliveryPinUnlocked       EventType = "delivery.pin_unlocked"
)

const transitionEventPrefix = "order."

// TransitionEventType returns the event type emitted when an order enters status s.
func TransitionEventType(s Status) EventType {
	return EventType(transitionEventPrefix + s.String())
}

// Event is the notification produced by every accepted action.
// EscrowState is the escrow state after the action, as its string form.
type Event struct {
	ID          kernel.UUID
	OrderID     kernel.UUID
	Type        EventType
	OldStatus   Status
	NewStatus   Status
	Actor       kernel.Actor
	EscrowState string
	OccurredAt  time.Time
}

// NewTransitionEvent builds the event for an accepted status change.
func NewTransitionEvent(orderID kernel.UUID, from, to Status, actor kernel.Actor, escrowState string, now time.Time) Event {
	return Event{
		ID:          kernel.NewUUID(),
		OrderID:     orderID,
		Type:        TransitionEventType(to),
		OldStatus:   from,
		NewStatus:   to,
		Actor:       actor,
		EscrowState: escrowState,
		OccurredAt:  now,
	}
}

// NewAnnotationEvent builds an event that leaves the order status untouched.
func NewAnnotationEvent(
	orderID kernel.UUID,
	eventType EventType,
	current Status,
	actor kernel.Actor,
	escrowState string,
	now time.Time,
) Event {
	return Event{
		ID:          kernel.NewUUID(),
		OrderID:     orderID,
		Type:        eventType,
		OldStatus:   current,
		NewStatus:   current,
		Actor:       actor,
		EscrowState: escrowState,
		OccurredAt:  now,
	}
}
