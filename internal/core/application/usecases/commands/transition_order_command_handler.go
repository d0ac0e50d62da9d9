package commands

import (
	"context"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
)

// TransitionOrderCommandHandler applies party-driven status changes.
// The order row is locked for the whole transaction; the Lifecycle service
// decides whether the change is legal and which events it produces.
//
// Example:
//
//	handler := NewTransitionOrderCommandHandler(uowFactory, lifecycle)
//	err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrInvalidTransition):
//	    // 409
//	case errors.Is(err, errs.ErrActorNotPermitted):
//	    // 403
//	}
type TransitionOrderCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
}

func NewTransitionOrderCommandHandler(uowFactory UoWFactory, lifecycle *services.Lifecycle) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle}
}

func (h TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return runLifecycle(ctx, h.uowFactory, cmd.OrderID(), func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
		actor, agg := cmd.Actor(), tx.agg
		switch cmd.Action() {
		case ActionAccept:
			return eventsOnly(h.lifecycle.Accept(actor, agg))
		case ActionStartDelivery:
			return eventsOnly(h.lifecycle.StartDelivery(actor, agg))
		case ActionMarkDelivered:
			return eventsOnly(h.lifecycle.MarkDelivered(actor, agg, cmd.Note()))
		case ActionConfirmReceipt:
			return eventsOnly(h.lifecycle.ConfirmReceipt(actor, agg))
		case ActionCancel:
			return eventsOnly(h.lifecycle.Cancel(actor, agg, cmd.Note()))
		default:
			return nil, nil, cmd.Action().Validate()
		}
	})
}
