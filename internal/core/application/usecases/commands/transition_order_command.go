package commands

import (
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// OrderAction names a status change requested by one of the parties.
type OrderAction string

const (
	ActionAccept         OrderAction = "accept"
	ActionStartDelivery  OrderAction = "start_delivery"
	ActionMarkDelivered  OrderAction = "mark_delivered"
	ActionConfirmReceipt OrderAction = "confirm_receipt"
	ActionCancel         OrderAction = "cancel"
)

func (a OrderAction) Validate() error {
	switch a {
	case ActionAccept, ActionStartDelivery, ActionMarkDelivered, ActionConfirmReceipt, ActionCancel:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("unknown order action %q", string(a)))
	}
}

// TransitionOrderCommand moves an order along its lifecycle.
//
// Note carries the cancellation reason for ActionCancel and the evidence
// reference for ActionMarkDelivered. It is ignored by the other actions.
//
// Example:
//
//	cmd, err := NewTransitionOrderCommand(orderID, supplier, ActionMarkDelivered, "s3://evidence/drop.jpg")
//	if err != nil {
//	    return err
//	}
//	err = handler.Handle(ctx, cmd)
type TransitionOrderCommand struct {
	orderID kernel.UUID
	actor   kernel.Actor
	action  OrderAction
	note    string

	guard guard.ConstructorGuard
}

func NewTransitionOrderCommand(
	orderID kernel.UUID,
	actor kernel.Actor,
	action OrderAction,
	note string,
) (TransitionOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate(), action.Validate()); err != nil {
		return TransitionOrderCommand{}, err
	}
	return TransitionOrderCommand{
		orderID: orderID,
		actor:   actor,
		action:  action,
		note:    strings.TrimSpace(note),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c TransitionOrderCommand) Actor() kernel.Actor {
	return c.actor
}

func (c TransitionOrderCommand) Action() OrderAction {
	return c.action
}

func (c TransitionOrderCommand) Note() string {
	return c.note
}
