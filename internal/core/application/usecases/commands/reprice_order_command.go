package commands

import (
	"context"
	"errors"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/guard"
)

var ErrRepriceOrderCommandIsNotConstructed = errors.New(
	"RepriceOrderCommand must be created via NewRepriceOrderCommand constructor",
)

// RepriceOrderCommand replaces the subtotal and delivery fee of a Pending order.
type RepriceOrderCommand struct {
	orderID  kernel.UUID
	actor    kernel.Actor
	subtotal kernel.Money
	fee      kernel.Money

	guard guard.ConstructorGuard
}

func NewRepriceOrderCommand(
	orderID kernel.UUID,
	actor kernel.Actor,
	subtotal kernel.Money,
	fee kernel.Money,
) (RepriceOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate(), subtotal.Validate(), fee.Validate()); err != nil {
		return RepriceOrderCommand{}, err
	}
	return RepriceOrderCommand{
		orderID:  orderID,
		actor:    actor,
		subtotal: subtotal,
		fee:      fee,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c RepriceOrderCommand) Validate() error {
	return c.guard.Validate(ErrRepriceOrderCommandIsNotConstructed)
}

// RepriceOrderCommandHandler applies a new price to a Pending order.
type RepriceOrderCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
}

func NewRepriceOrderCommandHandler(uowFactory UoWFactory, lifecycle *services.Lifecycle) RepriceOrderCommandHandler {
	return RepriceOrderCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle}
}

func (h RepriceOrderCommandHandler) Handle(ctx context.Context, cmd RepriceOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return runLifecycle(ctx, h.uowFactory, cmd.orderID, func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
		return eventsOnly(h.lifecycle.Reprice(cmd.actor, tx.agg, cmd.subtotal, cmd.fee))
	})
}
