package commands

import (
	"context"

	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
)

// PlaceOrderCommandHandler creates a Pending order together with its pending escrow.
//
// Example:
//
//	handler := NewPlaceOrderCommandHandler(uowFactory, lifecycle)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("order placement failed: %w", err)
//	}
type PlaceOrderCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
}

func NewPlaceOrderCommandHandler(uowFactory UoWFactory, lifecycle *services.Lifecycle) PlaceOrderCommandHandler {
	return PlaceOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle allocates the order number, stores order and escrow, and records the
// order.placed event in one transaction.
func (h PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	escrowRepo := uow.EscrowRepository()

	number, err := orderRepo.NextNumber(ctx)
	if err != nil {
		return err
	}

	now := h.lifecycle.Now()
	o, err := order.NewOrder(
		cmd.OrderID(),
		number,
		cmd.Buyer().ID(),
		cmd.SupplierID(),
		cmd.Subtotal(),
		cmd.DeliveryFee(),
		cmd.Window(),
		now,
	)
	if err != nil {
		return err
	}

	e, err := escrow.NewEscrow(kernel.NewUUID(), o.ID(), now)
	if err != nil {
		return err
	}

	events, err := h.lifecycle.Place(cmd.Buyer(), services.Aggregates{Order: o, Escrow: e})
	if err != nil {
		return err
	}

	if err = orderRepo.Add(ctx, o); err != nil {
		return err
	}

	if err = escrowRepo.Add(ctx, e); err != nil {
		return err
	}

	if err = storeEvents(ctx, uow, events); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
