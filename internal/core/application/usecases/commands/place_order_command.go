package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/guard"
)

var ErrPlaceOrderCommandIsNotConstructed = errors.New(
	"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
)

// PlaceOrderCommand represents a buyer placing an order with a supplier.
// Subtotal and delivery fee come from the pricing collaborator and are taken as is.
//
// Example:
//
//	cmd, err := NewPlaceOrderCommand(kernel.NewUUID(), buyer, supplierID, subtotal, fee, window)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	err = handler.Handle(ctx, cmd)
type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	buyer      kernel.Actor
	supplierID kernel.UUID
	subtotal   kernel.Money
	fee        kernel.Money
	window     order.DeliveryWindow

	guard guard.ConstructorGuard
}

// NewPlaceOrderCommand validates the identifiers, amounts and window. All errors are joined.
func NewPlaceOrderCommand(
	orderID kernel.UUID,
	buyer kernel.Actor,
	supplierID kernel.UUID,
	subtotal kernel.Money,
	fee kernel.Money,
	window order.DeliveryWindow,
) (PlaceOrderCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		buyer.Validate(),
		supplierID.Validate(),
		subtotal.Validate(),
		fee.Validate(),
	); err != nil {
		return PlaceOrderCommand{}, err
	}

	return PlaceOrderCommand{
		orderID:    orderID,
		buyer:      buyer,
		supplierID: supplierID,
		subtotal:   subtotal,
		fee:        fee,
		window:     window,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

func (c PlaceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c PlaceOrderCommand) Buyer() kernel.Actor {
	return c.buyer
}

func (c PlaceOrderCommand) SupplierID() kernel.UUID {
	return c.supplierID
}

func (c PlaceOrderCommand) Subtotal() kernel.Money {
	return c.subtotal
}

func (c PlaceOrderCommand) DeliveryFee() kernel.Money {
	return c.fee
}

func (c PlaceOrderCommand) Window() order.DeliveryWindow {
	return c.window
}
