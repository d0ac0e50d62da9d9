package queries

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/guard"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery retrieves one order together with its escrow and active dispute.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID, actor)
//	if err != nil {
//	    return err
//	}
//
//	view, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get order: %w", err)
//	}
//
//	fmt.Printf("Order %s is %s, escrow %s\n", view.Number, view.Status, view.Escrow.State)
type GetOrderQuery struct {
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for the order view as seen by actor.
func NewGetOrderQuery(orderID kernel.UUID, actor kernel.Actor) (GetOrderQuery, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// DeliveryView summarizes delivery verification. The PIN itself is never part
// of it; the buyer reads it through GetDeliveryPinQuery.
type DeliveryView struct {
	Method            order.Method
	AttemptsRemaining int
	MaxAttempts       int
	Locked            bool
	VerifiedAt        *time.Time
	EvidenceRef       string
	UploadedAt        *time.Time
}

// EscrowView is the ledger state of the order funds.
type EscrowView struct {
	State        escrow.State
	Amount       kernel.Money
	RefundReason string
	HeldAt       *time.Time
	ReleasedAt   *time.Time
	RefundedAt   *time.Time
}

// GetOrderQueryResponse is the order view. ActiveDispute is nil when no
// dispute is open.
type GetOrderQueryResponse struct {
	ID                 kernel.UUID
	Number             string
	BuyerID            kernel.UUID
	SupplierID         kernel.UUID
	Subtotal           kernel.Money
	DeliveryFee        kernel.Money
	Total              kernel.Money
	Status             order.Status
	WindowStart        time.Time
	WindowEnd          time.Time
	CancellationReason string
	Delivery           DeliveryView
	Escrow             EscrowView
	ActiveDispute      *DisputeView
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ConfirmedAt        *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	DisputedAt         *time.Time
}
