package queries

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var (
	ErrGetDeliveryPinQueryIsNotConstructed = errors.New(
		"GetDeliveryPinQuery must be created via NewGetDeliveryPinQuery constructor",
	)
)

// GetDeliveryPinQuery reads the delivery PIN. Only the order's buyer may run it;
// the buyer hands the PIN to the driver at the door.
type GetDeliveryPinQuery struct {
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewGetDeliveryPinQuery(orderID kernel.UUID, actor kernel.Actor) (GetDeliveryPinQuery, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return GetDeliveryPinQuery{}, err
	}
	return GetDeliveryPinQuery{orderID: orderID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDeliveryPinQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveryPinQueryIsNotConstructed)
}

type GetDeliveryPinQueryResponse struct {
	Pin               string
	AttemptsRemaining int
	Locked            bool
}
