package queries

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var (
	ErrListOrderDisputesQueryIsNotConstructed = errors.New(
		"ListOrderDisputesQuery must be created via NewListOrderDisputesQuery constructor",
	)
)

// ListOrderDisputesQuery retrieves the dispute history of an order, oldest first.
// Resolved disputes stay in the history; at most one entry is still open.
type ListOrderDisputesQuery struct {
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewListOrderDisputesQuery(orderID kernel.UUID, actor kernel.Actor) (ListOrderDisputesQuery, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return ListOrderDisputesQuery{}, err
	}
	return ListOrderDisputesQuery{orderID: orderID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrderDisputesQuery) Validate() error {
	return q.guard.Validate(ErrListOrderDisputesQueryIsNotConstructed)
}
