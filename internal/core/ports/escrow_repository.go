package ports

import (
	"context"

	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
)

// EscrowRepository defines the persistence contract for escrow records.
// Each order has exactly one escrow, keyed by the order id.
type EscrowRepository interface {
	Add(ctx context.Context, aggregate *escrow.Escrow) error
	Update(ctx context.Context, aggregate *escrow.Escrow) error

	// GetByOrder returns the escrow of an order or an ObjectNotFoundError.
	GetByOrder(ctx context.Context, orderID kernel.UUID) (*escrow.Escrow, error)
}
