// Package ports defines the persistence and messaging contracts of the marketplace core.
// These interfaces establish contracts between the domain layer and infrastructure,
// enabling dependency inversion and testability.
package ports

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates,
// including the embedded delivery.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	// The order must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier without locking it.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order and locks its row until the transaction ends.
	// Every lifecycle command loads the order through this method first, which
	// serializes concurrent actions on the same order.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// NextNumber allocates the next human-readable order number, e.g. "MKT-000042".
	NextNumber(ctx context.Context) (string, error)

	// ListDeliveredBefore returns ids of orders resting in Delivered since before
	// the given time, oldest first.
	ListDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]kernel.UUID, error)
}
