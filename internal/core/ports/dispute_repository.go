package ports

import (
	"context"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
)

// DisputeRepository defines the persistence contract for disputes.
type DisputeRepository interface {
	// Add persists a newly opened dispute. A second open dispute for the same
	// order violates the storage constraint and returns an ObjectAlreadyExistsError.
	Add(ctx context.Context, aggregate *dispute.Dispute) error

	Update(ctx context.Context, aggregate *dispute.Dispute) error

	// GetActiveByOrder returns the open dispute of an order or an ObjectNotFoundError.
	GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*dispute.Dispute, error)
}
