package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrSettleDeliveredCommandIsNotConstructed = errors.New(
	"SettleDeliveredCommand must be created via NewSettleDeliveredCommand constructor",
)

// SettleDeliveredCommand completes Delivered orders whose settlement window elapsed.
type SettleDeliveredCommand struct {
	batchSize int

	guard guard.ConstructorGuard
}

func NewSettleDeliveredCommand(batchSize int) (SettleDeliveredCommand, error) {
	if batchSize <= 0 {
		return SettleDeliveredCommand{}, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded")
	}
	return SettleDeliveredCommand{batchSize: batchSize, guard: guard.NewConstructorGuard()}, nil
}

func (c SettleDeliveredCommand) Validate() error {
	return c.guard.Validate(ErrSettleDeliveredCommandIsNotConstructed)
}

// SettleDeliveredCommandHandler sweeps settlement candidates as the system actor.
//
// Candidates are listed without a lock and each order is then settled in its own
// unit of work, where the row lock and the Lifecycle rules apply. An order that
// moved on in between (for example into a dispute) fails its own step and does
// not stop the sweep.
type SettleDeliveredCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
	logger     *slog.Logger
}

func NewSettleDeliveredCommandHandler(
	uowFactory UoWFactory,
	lifecycle *services.Lifecycle,
	logger *slog.Logger,
) SettleDeliveredCommandHandler {
	return SettleDeliveredCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle, logger: logger}
}

// Handle returns the number of orders settled. Per-order failures are joined.
func (h SettleDeliveredCommandHandler) Handle(ctx context.Context, cmd SettleDeliveredCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	window := h.lifecycle.Policy().SettlementWindow()
	if window <= 0 {
		return 0, nil
	}

	ids, err := h.listCandidates(ctx, cmd.batchSize, window)
	if err != nil {
		return 0, err
	}

	settled := 0
	var errList []error
	for _, id := range ids {
		if err = ctx.Err(); err != nil {
			errList = append(errList, err)
			break
		}
		err = runLifecycle(ctx, h.uowFactory, id, func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
			return eventsOnly(h.lifecycle.SettleDelivered(kernel.SystemActor(), tx.agg))
		})
		if err != nil {
			h.logger.WarnContext(ctx, "order settlement skipped",
				slog.String("order_id", id.String()),
				slog.String("error", err.Error()),
			)
			errList = append(errList, fmt.Errorf("settle order %s: %w", id, err))
			continue
		}
		settled++
	}

	return settled, errors.Join(errList...)
}

func (h SettleDeliveredCommandHandler) listCandidates(ctx context.Context, limit int, window time.Duration) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().ListDeliveredBefore(ctx, h.lifecycle.Now().Add(-window), limit)
}
