package commands

import (
	"context"
	"errors"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/model/outbox"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
)

// orderTx is one locked order with its escrow and active dispute, loaded inside a unit of work.
type orderTx struct {
	uow      UoW
	orders   ports.OrderRepository
	escrows  ports.EscrowRepository
	disputes ports.DisputeRepository
	agg      services.Aggregates
}

// lockOrder locks the order row and loads the aggregates coordinated by the Lifecycle service.
// Every read happens after the lock, so concurrent actions on the same order are serialized.
func lockOrder(ctx context.Context, uow UoW, orderID kernel.UUID) (*orderTx, error) {
	tx := &orderTx{
		uow:      uow,
		orders:   uow.OrderRepository(),
		escrows:  uow.EscrowRepository(),
		disputes: uow.DisputeRepository(),
	}

	o, err := tx.orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	e, err := tx.escrows.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	d, err := tx.disputes.GetActiveByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}

	tx.agg = services.Aggregates{Order: o, Escrow: e, Dispute: d}
	return tx, nil
}

// save persists the aggregates and stores events in the outbox.
// opened is a dispute created by the action and not yet stored.
func (tx *orderTx) save(ctx context.Context, opened *dispute.Dispute, events []order.Event) error {
	if err := tx.orders.Update(ctx, tx.agg.Order); err != nil {
		return err
	}
	if err := tx.escrows.Update(ctx, tx.agg.Escrow); err != nil {
		return err
	}
	if tx.agg.Dispute != nil {
		if err := tx.disputes.Update(ctx, tx.agg.Dispute); err != nil {
			return err
		}
	}
	if opened != nil {
		if err := tx.disputes.Add(ctx, opened); err != nil {
			return err
		}
	}
	return storeEvents(ctx, tx.uow, events)
}

func storeEvents(ctx context.Context, uow OutboxRepoFactory, events []order.Event) error {
	if len(events) == 0 {
		return nil
	}
	messages, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return uow.OutboxRepository().Add(ctx, messages...)
}

// lifecycleStep applies one Lifecycle action to the locked aggregates.
type lifecycleStep func(tx *orderTx) (opened *dispute.Dispute, events []order.Event, err error)

// runLifecycle executes step in its own unit of work. A replay produces no
// events and commits nothing.
func runLifecycle(ctx context.Context, factory UoWFactory, orderID kernel.UUID, step lifecycleStep) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	tx, err := lockOrder(ctx, uow, orderID)
	if err != nil {
		return err
	}

	opened, events, err := step(tx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	if err = tx.save(ctx, opened, events); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// eventsOnly adapts Lifecycle actions that never open a dispute.
func eventsOnly(events []order.Event, err error) (*dispute.Dispute, []order.Event, error) {
	return nil, events, err
}
