package commands

import (
	"context"
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrVerifyPinCommandIsNotConstructed = errors.New(
	"VerifyPinCommand must be created via NewVerifyPinCommand constructor",
)

// VerifyPinCommand carries the PIN the supplier collected from the buyer at handover.
type VerifyPinCommand struct {
	orderID kernel.UUID
	actor   kernel.Actor
	pin     string

	guard guard.ConstructorGuard
}

// NewVerifyPinCommand does not check the PIN format; a malformed PIN still
// consumes an attempt in the order aggregate.
func NewVerifyPinCommand(orderID kernel.UUID, actor kernel.Actor, pin string) (VerifyPinCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return VerifyPinCommand{}, err
	}
	return VerifyPinCommand{
		orderID: orderID,
		actor:   actor,
		pin:     pin,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c VerifyPinCommand) Validate() error {
	return c.guard.Validate(ErrVerifyPinCommandIsNotConstructed)
}

// VerifyPinCommandHandler checks a delivery PIN and settles the order on success.
//
// Unlike the other lifecycle handlers it commits on a PIN failure: the consumed
// attempt and, on lockout, the delivery.pin_locked event must survive the
// rejected request.
type VerifyPinCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
}

func NewVerifyPinCommandHandler(uowFactory UoWFactory, lifecycle *services.Lifecycle) VerifyPinCommandHandler {
	return VerifyPinCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle}
}

func (h VerifyPinCommandHandler) Handle(ctx context.Context, cmd VerifyPinCommand) error {
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

	tx, err := lockOrder(ctx, uow, cmd.orderID)
	if err != nil {
		return err
	}

	events, verifyErr := h.lifecycle.VerifyPin(cmd.actor, tx.agg, cmd.pin)
	if verifyErr != nil && !isPinFailure(verifyErr) {
		return verifyErr
	}
	if verifyErr == nil && len(events) == 0 {
		return nil
	}

	if err = tx.orders.Update(ctx, tx.agg.Order); err != nil {
		return err
	}
	if verifyErr == nil {
		if err = tx.escrows.Update(ctx, tx.agg.Escrow); err != nil {
			return err
		}
	}
	if err = storeEvents(ctx, uow, events); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return verifyErr
}

func isPinFailure(err error) bool {
	return errors.Is(err, errs.ErrPinMismatch) || errors.Is(err, errs.ErrPinAttemptsExhausted)
}
