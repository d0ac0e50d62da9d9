package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"marketplace/internal/core/domain/model/audit"
	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrUnlockPinCommandIsNotConstructed = errors.New(
	"UnlockPinCommand must be created via NewUnlockPinCommand constructor",
)

// UnlockPinCommand is an operator clearing a PIN lockout.
type UnlockPinCommand struct {
	orderID       kernel.UUID
	actor         kernel.Actor
	justification string

	guard guard.ConstructorGuard
}

func NewUnlockPinCommand(orderID kernel.UUID, actor kernel.Actor, justification string) (UnlockPinCommand, error) {
	justification = strings.TrimSpace(justification)

	var justificationErr error
	if justification == "" {
		justificationErr = errs.NewValueIsRequiredError("justification")
	}
	if err := errors.Join(orderID.Validate(), actor.Validate(), justificationErr); err != nil {
		return UnlockPinCommand{}, err
	}

	return UnlockPinCommand{
		orderID:       orderID,
		actor:         actor,
		justification: justification,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c UnlockPinCommand) Validate() error {
	return c.guard.Validate(ErrUnlockPinCommandIsNotConstructed)
}

// UnlockPinCommandHandler restores the PIN attempts of a locked delivery.
type UnlockPinCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
	logger     *slog.Logger
}

func NewUnlockPinCommandHandler(
	uowFactory UoWFactory,
	lifecycle *services.Lifecycle,
	logger *slog.Logger,
) UnlockPinCommandHandler {
	return UnlockPinCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle, logger: logger}
}

func (h UnlockPinCommandHandler) Handle(ctx context.Context, cmd UnlockPinCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	err := runLifecycle(ctx, h.uowFactory, cmd.orderID, func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
		events, err := h.lifecycle.UnlockPin(cmd.actor, tx.agg)
		if err != nil {
			return nil, nil, err
		}
		if err = recordOverride(ctx, tx, audit.KindPinUnlock, cmd.actor, cmd.justification, h.lifecycle); err != nil {
			return nil, nil, err
		}
		return nil, events, nil
	})
	if err != nil {
		return err
	}

	h.logger.WarnContext(ctx, "delivery pin unlocked",
		slog.Bool("audit", true),
		slog.String("order_id", cmd.orderID.String()),
		slog.String("operator_id", cmd.actor.ID().String()),
		slog.String("justification", cmd.justification),
	)
	return nil
}
