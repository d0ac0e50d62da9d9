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

var ErrResolveDisputeCommandIsNotConstructed = errors.New(
	"ResolveDisputeCommand must be created via NewResolveDisputeCommand constructor",
)

// ResolveDisputeCommand closes the open dispute of an order with a release or refund.
// Setting override bypasses an outstanding site visit and requires a justification.
type ResolveDisputeCommand struct {
	orderID    kernel.UUID
	actor      kernel.Actor
	resolution services.Resolution

	guard guard.ConstructorGuard
}

func NewResolveDisputeCommand(
	orderID kernel.UUID,
	actor kernel.Actor,
	outcome dispute.Outcome,
	text string,
	override bool,
	justification string,
) (ResolveDisputeCommand, error) {
	justification = strings.TrimSpace(justification)

	var justificationErr error
	if override && justification == "" {
		justificationErr = errs.NewValueIsRequiredError("justification")
	}
	if err := errors.Join(orderID.Validate(), actor.Validate(), outcome.Validate(), justificationErr); err != nil {
		return ResolveDisputeCommand{}, err
	}

	return ResolveDisputeCommand{
		orderID: orderID,
		actor:   actor,
		resolution: services.Resolution{
			Outcome:       outcome,
			Text:          strings.TrimSpace(text),
			Override:      override,
			Justification: justification,
		},
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c ResolveDisputeCommand) Validate() error {
	return c.guard.Validate(ErrResolveDisputeCommandIsNotConstructed)
}

// ResolveDisputeCommandHandler settles a disputed order. A forced resolution
// writes an audit entry in the same transaction and is logged at WARN level.
type ResolveDisputeCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
	logger     *slog.Logger
}

func NewResolveDisputeCommandHandler(
	uowFactory UoWFactory,
	lifecycle *services.Lifecycle,
	logger *slog.Logger,
) ResolveDisputeCommandHandler {
	return ResolveDisputeCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle, logger: logger}
}

func (h ResolveDisputeCommandHandler) Handle(ctx context.Context, cmd ResolveDisputeCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	var disputeID kernel.UUID
	audited := false
	err := runLifecycle(ctx, h.uowFactory, cmd.orderID, func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
		if tx.agg.Dispute != nil {
			disputeID = tx.agg.Dispute.ID()
		}
		events, err := h.lifecycle.ResolveDispute(cmd.actor, tx.agg, cmd.resolution)
		if err != nil || len(events) == 0 || !cmd.resolution.Override {
			return nil, events, err
		}
		if err = recordOverride(ctx, tx, audit.KindDisputeForceResolve, cmd.actor, cmd.resolution.Justification, h.lifecycle); err != nil {
			return nil, nil, err
		}
		audited = true
		return nil, events, nil
	})
	if err != nil {
		return err
	}

	if audited {
		h.logger.WarnContext(ctx, "dispute resolved by override",
			slog.Bool("audit", true),
			slog.String("order_id", cmd.orderID.String()),
			slog.String("dispute_id", disputeID.String()),
			slog.String("operator_id", cmd.actor.ID().String()),
			slog.String("outcome", cmd.resolution.Outcome.String()),
			slog.String("justification", cmd.resolution.Justification),
		)
	}
	return nil
}

// recordOverride appends an audit entry for an administrative override inside the running transaction.
func recordOverride(
	ctx context.Context,
	tx *orderTx,
	kind audit.Kind,
	operator kernel.Actor,
	justification string,
	lifecycle *services.Lifecycle,
) error {
	entry, err := audit.NewEntry(kernel.NewUUID(), tx.agg.Order.ID(), kind, operator, justification, lifecycle.Now())
	if err != nil {
		return err
	}
	return tx.uow.AuditRepository().Add(ctx, entry)
}
