package commands

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrOpenDisputeCommandIsNotConstructed = errors.New(
	"OpenDisputeCommand must be created via NewOpenDisputeCommand constructor",
)

// DisputeOrigin tells how a dispute is raised.
type DisputeOrigin string

const (
	// OriginRejection is the buyer refusing a delivery they were asked to confirm.
	OriginRejection DisputeOrigin = "rejection"
	// OriginReport is an issue reported by either party or the system at any disputable status.
	OriginReport DisputeOrigin = "report"
)

func (o DisputeOrigin) Validate() error {
	if o != OriginRejection && o != OriginReport {
		return errs.NewValueIsInvalidErrorWithCause("origin", fmt.Errorf("unknown dispute origin %q", string(o)))
	}
	return nil
}

// OpenDisputeCommand opens a dispute on an order and freezes its escrow.
type OpenDisputeCommand struct {
	orderID kernel.UUID
	actor   kernel.Actor
	origin  DisputeOrigin
	report  services.IssueReport

	guard guard.ConstructorGuard
}

// NewOpenDisputeCommand checks the request shape. Description length and the
// site-visit rules depend on policy and are checked by the dispute aggregate.
func NewOpenDisputeCommand(
	orderID kernel.UUID,
	actor kernel.Actor,
	origin DisputeOrigin,
	report services.IssueReport,
) (OpenDisputeCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate(), origin.Validate(), report.Reason.Validate()); err != nil {
		return OpenDisputeCommand{}, err
	}
	return OpenDisputeCommand{
		orderID: orderID,
		actor:   actor,
		origin:  origin,
		report:  report,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c OpenDisputeCommand) Validate() error {
	return c.guard.Validate(ErrOpenDisputeCommandIsNotConstructed)
}

// OpenDisputeCommandHandler stores the new dispute and moves the order to Disputed.
// A second open dispute on the same order is rejected by the dispute repository.
type OpenDisputeCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
}

func NewOpenDisputeCommandHandler(uowFactory UoWFactory, lifecycle *services.Lifecycle) OpenDisputeCommandHandler {
	return OpenDisputeCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle}
}

func (h OpenDisputeCommandHandler) Handle(ctx context.Context, cmd OpenDisputeCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return runLifecycle(ctx, h.uowFactory, cmd.orderID, func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
		if cmd.origin == OriginRejection {
			return h.lifecycle.RejectDelivery(cmd.actor, tx.agg, cmd.report)
		}
		return h.lifecycle.ReportIssue(cmd.actor, tx.agg, cmd.report)
	})
}
