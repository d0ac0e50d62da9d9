package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrDisputeActionCommandIsNotConstructed = errors.New(
	"DisputeActionCommand must be created via one of the NewDisputeActionCommand constructors",
)

// DisputeAction names a workflow step on an open dispute.
type DisputeAction string

const (
	DisputeAddEvidence       DisputeAction = "add_evidence"
	DisputeInvestigate       DisputeAction = "investigate"
	DisputeEscalate          DisputeAction = "escalate"
	DisputeScheduleSiteVisit DisputeAction = "schedule_site_visit"
	DisputeCompleteSiteVisit DisputeAction = "complete_site_visit"
)

func (a DisputeAction) Validate() error {
	switch a {
	case DisputeAddEvidence, DisputeInvestigate, DisputeEscalate, DisputeScheduleSiteVisit, DisputeCompleteSiteVisit:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("unknown dispute action %q", string(a)))
	}
}

// DisputeActionCommand applies one workflow step to the open dispute of an order.
//
// Example:
//
//	cmd, err := NewScheduleSiteVisitCommand(orderID, operator, visitAt, "inspector-7")
//	if err != nil {
//	    return err
//	}
//	err = handler.Handle(ctx, cmd)
type DisputeActionCommand struct {
	orderID kernel.UUID
	actor   kernel.Actor
	action  DisputeAction

	evidenceRef string
	visitAt     time.Time
	inspector   string

	guard guard.ConstructorGuard
}

// NewDisputeActionCommand builds the commands that carry no payload:
// investigate, escalate and complete site visit.
func NewDisputeActionCommand(orderID kernel.UUID, actor kernel.Actor, action DisputeAction) (DisputeActionCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate(), action.Validate()); err != nil {
		return DisputeActionCommand{}, err
	}
	if action == DisputeAddEvidence || action == DisputeScheduleSiteVisit {
		return DisputeActionCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"action", fmt.Errorf("%s requires a payload", action))
	}
	return DisputeActionCommand{
		orderID: orderID,
		actor:   actor,
		action:  action,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func NewAddEvidenceCommand(orderID kernel.UUID, actor kernel.Actor, ref string) (DisputeActionCommand, error) {
	ref = strings.TrimSpace(ref)
	var refErr error
	if ref == "" {
		refErr = errs.NewValueIsRequiredError("evidence")
	}
	if err := errors.Join(orderID.Validate(), actor.Validate(), refErr); err != nil {
		return DisputeActionCommand{}, err
	}
	return DisputeActionCommand{
		orderID:     orderID,
		actor:       actor,
		action:      DisputeAddEvidence,
		evidenceRef: ref,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func NewScheduleSiteVisitCommand(
	orderID kernel.UUID,
	actor kernel.Actor,
	at time.Time,
	inspector string,
) (DisputeActionCommand, error) {
	var atErr error
	if at.IsZero() {
		atErr = errs.NewValueIsRequiredError("scheduledAt")
	}
	if err := errors.Join(orderID.Validate(), actor.Validate(), atErr); err != nil {
		return DisputeActionCommand{}, err
	}
	return DisputeActionCommand{
		orderID:   orderID,
		actor:     actor,
		action:    DisputeScheduleSiteVisit,
		visitAt:   at.UTC(),
		inspector: strings.TrimSpace(inspector),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c DisputeActionCommand) Validate() error {
	return c.guard.Validate(ErrDisputeActionCommandIsNotConstructed)
}

func (c DisputeActionCommand) Action() DisputeAction {
	return c.action
}

// DisputeActionCommandHandler runs dispute workflow steps. None of them touches
// the order status or the escrow.
type DisputeActionCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *services.Lifecycle
}

func NewDisputeActionCommandHandler(uowFactory UoWFactory, lifecycle *services.Lifecycle) DisputeActionCommandHandler {
	return DisputeActionCommandHandler{uowFactory: uowFactory, lifecycle: lifecycle}
}

func (h DisputeActionCommandHandler) Handle(ctx context.Context, cmd DisputeActionCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return runLifecycle(ctx, h.uowFactory, cmd.orderID, func(tx *orderTx) (*dispute.Dispute, []order.Event, error) {
		switch cmd.action {
		case DisputeAddEvidence:
			return eventsOnly(h.lifecycle.AddEvidence(cmd.actor, tx.agg, cmd.evidenceRef))
		case DisputeInvestigate:
			return eventsOnly(h.lifecycle.Investigate(cmd.actor, tx.agg))
		case DisputeEscalate:
			return eventsOnly(h.lifecycle.Escalate(cmd.actor, tx.agg))
		case DisputeScheduleSiteVisit:
			return eventsOnly(h.lifecycle.ScheduleSiteVisit(cmd.actor, tx.agg, cmd.visitAt, cmd.inspector))
		case DisputeCompleteSiteVisit:
			return eventsOnly(h.lifecycle.CompleteSiteVisit(cmd.actor, tx.agg))
		default:
			return nil, nil, cmd.action.Validate()
		}
	})
}
