package services

import (
	"errors"
	"fmt"
	"time"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"
)

// ErrNoActiveDispute is returned by dispute actions when the order has no open dispute.
var ErrNoActiveDispute = errs.NewObjectNotFoundError("dispute", "active")

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Aggregates is the consistent set loaded for one order inside a unit of work.
type Aggregates struct {
	Order  *order.Order
	Escrow *escrow.Escrow
	// Dispute is the open dispute of the order, or nil.
	Dispute *dispute.Dispute
}

func (a Aggregates) validate() error {
	if err := errors.Join(a.Order.Validate(), a.Escrow.Validate()); err != nil {
		return err
	}
	if !a.Escrow.OrderID().IsEqual(a.Order.ID()) {
		return errs.NewValueIsInvalidErrorWithCause("escrow", fmt.Errorf("escrow %s belongs to another order", a.Escrow.ID()))
	}
	if a.Dispute != nil {
		if err := a.Dispute.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a Aggregates) openDisputeID() *kernel.UUID {
	if a.Dispute == nil || !a.Dispute.IsOpen() {
		return nil
	}
	id := a.Dispute.ID()
	return &id
}

// IssueReport describes a dispute being opened.
type IssueReport struct {
	Reason         dispute.Reason
	Description    string
	Evidence       []string
	ForceSiteVisit bool
}

// Resolution describes how an operator closes a dispute.
type Resolution struct {
	Outcome       dispute.Outcome
	Text          string
	Override      bool
	Justification string
}

// Lifecycle is the domain service coordinating the Order, Escrow and Dispute
// aggregates. It computes the next state and the events of an action; it does
// no I/O. The caller applies the result in one unit of work.
//
// Every action follows the same contract:
//   - the actor must be a legitimate party, otherwise ActorNotPermittedError
//   - an action whose target equals the current state is a replay and returns no events
//   - a rejected action leaves all aggregates exactly as they were
//   - an accepted transition emits exactly one event per status change
//
// VerifyPin is the single exception to the third rule: a wrong PIN consumes an
// attempt, and the caller must persist the order even though an error is returned.
//
// Example usage:
//
//	lifecycle := services.NewLifecycle(order.DefaultPolicy(), order.RandomPinGenerator{}, time.Now)
//	events, err := lifecycle.Accept(supplier, services.Aggregates{Order: o, Escrow: e})
//	if err != nil {
//	    return err
//	}
//	// persist o, e and events atomically
type Lifecycle struct {
	policy order.Policy
	pins   order.PinGenerator
	clock  Clock
}

// NewLifecycle creates the service. A nil clock defaults to time.Now in UTC.
func NewLifecycle(policy order.Policy, pins order.PinGenerator, clock Clock) *Lifecycle {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	if pins == nil {
		pins = order.RandomPinGenerator{}
	}
	return &Lifecycle{policy: policy, pins: pins, clock: clock}
}

// Policy returns the thresholds the service applies.
func (l *Lifecycle) Policy() order.Policy {
	return l.policy
}

// Now reads the service clock.
func (l *Lifecycle) Now() time.Time {
	return l.clock()
}

// Place emits the placement event for an order created by its buyer.
func (l *Lifecycle) Place(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	if err := agg.validate(); err != nil {
		return nil, err
	}
	if err := requireBuyer(actor, agg.Order, "place order"); err != nil {
		return nil, err
	}
	return []order.Event{l.annotate(agg, order.EventOrderPlaced, actor)}, nil
}

// Reprice replaces the subtotal and delivery fee of a Pending order.
func (l *Lifecycle) Reprice(actor kernel.Actor, agg Aggregates, subtotal, fee kernel.Money) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireParty(actor, agg.Order, "reprice order"); err != nil {
			return nil, err
		}
		if agg.Order.Subtotal().IsEqual(subtotal) && agg.Order.DeliveryFee().IsEqual(fee) {
			return nil, nil
		}
		if err := agg.Order.Reprice(subtotal, fee, now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventOrderRepriced, actor)}, nil
	})
}

// Accept confirms a Pending order on behalf of its supplier: the delivery method
// is fixed, a PIN is generated for PIN deliveries, and escrow captures the total.
func (l *Lifecycle) Accept(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireSupplier(actor, agg.Order, "accept order"); err != nil {
			return nil, err
		}
		if agg.Order.Status() == order.Confirmed {
			return nil, nil
		}

		delivery, err := l.newDelivery(agg.Order.Total())
		if err != nil {
			return nil, err
		}

		from := agg.Order.Status()
		if err = agg.Order.Confirm(delivery, now); err != nil {
			return nil, err
		}
		if err = agg.Escrow.Capture(agg.Order.Total(), agg.Order.Status(), now); err != nil {
			return nil, err
		}
		return []order.Event{l.transitioned(agg, from, actor)}, nil
	})
}

// Cancel withdraws the order. Held escrow is refunded in the same step; an open
// dispute blocks the refund and therefore the cancellation.
func (l *Lifecycle) Cancel(actor kernel.Actor, agg Aggregates, reason string) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireParty(actor, agg.Order, "cancel order"); err != nil {
			return nil, err
		}
		if agg.Order.Status() == order.Cancelled {
			return nil, nil
		}
		return l.cancel(agg, actor, reason, now)
	})
}

// StartDelivery moves a Confirmed order into delivery.
func (l *Lifecycle) StartDelivery(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireSupplier(actor, agg.Order, "start delivery"); err != nil {
			return nil, err
		}
		if agg.Order.Status() == order.InDelivery {
			return nil, nil
		}
		from := agg.Order.Status()
		if err := agg.Order.StartDelivery(now); err != nil {
			return nil, err
		}
		return []order.Event{l.transitioned(agg, from, actor)}, nil
	})
}

// MarkDelivered records the drop-off. Photo deliveries must carry an evidence reference.
// The order then awaits the buyer's acknowledgment or the PIN.
func (l *Lifecycle) MarkDelivered(actor kernel.Actor, agg Aggregates, evidenceRef string) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireSupplier(actor, agg.Order, "mark delivered"); err != nil {
			return nil, err
		}
		if agg.Order.Status() == order.AwaitingConfirmation {
			return nil, nil
		}
		from := agg.Order.Status()
		if err := agg.Order.AwaitConfirmation(evidenceRef, now); err != nil {
			return nil, err
		}
		return []order.Event{l.transitioned(agg, from, actor)}, nil
	})
}

// VerifyPin checks the PIN relayed by the supplier. A match completes the order
// and releases escrow.
//
// A wrong PIN returns PinMismatchError or, on the last attempt, PinAttemptsExhaustedError
// together with the delivery.pin_locked event. In both cases the order carries the
// consumed attempt and must be persisted.
func (l *Lifecycle) VerifyPin(actor kernel.Actor, agg Aggregates, pin string) ([]order.Event, error) {
	if err := agg.validate(); err != nil {
		return nil, err
	}
	if err := requireSupplier(actor, agg.Order, "verify pin"); err != nil {
		return nil, err
	}
	if agg.Order.Status() == order.Completed && agg.Order.Delivery().IsVerified() {
		return nil, nil
	}

	wasLocked := agg.Order.Delivery().IsLocked()
	if err := agg.Order.VerifyPin(pin, l.clock()); err != nil {
		if errors.Is(err, errs.ErrPinAttemptsExhausted) && !wasLocked {
			return []order.Event{l.annotate(agg, order.EventDeliveryPinLocked, actor)}, err
		}
		return nil, err
	}

	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		var events []order.Event
		if agg.Order.Status() == order.InDelivery {
			from := agg.Order.Status()
			if err := agg.Order.MarkDelivered(now); err != nil {
				return nil, err
			}
			events = append(events, l.transitioned(agg, from, actor))
		}
		completed, err := l.complete(agg, actor, now)
		if err != nil {
			return nil, err
		}
		return append(events, completed...), nil
	})
}

// ConfirmReceipt is the buyer's acknowledgment of a photo delivery.
//
// From AwaitingConfirmation the order completes and escrow releases, or, with a
// settlement window configured, the order rests in Delivered until SettleDelivered.
// From Delivered it completes immediately. PIN deliveries are confirmed by the PIN only.
func (l *Lifecycle) ConfirmReceipt(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireBuyer(actor, agg.Order, "confirm receipt"); err != nil {
			return nil, err
		}

		status := agg.Order.Status()
		windowed := l.policy.SettlementWindow() > 0
		if status == order.Completed || (windowed && status == order.Delivered) {
			return nil, nil
		}

		delivery := agg.Order.Delivery()
		if delivery.Method() == order.MethodPin {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				"delivery method", errors.New("pin deliveries are confirmed by pin verification"))
		}
		if status == order.Disputed {
			if id := agg.openDisputeID(); id != nil {
				return nil, errs.NewDisputeBlocksSettlementError("confirm receipt", id.String())
			}
		}
		if status == order.AwaitingConfirmation && !delivery.HasEvidence() {
			return nil, errs.NewValueIsRequiredError("evidence reference")
		}

		if status == order.AwaitingConfirmation && windowed {
			if err := agg.Order.MarkDelivered(now); err != nil {
				return nil, err
			}
			return []order.Event{l.transitioned(agg, status, actor)}, nil
		}
		return l.complete(agg, actor, now)
	})
}

// SettleDelivered completes a Delivered order once its settlement window elapsed.
// It is driven by the system scheduler.
func (l *Lifecycle) SettleDelivered(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if actor.Role() != kernel.RoleSystem {
			return nil, errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), "settle order")
		}
		if agg.Order.Status() == order.Completed {
			return nil, nil
		}
		if agg.Order.Status() != order.Delivered {
			return nil, errs.NewInvalidTransitionError("order", agg.Order.Status().String(), order.Completed.String())
		}
		deliveredAt := agg.Order.DeliveredAt()
		if deliveredAt == nil || now.Before(deliveredAt.Add(l.policy.SettlementWindow())) {
			return nil, errs.NewValueIsInvalidErrorWithCause("settlement window", errors.New("window has not elapsed"))
		}
		return l.complete(agg, actor, now)
	})
}

// RejectDelivery is the buyer refusing a delivery. It opens a dispute and freezes escrow.
func (l *Lifecycle) RejectDelivery(
	actor kernel.Actor,
	agg Aggregates,
	report IssueReport,
) (*dispute.Dispute, []order.Event, error) {
	var opened *dispute.Dispute
	events, err := l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireBuyer(actor, agg.Order, "reject delivery"); err != nil {
			return nil, err
		}
		status := agg.Order.Status()
		if status == order.Disputed {
			return nil, nil
		}
		if status != order.AwaitingConfirmation && status != order.Delivered {
			return nil, errs.NewInvalidTransitionError("order", status.String(), order.Disputed.String())
		}
		var err error
		opened, err = l.openDispute(agg, actor, report, now)
		if err != nil {
			return nil, err
		}
		return []order.Event{l.transitioned(agg, status, actor)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return opened, events, nil
}

// ReportIssue opens a dispute on behalf of the buyer, the supplier or the system.
// Only the system actor may set IssueReport.ForceSiteVisit.
func (l *Lifecycle) ReportIssue(
	actor kernel.Actor,
	agg Aggregates,
	report IssueReport,
) (*dispute.Dispute, []order.Event, error) {
	var opened *dispute.Dispute
	events, err := l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if actor.Role() != kernel.RoleSystem {
			if err := requireParty(actor, agg.Order, "report issue"); err != nil {
				return nil, err
			}
			if report.ForceSiteVisit {
				return nil, errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), "force site visit")
			}
		}
		status := agg.Order.Status()
		if status == order.Disputed {
			return nil, nil
		}
		if !status.CanTransitionTo(order.Disputed) {
			return nil, errs.NewInvalidTransitionError("order", status.String(), order.Disputed.String())
		}
		var err error
		opened, err = l.openDispute(agg, actor, report, now)
		if err != nil {
			return nil, err
		}
		return []order.Event{l.transitioned(agg, status, actor)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return opened, events, nil
}

// AddEvidence attaches a reference to the open dispute. Either party may add evidence.
func (l *Lifecycle) AddEvidence(actor kernel.Actor, agg Aggregates, ref string) ([]order.Event, error) {
	return l.disputeAction(agg, func(d *dispute.Dispute, now time.Time) ([]order.Event, error) {
		if err := requireParty(actor, agg.Order, "add evidence"); err != nil {
			return nil, err
		}
		if err := d.AddEvidence(ref, now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventDisputeEvidenceAdded, actor)}, nil
	})
}

// Investigate marks the open dispute as under investigation.
func (l *Lifecycle) Investigate(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.disputeAction(agg, func(d *dispute.Dispute, now time.Time) ([]order.Event, error) {
		if err := requireOperator(actor, "investigate dispute"); err != nil {
			return nil, err
		}
		if d.Status() == dispute.StatusInvestigating {
			return nil, nil
		}
		if err := d.Investigate(now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventDisputeInvestigating, actor)}, nil
	})
}

// Escalate escalates an investigated dispute.
func (l *Lifecycle) Escalate(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.disputeAction(agg, func(d *dispute.Dispute, now time.Time) ([]order.Event, error) {
		if err := requireOperator(actor, "escalate dispute"); err != nil {
			return nil, err
		}
		if d.Status() == dispute.StatusEscalated {
			return nil, nil
		}
		if err := d.Escalate(now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventDisputeEscalated, actor)}, nil
	})
}

// ScheduleSiteVisit books the inspection and marks it required.
func (l *Lifecycle) ScheduleSiteVisit(
	actor kernel.Actor,
	agg Aggregates,
	at time.Time,
	inspector string,
) ([]order.Event, error) {
	return l.disputeAction(agg, func(d *dispute.Dispute, now time.Time) ([]order.Event, error) {
		if err := requireOperator(actor, "schedule site visit"); err != nil {
			return nil, err
		}
		if err := d.ScheduleSiteVisit(at, inspector, now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventDisputeSiteVisitScheduled, actor)}, nil
	})
}

// CompleteSiteVisit records that the inspection took place.
func (l *Lifecycle) CompleteSiteVisit(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.disputeAction(agg, func(d *dispute.Dispute, now time.Time) ([]order.Event, error) {
		if err := requireOperator(actor, "complete site visit"); err != nil {
			return nil, err
		}
		if d.SiteVisit().Completed {
			return nil, nil
		}
		if err := d.CompleteSiteVisit(now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventDisputeSiteVisitCompleted, actor)}, nil
	})
}

// ResolveDispute closes the open dispute and settles the order:
//   - OutcomeRelease: disputed -> completed, escrow released
//   - OutcomeRefund:  disputed -> cancelled, escrow refunded
//
// With Resolution.Override set the outstanding site-visit check is bypassed;
// the caller is responsible for the audit trail.
func (l *Lifecycle) ResolveDispute(actor kernel.Actor, agg Aggregates, res Resolution) ([]order.Event, error) {
	return l.disputeAction(agg, func(d *dispute.Dispute, now time.Time) ([]order.Event, error) {
		if err := requireOperator(actor, "resolve dispute"); err != nil {
			return nil, err
		}

		var err error
		if res.Override {
			err = d.ForceResolve(res.Outcome, res.Text, res.Justification, actor.ID(), now)
		} else {
			err = d.Resolve(res.Outcome, res.Text, actor.ID(), now)
		}
		if err != nil {
			return nil, err
		}

		if res.Outcome == dispute.OutcomeRefund {
			return l.cancel(agg, actor, res.Text, now)
		}
		return l.complete(agg, actor, now)
	})
}

// UnlockPin clears a PIN lockout. It is an administrative override.
func (l *Lifecycle) UnlockPin(actor kernel.Actor, agg Aggregates) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if err := requireOperator(actor, "unlock pin"); err != nil {
			return nil, err
		}
		if err := agg.Order.UnlockPin(now); err != nil {
			return nil, err
		}
		return []order.Event{l.annotate(agg, order.EventDeliveryPinUnlocked, actor)}, nil
	})
}

func (l *Lifecycle) newDelivery(total kernel.Money) (order.Delivery, error) {
	if l.policy.MethodFor(total) == order.MethodPhoto {
		return order.NewPhotoDelivery(), nil
	}
	pin, err := l.pins.Generate()
	if err != nil {
		return order.Delivery{}, err
	}
	return order.NewPinDelivery(pin, l.policy.MaxPinAttempts())
}

func (l *Lifecycle) complete(agg Aggregates, actor kernel.Actor, now time.Time) ([]order.Event, error) {
	from := agg.Order.Status()
	if err := agg.Order.Complete(now); err != nil {
		return nil, err
	}
	if err := agg.Escrow.Release(agg.Order.Status(), agg.openDisputeID(), now); err != nil {
		return nil, err
	}
	return []order.Event{l.transitioned(agg, from, actor)}, nil
}

func (l *Lifecycle) cancel(agg Aggregates, actor kernel.Actor, reason string, now time.Time) ([]order.Event, error) {
	from := agg.Order.Status()
	if err := agg.Order.Cancel(reason, now); err != nil {
		return nil, err
	}
	if agg.Escrow.State() == escrow.Held {
		if err := agg.Escrow.Refund(agg.Order.Status(), agg.openDisputeID(), reason, now); err != nil {
			return nil, err
		}
	}
	return []order.Event{l.transitioned(agg, from, actor)}, nil
}

func (l *Lifecycle) openDispute(
	agg Aggregates,
	actor kernel.Actor,
	report IssueReport,
	now time.Time,
) (*dispute.Dispute, error) {
	d, err := dispute.NewDispute(
		kernel.NewUUID(),
		agg.Order.ID(),
		report.Reason,
		report.Description,
		report.Evidence,
		actor,
		l.policy.MinIssueDescriptionLength(),
		l.policy.RequiresSiteVisit(agg.Order.Total()),
		report.ForceSiteVisit,
		now,
	)
	if err != nil {
		return nil, err
	}
	if err = agg.Order.Dispute(now); err != nil {
		return nil, err
	}
	return d, nil
}

// disputeAction runs fn against the open dispute of the order.
func (l *Lifecycle) disputeAction(
	agg Aggregates,
	fn func(d *dispute.Dispute, now time.Time) ([]order.Event, error),
) ([]order.Event, error) {
	return l.atomically(agg, func(now time.Time) ([]order.Event, error) {
		if agg.Dispute == nil || !agg.Dispute.IsOpen() {
			return nil, ErrNoActiveDispute
		}
		return fn(agg.Dispute, now)
	})
}

// atomically validates agg, runs fn, and restores every aggregate to its
// previous state if fn fails.
func (l *Lifecycle) atomically(agg Aggregates, fn func(now time.Time) ([]order.Event, error)) ([]order.Event, error) {
	if err := agg.validate(); err != nil {
		return nil, err
	}

	orderState := agg.Order.Snapshot()
	escrowState := agg.Escrow.Snapshot()
	var disputeState *dispute.Snapshot
	if agg.Dispute != nil {
		s := agg.Dispute.Snapshot()
		disputeState = &s
	}

	events, err := fn(l.clock())
	if err != nil {
		*agg.Order = *order.RestoreOrder(orderState)
		*agg.Escrow = *escrow.RestoreEscrow(escrowState)
		if disputeState != nil {
			*agg.Dispute = *dispute.RestoreDispute(*disputeState)
		}
		return nil, err
	}
	return events, nil
}

func (l *Lifecycle) transitioned(agg Aggregates, from order.Status, actor kernel.Actor) order.Event {
	return order.NewTransitionEvent(
		agg.Order.ID(), from, agg.Order.Status(), actor, agg.Escrow.State().String(), agg.Order.UpdatedAt())
}

func (l *Lifecycle) annotate(agg Aggregates, eventType order.EventType, actor kernel.Actor) order.Event {
	return order.NewAnnotationEvent(
		agg.Order.ID(), eventType, agg.Order.Status(), actor, agg.Escrow.State().String(), l.clock())
}

func requireBuyer(actor kernel.Actor, o *order.Order, action string) error {
	if !o.IsBuyer(actor) {
		return errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), action)
	}
	return nil
}

func requireSupplier(actor kernel.Actor, o *order.Order, action string) error {
	if !o.IsSupplier(actor) {
		return errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), action)
	}
	return nil
}

func requireParty(actor kernel.Actor, o *order.Order, action string) error {
	if !o.IsBuyer(actor) && !o.IsSupplier(actor) {
		return errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), action)
	}
	return nil
}

func requireOperator(actor kernel.Actor, action string) error {
	if actor.Role() != kernel.RoleOperator {
		return errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), action)
	}
	return nil
}
