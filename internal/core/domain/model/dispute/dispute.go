package dispute

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// ErrDisputeIsNotConstructed is returned when a Dispute was not created through NewDispute or RestoreDispute.
var ErrDisputeIsNotConstructed = errors.New("Dispute must be created via NewDispute constructor")

// Dispute records a disagreement about one order.
//
// Invariants:
//   - Description has at least the configured minimum length
//   - At most one open dispute exists per order (enforced by storage)
//   - Evidence and site-visit changes are accepted only while the dispute is open
//   - Once resolved, outcome, resolution and resolver are fixed
type Dispute struct {
	id          kernel.UUID
	orderID     kernel.UUID
	reason      Reason
	description string
	evidence    []string
	openedBy    kernel.Role
	openedByID  kernel.UUID
	openedAt    time.Time
	status      Status
	siteVisit   SiteVisit
	updatedAt   time.Time

	outcome               Outcome
	resolution            string
	resolvedAt            *time.Time
	resolvedBy            *kernel.UUID
	overrideJustification string

	isConstructed bool
}

// Snapshot is the persisted form of a Dispute.
type Snapshot struct {
	ID                    kernel.UUID
	OrderID               kernel.UUID
	Reason                Reason
	Description           string
	Evidence              []string
	OpenedBy              kernel.Role
	OpenedByID            kernel.UUID
	OpenedAt              time.Time
	Status                Status
	SiteVisit             SiteVisit
	UpdatedAt             time.Time
	Outcome               Outcome
	Resolution            string
	ResolvedAt            *time.Time
	ResolvedBy            *kernel.UUID
	OverrideJustification string
}

// NewDispute opens a dispute.
//
// Parameters:
//   - opener: the buyer, the supplier or the system actor
//   - minDescriptionLength: minimum number of characters in description, from order.Policy
//   - siteVisitRequired: whether the order total reached the site-visit threshold
//   - forceSiteVisit: operator flag requiring a visit regardless of the total
func NewDispute(
	id kernel.UUID,
	orderID kernel.UUID,
	reason Reason,
	description string,
	evidence []string,
	opener kernel.Actor,
	minDescriptionLength int,
	siteVisitRequired bool,
	forceSiteVisit bool,
	now time.Time,
) (*Dispute, error) {
	description = strings.TrimSpace(description)

	var errList []error
	errList = append(errList, id.Validate(), orderID.Validate(), reason.Validate(), opener.Validate())
	if opener.Validate() == nil {
		errList = append(errList, validateOpener(opener.Role()))
	}
	if n := utf8.RuneCountInString(description); n < minDescriptionLength {
		errList = append(errList, errs.NewValueIsOutOfRangeError("description length", n, minDescriptionLength, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	d := &Dispute{
		id:          id,
		orderID:     orderID,
		reason:      reason,
		description: description,
		openedBy:    opener.Role(),
		openedByID:  opener.ID(),
		openedAt:    now,
		status:      StatusOpened,
		updatedAt:   now,
		siteVisit: SiteVisit{
			Required: siteVisitRequired || forceSiteVisit,
			Forced:   forceSiteVisit,
		},
		isConstructed: true,
	}
	for _, ref := range evidence {
		if ref = strings.TrimSpace(ref); ref != "" {
			d.evidence = append(d.evidence, ref)
		}
	}

	return d, nil
}

// RestoreDispute rehydrates a Dispute from storage.
func RestoreDispute(s Snapshot) *Dispute {
	return &Dispute{
		id:                    s.ID,
		orderID:               s.OrderID,
		reason:                s.Reason,
		description:           s.Description,
		evidence:              append([]string(nil), s.Evidence...),
		openedBy:              s.OpenedBy,
		openedByID:            s.OpenedByID,
		openedAt:              s.OpenedAt,
		status:                s.Status,
		siteVisit:             s.SiteVisit,
		updatedAt:             s.UpdatedAt,
		outcome:               s.Outcome,
		resolution:            s.Resolution,
		resolvedAt:            s.ResolvedAt,
		resolvedBy:            s.ResolvedBy,
		overrideJustification: s.OverrideJustification,
		isConstructed:         true,
	}
}

// Snapshot returns a copy of the aggregate state.
func (d *Dispute) Snapshot() Snapshot {
	return Snapshot{
		ID:                    d.id,
		OrderID:               d.orderID,
		Reason:                d.reason,
		Description:           d.description,
		Evidence:              append([]string(nil), d.evidence...),
		OpenedBy:              d.openedBy,
		OpenedByID:            d.openedByID,
		OpenedAt:              d.openedAt,
		Status:                d.status,
		SiteVisit:             d.siteVisit,
		UpdatedAt:             d.updatedAt,
		Outcome:               d.outcome,
		Resolution:            d.resolution,
		ResolvedAt:            d.resolvedAt,
		ResolvedBy:            d.resolvedBy,
		OverrideJustification: d.overrideJustification,
	}
}

// Validate ensures the Dispute was created through NewDispute or RestoreDispute.
func (d *Dispute) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDisputeIsNotConstructed
	}
	return nil
}

func (d *Dispute) ID() kernel.UUID {
	return d.id
}

func (d *Dispute) OrderID() kernel.UUID {
	return d.orderID
}

func (d *Dispute) Reason() Reason {
	return d.reason
}

func (d *Dispute) Description() string {
	return d.description
}

// Evidence returns a copy of the evidence references.
func (d *Dispute) Evidence() []string {
	return append([]string(nil), d.evidence...)
}

func (d *Dispute) OpenedBy() kernel.Role {
	return d.openedBy
}

func (d *Dispute) Status() Status {
	return d.status
}

// IsOpen reports whether the dispute still freezes settlement.
func (d *Dispute) IsOpen() bool {
	return d.status.IsOpen()
}

func (d *Dispute) SiteVisit() SiteVisit {
	return d.siteVisit
}

func (d *Dispute) Outcome() Outcome {
	return d.outcome
}

func (d *Dispute) Resolution() string {
	return d.resolution
}

func (d *Dispute) OverrideJustification() string {
	return d.overrideJustification
}

// Investigate moves Opened -> Investigating.
func (d *Dispute) Investigate(now time.Time) error {
	return d.transition(StatusInvestigating, now)
}

// Escalate moves Investigating -> Escalated.
func (d *Dispute) Escalate(now time.Time) error {
	return d.transition(StatusEscalated, now)
}

// AddEvidence appends an evidence reference while the dispute is open.
func (d *Dispute) AddEvidence(ref string, now time.Time) error {
	if err := d.requireOpen("add evidence"); err != nil {
		return err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errs.NewValueIsRequiredError("evidence reference")
	}
	d.evidence = append(d.evidence, ref)
	d.updatedAt = now
	return nil
}

// ScheduleSiteVisit records the inspection slot and inspector. Scheduling marks the visit required.
func (d *Dispute) ScheduleSiteVisit(at time.Time, inspector string, now time.Time) error {
	if err := d.requireOpen("schedule site visit"); err != nil {
		return err
	}
	inspector = strings.TrimSpace(inspector)

	var errList []error
	if at.IsZero() {
		errList = append(errList, errs.NewValueIsRequiredError("scheduled at"))
	}
	if inspector == "" {
		errList = append(errList, errs.NewValueIsRequiredError("inspector"))
	}
	if d.siteVisit.Completed {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("site visit", errors.New("already completed")))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	d.siteVisit.Required = true
	d.siteVisit.ScheduledAt = &at
	d.siteVisit.Inspector = inspector
	d.updatedAt = now
	return nil
}

// CompleteSiteVisit marks the inspection done. It needs a recorded schedule and inspector.
func (d *Dispute) CompleteSiteVisit(now time.Time) error {
	if err := d.requireOpen("complete site visit"); err != nil {
		return err
	}
	if !d.siteVisit.IsScheduled() {
		return errs.NewSiteVisitIncompleteError(d.id.String(), false)
	}
	if d.siteVisit.Completed {
		return errs.NewValueIsInvalidErrorWithCause("site visit", errors.New("already completed"))
	}

	d.siteVisit.Completed = true
	d.siteVisit.CompletedAt = &now
	d.updatedAt = now
	return nil
}

// Resolve closes the dispute with an outcome. A required visit must be completed first.
func (d *Dispute) Resolve(outcome Outcome, resolution string, resolvedBy kernel.UUID, now time.Time) error {
	if err := d.validateResolve(outcome, resolution, resolvedBy); err != nil {
		return err
	}
	if d.siteVisit.IsOutstanding() {
		return errs.NewSiteVisitIncompleteError(d.id.String(), d.siteVisit.IsScheduled())
	}
	return d.resolve(outcome, resolution, resolvedBy, "", now)
}

// ForceResolve closes the dispute even if a required visit is outstanding.
// It is reserved for the administrative override surface and needs a justification.
func (d *Dispute) ForceResolve(
	outcome Outcome,
	resolution string,
	justification string,
	resolvedBy kernel.UUID,
	now time.Time,
) error {
	justification = strings.TrimSpace(justification)
	if err := errors.Join(
		d.validateResolve(outcome, resolution, resolvedBy),
		requireText("justification", justification),
	); err != nil {
		return err
	}
	return d.resolve(outcome, resolution, resolvedBy, justification, now)
}

func (d *Dispute) validateResolve(outcome Outcome, resolution string, resolvedBy kernel.UUID) error {
	if err := d.requireOpen("resolve"); err != nil {
		return err
	}
	return errors.Join(
		outcome.Validate(),
		requireText("resolution", strings.TrimSpace(resolution)),
		resolvedBy.Validate(),
	)
}

func (d *Dispute) resolve(outcome Outcome, resolution string, resolvedBy kernel.UUID, justification string, now time.Time) error {
	if err := d.transition(StatusResolved, now); err != nil {
		return err
	}
	d.outcome = outcome
	d.resolution = strings.TrimSpace(resolution)
	d.resolvedAt = &now
	d.resolvedBy = &resolvedBy
	d.overrideJustification = justification
	return nil
}

func (d *Dispute) transition(target Status, now time.Time) error {
	next, err := d.status.transitionTo(target)
	if err != nil {
		return err
	}
	d.status = next
	d.updatedAt = now
	return nil
}

func (d *Dispute) requireOpen(action string) error {
	if !d.IsOpen() {
		return errs.NewInvalidTransitionError("dispute", d.status.String(), fmt.Sprintf("%s (requires open dispute)", action))
	}
	return nil
}

func requireText(param, value string) error {
	if value == "" {
		return errs.NewValueIsRequiredError(param)
	}
	return nil
}
