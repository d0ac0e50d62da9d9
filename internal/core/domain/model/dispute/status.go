package dispute

import (
	"fmt"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// Status is the dispute workflow state.
type Status int

const (
	// StatusUnknown is the invalid zero value.
	StatusUnknown Status = iota
	// StatusOpened is the initial state; settlement of the order is frozen.
	StatusOpened
	// StatusInvestigating means an operator picked the dispute up.
	StatusInvestigating
	// StatusEscalated means the investigation was escalated.
	StatusEscalated
	// StatusResolved is terminal.
	StatusResolved
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown:       "unknown",
		StatusOpened:        "opened",
		StatusInvestigating: "investigating",
		StatusEscalated:     "escalated",
		StatusResolved:      "resolved",
	}
}

func getTransitions() map[Status][]Status {
	//nolint:exhaustive // resolved is terminal
	return map[Status][]Status{
		StatusOpened:        {StatusInvestigating, StatusResolved},
		StatusInvestigating: {StatusEscalated, StatusResolved},
		StatusEscalated:     {StatusResolved},
	}
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsOpen reports whether the dispute still freezes settlement.
func (s Status) IsOpen() bool {
	return s == StatusOpened || s == StatusInvestigating || s == StatusEscalated
}

func (s Status) transitionTo(target Status) (Status, error) {
	for _, allowed := range getTransitions()[s] {
		if allowed == target {
			return target, nil
		}
	}
	return StatusUnknown, errs.NewInvalidTransitionError("dispute", s.String(), target.String())
}

// StatusFromString parses the persisted representation.
func StatusFromString(str string) (Status, error) {
	for s, name := range getStatusStrings() {
		if s != StatusUnknown && name == str {
			return s, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("dispute status", fmt.Errorf("%q is not a valid status", str))
}

// Reason is the category chosen by the party opening a dispute.
type Reason string

const (
	ReasonDamagedGoods Reason = "damaged_goods"
	ReasonWrongItems   Reason = "wrong_items"
	ReasonMissingItems Reason = "missing_items"
	ReasonNotDelivered Reason = "not_delivered"
	ReasonQualityIssue Reason = "quality_issue"
	ReasonOther        Reason = "other"
)

// Validate rejects categories outside the closed set.
func (r Reason) Validate() error {
	switch r {
	case ReasonDamagedGoods, ReasonWrongItems, ReasonMissingItems, ReasonNotDelivered, ReasonQualityIssue, ReasonOther:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("reason", fmt.Errorf("%q is not a valid reason", string(r)))
	}
}

// Outcome is the settlement direction chosen when resolving.
type Outcome int

const (
	// OutcomeUnknown is the invalid zero value and the outcome of unresolved disputes.
	OutcomeUnknown Outcome = iota
	// OutcomeRelease completes the order and pays the supplier.
	OutcomeRelease
	// OutcomeRefund cancels the order and refunds the buyer.
	OutcomeRefund
)

func getOutcomeStrings() map[Outcome]string {
	return map[Outcome]string{
		OutcomeUnknown: "",
		OutcomeRelease: "release",
		OutcomeRefund:  "refund",
	}
}

func (o Outcome) String() string {
	return getOutcomeStrings()[o]
}

// Validate rejects OutcomeUnknown.
func (o Outcome) Validate() error {
	if o != OutcomeRelease && o != OutcomeRefund {
		return errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%d is not a valid outcome", o))
	}
	return nil
}

// OutcomeFromString parses "release", "refund", or "" (unresolved).
func OutcomeFromString(str string) (Outcome, error) {
	for o, name := range getOutcomeStrings() {
		if name == str {
			return o, nil
		}
	}
	return OutcomeUnknown, errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not a valid outcome", str))
}

// validateOpener accepts the roles that may open a dispute.
func validateOpener(role kernel.Role) error {
	if role != kernel.RoleBuyer && role != kernel.RoleSupplier && role != kernel.RoleSystem {
		return errs.NewValueIsInvalidErrorWithCause("openedBy", fmt.Errorf("%s cannot open a dispute", role))
	}
	return nil
}
