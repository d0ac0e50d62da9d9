package order

import (
	"fmt"

	"marketplace/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It is a closed enumeration backed by an explicit transition table;
// any pair not listed there is rejected with errs.InvalidTransitionError.
//
// State transitions:
//
//	Pending              -> Confirmed, Cancelled
//	Confirmed            -> InDelivery, Cancelled, Disputed
//	InDelivery           -> AwaitingConfirmation, Delivered, Disputed
//	AwaitingConfirmation -> Delivered, Completed, Disputed
//	Delivered            -> Completed, Disputed
//	Disputed             -> Completed, Cancelled
//
// Rejected is part of the enumeration for persistence compatibility but has
// no inbound transition.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a placed order awaiting the supplier.
	Pending

	// Confirmed means the supplier accepted the order and escrow was captured.
	Confirmed

	// InDelivery means the goods left the supplier.
	InDelivery

	// AwaitingConfirmation means the supplier reported the drop-off and the
	// buyer's acknowledgment or the PIN is pending.
	AwaitingConfirmation

	// Delivered means the delivery was confirmed but settlement has not happened yet.
	Delivered

	// Completed is terminal: the order was fulfilled and escrow released.
	Completed

	// Rejected is terminal and currently unreachable.
	Rejected

	// Cancelled is terminal: the order was withdrawn and any held escrow refunded.
	Cancelled

	// Disputed means a dispute is open and settlement is frozen.
	Disputed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:              "unknown",
		Pending:              "pending",
		Confirmed:            "confirmed",
		InDelivery:           "in_delivery",
		AwaitingConfirmation: "awaiting_confirmation",
		Delivered:            "delivered",
		Completed:            "completed",
		Rejected:             "rejected",
		Cancelled:            "cancelled",
		Disputed:             "disputed",
	}
}

// getTransitions returns the legal target statuses for every status.
// Statuses absent from the map have no outgoing transitions.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing transitions
	return map[Status][]Status{
		Pending:              {Confirmed, Cancelled},
		Confirmed:            {InDelivery, Cancelled, Disputed},
		InDelivery:           {AwaitingConfirmation, Delivered, Disputed},
		AwaitingConfirmation: {Delivered, Completed, Disputed},
		Delivered:            {Completed, Disputed},
		Disputed:             {Completed, Cancelled},
	}
}

// AllStatuses returns every valid status in declaration order.
func AllStatuses() []Status {
	return []Status{
		Pending, Confirmed, InDelivery, AwaitingConfirmation, Delivered,
		Completed, Rejected, Cancelled, Disputed,
	}
}

// StatusFromString parses the persisted representation produced by String.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks that the Status is one of the declared values other than Unknown.
//
// It is used to ensure Status values coming from the database or the API are
// valid before use.
func (s Status) Validate() error {
	if s <= Unknown || s > Disputed {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the snake_case name of the status, as stored and published.
// It is safe to call on any Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Rejected || s == Cancelled
}

// CanTransitionTo reports whether target is listed in the transition table for s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range getTransitions()[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo validates the move from s to target.
//
// Returns:
//   - (target, nil) when the pair is in the transition table
//   - (Unknown, *errs.InvalidTransitionError) otherwise
//
// Self-transitions are not in the table. Replays are detected by the caller
// before a transition is attempted.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return Unknown, errs.NewInvalidTransitionError("order", s.String(), target.String())
	}
	return target, nil
}
