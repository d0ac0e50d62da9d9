package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition       = errors.New("invalid transition")
	ErrEscrowStateConflict     = errors.New("escrow state conflict")
	ErrPinMismatch             = errors.New("pin mismatch")
	ErrPinAttemptsExhausted    = errors.New("pin attempts exhausted")
	ErrDisputeBlocksSettlement = errors.New("dispute blocks settlement")
	ErrSiteVisitIncomplete     = errors.New("site visit incomplete")
	ErrActorNotPermitted       = errors.New("actor not permitted")
)

// InvalidTransitionError is returned when a requested status change is not in
// the transition table of the entity. The entity is left unchanged.
type InvalidTransitionError struct {
	Entity    string
	Current   string
	Requested string
}

func NewInvalidTransitionError(entity, current, requested string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, Current: current, Requested: requested}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrInvalidTransition, e.Entity, e.Current, e.Requested)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// EscrowStateConflictError is returned when capture, release or refund is
// attempted outside its guard condition.
type EscrowStateConflictError struct {
	Operation    string
	CurrentState string
	OrderStatus  string
	Required     string
}

func NewEscrowStateConflictError(operation, currentState, orderStatus, required string) *EscrowStateConflictError {
	return &EscrowStateConflictError{
		Operation:    operation,
		CurrentState: currentState,
		OrderStatus:  orderStatus,
		Required:     required,
	}
}

func (e *EscrowStateConflictError) Error() string {
	return fmt.Sprintf("%s: cannot %s %s escrow of %s order, requires %s",
		ErrEscrowStateConflict, e.Operation, e.CurrentState, e.OrderStatus, e.Required)
}

func (e *EscrowStateConflictError) Unwrap() error {
	return ErrEscrowStateConflict
}

// PinMismatchError is returned for a wrong PIN while attempts remain.
type PinMismatchError struct {
	AttemptsRemaining int
}

func NewPinMismatchError(attemptsRemaining int) *PinMismatchError {
	return &PinMismatchError{AttemptsRemaining: attemptsRemaining}
}

func (e *PinMismatchError) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", ErrPinMismatch, e.AttemptsRemaining)
}

func (e *PinMismatchError) Unwrap() error {
	return ErrPinMismatch
}

// PinAttemptsExhaustedError is returned once the delivery is locked.
// Only an administrative unlock clears it.
type PinAttemptsExhaustedError struct {
	MaxAttempts int
}

func NewPinAttemptsExhaustedError(maxAttempts int) *PinAttemptsExhaustedError {
	return &PinAttemptsExhaustedError{MaxAttempts: maxAttempts}
}

func (e *PinAttemptsExhaustedError) Error() string {
	return fmt.Sprintf("%s: delivery locked after %d attempts", ErrPinAttemptsExhausted, e.MaxAttempts)
}

func (e *PinAttemptsExhaustedError) Unwrap() error {
	return ErrPinAttemptsExhausted
}

// DisputeBlocksSettlementError is returned when release or refund is attempted
// while a dispute on the order is open.
type DisputeBlocksSettlementError struct {
	Operation string
	DisputeID string
}

func NewDisputeBlocksSettlementError(operation, disputeID string) *DisputeBlocksSettlementError {
	return &DisputeBlocksSettlementError{Operation: operation, DisputeID: disputeID}
}

func (e *DisputeBlocksSettlementError) Error() string {
	return fmt.Sprintf("%s: cannot %s while dispute %s is open", ErrDisputeBlocksSettlement, e.Operation, e.DisputeID)
}

func (e *DisputeBlocksSettlementError) Unwrap() error {
	return ErrDisputeBlocksSettlement
}

// SiteVisitIncompleteError is returned when resolving a dispute whose required
// site visit has not been completed.
type SiteVisitIncompleteError struct {
	DisputeID string
	Scheduled bool
}

func NewSiteVisitIncompleteError(disputeID string, scheduled bool) *SiteVisitIncompleteError {
	return &SiteVisitIncompleteError{DisputeID: disputeID, Scheduled: scheduled}
}

func (e *SiteVisitIncompleteError) Error() string {
	state := "not scheduled"
	if e.Scheduled {
		state = "scheduled but not completed"
	}
	return fmt.Sprintf("%s: dispute %s site visit is %s", ErrSiteVisitIncomplete, e.DisputeID, state)
}

func (e *SiteVisitIncompleteError) Unwrap() error {
	return ErrSiteVisitIncomplete
}

// ActorNotPermittedError is returned when the actor is not a legitimate party
// for the action on this order.
type ActorNotPermittedError struct {
	ActorID string
	Role    string
	Action  string
}

func NewActorNotPermittedError(actorID, role, action string) *ActorNotPermittedError {
	return &ActorNotPermittedError{ActorID: actorID, Role: role, Action: action}
}

func (e *ActorNotPermittedError) Error() string {
	return fmt.Sprintf("%s: %s %s may not %s", ErrActorNotPermitted, e.Role, e.ActorID, e.Action)
}

func (e *ActorNotPermittedError) Unwrap() error {
	return ErrActorNotPermitted
}
