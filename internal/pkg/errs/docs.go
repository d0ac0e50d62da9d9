// Package errs provides the error types shared by the marketplace engine.
//
// Two families live here:
//   - Validation and lookup errors: ValueIsRequiredError, ValueIsInvalidError,
//     ValueIsOutOfRangeError, ObjectNotFoundError, ObjectAlreadyExistsError.
//   - Business rule violations raised by the order lifecycle: InvalidTransitionError,
//     EscrowStateConflictError, PinMismatchError, PinAttemptsExhaustedError,
//     DisputeBlocksSettlementError, SiteVisitIncompleteError, ActorNotPermittedError.
//
// Each error type follows the same pattern:
//   - A sentinel error variable (e.g., ErrInvalidTransition) for errors.Is checks
//   - A struct type carrying the structured context a client needs to render a message
//   - Constructor functions, with a WithCause variant where a cause is meaningful
//   - Error() for formatting and Unwrap() returning the sentinel
//
// None of these errors are retried by the engine. They are surfaced to the caller
// as-is; the transport layer decides how to present them.
package errs
