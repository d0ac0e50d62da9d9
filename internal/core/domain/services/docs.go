// Package services provides domain services that orchestrate business operations
// across multiple aggregates of the marketplace. It implements workflows that
// don't naturally belong to a single aggregate root.
//
// The package includes:
//   - Lifecycle: coordinates Order, Escrow and Dispute for every lifecycle action,
//     enforcing actor permissions, idempotent replays and all-or-nothing updates
//
// Domain services are pure: they mutate the aggregates handed to them and return
// the events to publish. Persistence is left to the command handlers.
package services
