// Package order provides the Order aggregate of the marketplace engine.
//
// The package includes:
//   - Order: the aggregate root holding identity, parties, amounts and lifecycle timestamps
//   - Status: the closed status enumeration and its transition table
//   - Delivery: the embedded confirmation entity (PIN or photo)
//   - Policy: the configurable thresholds (PIN method, site visit, attempts, settlement window)
//   - Event: the notification emitted for every accepted action
//
// Key business rules:
//   - Orders total 120.00 or more are confirmed by PIN, smaller orders by photo plus buyer acknowledgment
//   - A PIN delivery locks after the configured number of wrong attempts
//   - The total is immutable once the order leaves Pending
//   - Any status pair outside the transition table is rejected and leaves the order unchanged
//
// Cross-aggregate rules (escrow capture, release and refund, dispute freeze) live in
// the Lifecycle domain service.
package order
