// Package escrow provides the Escrow aggregate: the ledger entry holding a
// buyer's funds for exactly one order.
//
// States move pending -> held -> released | refunded. Released and refunded are
// terminal and mutually exclusive, so a payout or refund happens at most once.
// Every guard takes the current order status and whether a dispute is open, which
// keeps the escrow package free of repository or dispute dependencies.
package escrow
