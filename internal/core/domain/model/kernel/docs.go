// Package kernel provides the shared domain primitives of the marketplace engine.
//
// The package includes:
//   - UUID: identifier value object wrapping github.com/google/uuid
//   - Money: exact non-negative amount with two fraction digits (shopspring/decimal)
//   - Actor and Role: the principal behind a command, as supplied by the auth collaborator
//
// All values are immutable and their zero values fail Validate, so a value that
// bypassed its constructor is caught at the aggregate boundary.
package kernel
