package escrow

import (
	"fmt"

	"marketplace/internal/pkg/errs"
)

// State is the escrow ledger state.
type State int

const (
	// Unknown represents an invalid or undefined state.
	Unknown State = iota
	// Pending means the order was placed but funds were not captured yet.
	Pending
	// Held means funds were captured when the supplier accepted the order.
	Held
	// Released is terminal: funds were paid out to the supplier.
	Released
	// Refunded is terminal: funds were returned to the buyer.
	Refunded
)

func getStateStrings() map[State]string {
	return map[State]string{
		Unknown:  "unknown",
		Pending:  "pending",
		Held:     "held",
		Released: "released",
		Refunded: "refunded",
	}
}

// String returns the lowercase state name, as stored and published.
func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// Validate rejects Unknown and out-of-range values.
func (s State) Validate() error {
	if s <= Unknown || s > Refunded {
		return errs.NewValueIsInvalidErrorWithCause("escrow state", fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// IsTerminal reports whether funds have left escrow.
func (s State) IsTerminal() bool {
	return s == Released || s == Refunded
}

// StateFromString parses the persisted representation.
func StateFromString(str string) (State, error) {
	for state, name := range getStateStrings() {
		if state != Unknown && name == str {
			return state, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("escrow state", fmt.Errorf("%q is not a valid state", str))
}
