package escrow

import (
	"errors"
	"strings"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"
)

// ErrEscrowIsNotConstructed is returned when an Escrow was not created through NewEscrow or RestoreEscrow.
var ErrEscrowIsNotConstructed = errors.New("Escrow must be created via NewEscrow constructor")

// Escrow holds the buyer's funds for one order.
//
// Guard conditions:
//   - Capture: state Pending, order Confirmed, positive amount
//   - Release: state Held, no open dispute, order Completed
//   - Refund:  state Held, no open dispute, order Cancelled or Rejected, reason given
//
// A violated guard returns EscrowStateConflictError (or DisputeBlocksSettlementError)
// and mutates nothing. The checks run in the order listed, so releasing a refunded
// escrow reports the state conflict even when a dispute is open.
type Escrow struct {
	id           kernel.UUID
	orderID      kernel.UUID
	state        State
	amount       kernel.Money
	refundReason string
	createdAt    time.Time
	updatedAt    time.Time
	heldAt       *time.Time
	releasedAt   *time.Time
	refundedAt   *time.Time

	isConstructed bool
}

// Snapshot is the persisted form of an Escrow.
type Snapshot struct {
	ID           kernel.UUID
	OrderID      kernel.UUID
	State        State
	Amount       kernel.Money
	RefundReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	HeldAt       *time.Time
	ReleasedAt   *time.Time
	RefundedAt   *time.Time
}

// NewEscrow opens a Pending escrow for an order that was just placed.
func NewEscrow(id kernel.UUID, orderID kernel.UUID, now time.Time) (*Escrow, error) {
	if err := errors.Join(id.Validate(), orderID.Validate()); err != nil {
		return nil, err
	}

	return &Escrow{
		id:            id,
		orderID:       orderID,
		state:         Pending,
		amount:        kernel.ZeroMoney(),
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

// RestoreEscrow rehydrates an Escrow from storage.
func RestoreEscrow(s Snapshot) *Escrow {
	return &Escrow{
		id:            s.ID,
		orderID:       s.OrderID,
		state:         s.State,
		amount:        s.Amount,
		refundReason:  s.RefundReason,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		heldAt:        s.HeldAt,
		releasedAt:    s.ReleasedAt,
		refundedAt:    s.RefundedAt,
		isConstructed: true,
	}
}

// Snapshot returns a copy of the aggregate state.
func (e *Escrow) Snapshot() Snapshot {
	return Snapshot{
		ID:           e.id,
		OrderID:      e.orderID,
		State:        e.state,
		Amount:       e.amount,
		RefundReason: e.refundReason,
		CreatedAt:    e.createdAt,
		UpdatedAt:    e.updatedAt,
		HeldAt:       e.heldAt,
		ReleasedAt:   e.releasedAt,
		RefundedAt:   e.refundedAt,
	}
}

// Validate ensures the Escrow was created through NewEscrow or RestoreEscrow.
func (e *Escrow) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEscrowIsNotConstructed
	}
	return nil
}

func (e *Escrow) ID() kernel.UUID {
	return e.id
}

func (e *Escrow) OrderID() kernel.UUID {
	return e.orderID
}

func (e *Escrow) State() State {
	return e.state
}

// Amount is zero until capture and fixed afterwards.
func (e *Escrow) Amount() kernel.Money {
	return e.amount
}

func (e *Escrow) RefundReason() string {
	return e.refundReason
}

func (e *Escrow) HeldAt() *time.Time {
	return e.heldAt
}

func (e *Escrow) ReleasedAt() *time.Time {
	return e.releasedAt
}

func (e *Escrow) RefundedAt() *time.Time {
	return e.refundedAt
}

// Capture moves Pending -> Held with the order total.
func (e *Escrow) Capture(amount kernel.Money, orderStatus order.Status, now time.Time) error {
	if e.state != Pending || orderStatus != order.Confirmed {
		return errs.NewEscrowStateConflictError("capture", e.state.String(), orderStatus.String(),
			"pending escrow of a confirmed order")
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return errs.NewValueIsOutOfRangeError("amount", amount.String(), "0.01", "unbounded")
	}

	e.state = Held
	e.amount = amount
	e.heldAt = &now
	e.updatedAt = now
	return nil
}

// Release pays the held funds out to the supplier. It is the only payout path.
//
// openDisputeID is the id of the order's open dispute, or nil when there is none.
func (e *Escrow) Release(orderStatus order.Status, openDisputeID *kernel.UUID, now time.Time) error {
	if e.state != Held {
		return errs.NewEscrowStateConflictError("release", e.state.String(), orderStatus.String(), "held")
	}
	if openDisputeID != nil {
		return errs.NewDisputeBlocksSettlementError("release", openDisputeID.String())
	}
	if orderStatus != order.Completed {
		return errs.NewEscrowStateConflictError("release", e.state.String(), orderStatus.String(), "completed order")
	}

	e.state = Released
	e.releasedAt = &now
	e.updatedAt = now
	return nil
}

// Refund returns the held funds to the buyer.
func (e *Escrow) Refund(orderStatus order.Status, openDisputeID *kernel.UUID, reason string, now time.Time) error {
	if e.state != Held {
		return errs.NewEscrowStateConflictError("refund", e.state.String(), orderStatus.String(), "held")
	}
	if openDisputeID != nil {
		return errs.NewDisputeBlocksSettlementError("refund", openDisputeID.String())
	}
	if orderStatus != order.Cancelled && orderStatus != order.Rejected {
		return errs.NewEscrowStateConflictError("refund", e.state.String(), orderStatus.String(),
			"cancelled or rejected order")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("refund reason")
	}

	e.state = Refunded
	e.refundReason = reason
	e.refundedAt = &now
	e.updatedAt = now
	return nil
}
