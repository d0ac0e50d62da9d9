package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// NumberPrefix prefixes every human-readable order number.
const NumberPrefix = "MKT-"

// FormatNumber renders a sequence value as an order number, e.g. 1 -> "MKT-000001".
func FormatNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", NumberPrefix, seq)
}

// DeliveryWindow is the buyer's requested delivery slot.
type DeliveryWindow struct {
	start time.Time
	end   time.Time
}

// NewDeliveryWindow validates that both bounds are set and end is after start.
func NewDeliveryWindow(start, end time.Time) (DeliveryWindow, error) {
	if start.IsZero() || end.IsZero() {
		return DeliveryWindow{}, errs.NewValueIsRequiredError("delivery window")
	}
	if !end.After(start) {
		return DeliveryWindow{}, errs.NewValueIsInvalidErrorWithCause(
			"delivery window",
			fmt.Errorf("end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)),
		)
	}
	return DeliveryWindow{start: start, end: end}, nil
}

func (w DeliveryWindow) Start() time.Time {
	return w.start
}

func (w DeliveryWindow) End() time.Time {
	return w.end
}

// Order is the aggregate root of the marketplace lifecycle. It owns the status
// state machine and the embedded Delivery entity.
//
// Order follows these invariants:
//   - Must have valid identifiers for itself, the buyer and the supplier
//   - Total is always subtotal + delivery fee and changes only while Pending
//   - Status changes only along the transition table in Status
//   - The delivery method is derived once, at confirmation
//
// Escrow and dispute are separate aggregates. The Lifecycle domain service
// coordinates the three inside one unit of work.
type Order struct {
	id                 kernel.UUID
	number             string
	buyerID            kernel.UUID
	supplierID         kernel.UUID
	subtotal           kernel.Money
	deliveryFee        kernel.Money
	total              kernel.Money
	status             Status
	window             DeliveryWindow
	delivery           Delivery
	cancellationReason string

	createdAt   time.Time
	updatedAt   time.Time
	confirmedAt *time.Time
	deliveredAt *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	disputedAt  *time.Time

	isConstructed bool
}

// Snapshot is the full persisted state of an Order. Repositories use it to
// rehydrate aggregates; tests use it to assert that rejected actions leave the
// order untouched.
type Snapshot struct {
	ID                 kernel.UUID
	Number             string
	BuyerID            kernel.UUID
	SupplierID         kernel.UUID
	Subtotal           kernel.Money
	DeliveryFee        kernel.Money
	Total              kernel.Money
	Status             Status
	WindowStart        time.Time
	WindowEnd          time.Time
	Delivery           DeliverySnapshot
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ConfirmedAt        *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	DisputedAt         *time.Time
}

// NewOrder places a new order in Pending status.
//
// Parameters:
//   - id: unique identifier of the order
//   - number: human-readable number, see FormatNumber
//   - buyerID, supplierID: the two parties
//   - subtotal, deliveryFee: supplied by the pricing collaborator; the fee is never recomputed
//   - window: requested delivery slot
//   - now: placement time
//
// All validation errors are joined.
func NewOrder(
	id kernel.UUID,
	number string,
	buyerID kernel.UUID,
	supplierID kernel.UUID,
	subtotal kernel.Money,
	deliveryFee kernel.Money,
	window DeliveryWindow,
	now time.Time,
) (*Order, error) {
	order := &Order{
		status:        Pending,
		window:        window,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		order.setID(id),
		order.setNumber(number),
		order.setParties(buyerID, supplierID),
		order.setAmounts(subtotal, deliveryFee),
		order.setWindow(window),
	); err != nil {
		return nil, err
	}

	return order, nil
}

// RestoreOrder rehydrates an Order from storage without re-running business rules.
func RestoreOrder(s Snapshot) *Order {
	return &Order{
		id:                 s.ID,
		number:             s.Number,
		buyerID:            s.BuyerID,
		supplierID:         s.SupplierID,
		subtotal:           s.Subtotal,
		deliveryFee:        s.DeliveryFee,
		total:              s.Total,
		status:             s.Status,
		window:             DeliveryWindow{start: s.WindowStart, end: s.WindowEnd},
		delivery:           RestoreDelivery(s.Delivery),
		cancellationReason: s.CancellationReason,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
		confirmedAt:        s.ConfirmedAt,
		deliveredAt:        s.DeliveredAt,
		completedAt:        s.CompletedAt,
		cancelledAt:        s.CancelledAt,
		disputedAt:         s.DisputedAt,
		isConstructed:      true,
	}
}

// Snapshot returns a copy of the aggregate state.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                 o.id,
		Number:             o.number,
		BuyerID:            o.buyerID,
		SupplierID:         o.supplierID,
		Subtotal:           o.subtotal,
		DeliveryFee:        o.deliveryFee,
		Total:              o.total,
		Status:             o.status,
		WindowStart:        o.window.start,
		WindowEnd:          o.window.end,
		Delivery:           o.delivery.Snapshot(),
		CancellationReason: o.cancellationReason,
		CreatedAt:          o.createdAt,
		UpdatedAt:          o.updatedAt,
		ConfirmedAt:        o.confirmedAt,
		DeliveredAt:        o.deliveredAt,
		CompletedAt:        o.completedAt,
		CancelledAt:        o.cancelledAt,
		DisputedAt:         o.disputedAt,
	}
}

// Validate ensures the Order was created through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) Number() string {
	return o.number
}

func (o *Order) BuyerID() kernel.UUID {
	return o.buyerID
}

func (o *Order) SupplierID() kernel.UUID {
	return o.supplierID
}

func (o *Order) Subtotal() kernel.Money {
	return o.subtotal
}

func (o *Order) DeliveryFee() kernel.Money {
	return o.deliveryFee
}

// Total returns subtotal + delivery fee.
func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Window() DeliveryWindow {
	return o.window
}

// Delivery returns a copy of the delivery entity.
func (o *Order) Delivery() Delivery {
	return o.delivery
}

func (o *Order) CancellationReason() string {
	return o.cancellationReason
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// DeliveredAt is set when the order enters Delivered. The settlement window runs from it.
func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

// IsBuyer reports whether actor is this order's buyer.
func (o *Order) IsBuyer(actor kernel.Actor) bool {
	return actor.Is(kernel.RoleBuyer, o.buyerID)
}

// IsSupplier reports whether actor is this order's supplier.
func (o *Order) IsSupplier(actor kernel.Actor) bool {
	return actor.Is(kernel.RoleSupplier, o.supplierID)
}

// Reprice replaces subtotal and fee while the order is Pending.
func (o *Order) Reprice(subtotal, deliveryFee kernel.Money, now time.Time) error {
	if o.status != Pending {
		return errs.NewValueIsInvalidErrorWithCause(
			"total",
			fmt.Errorf("total is immutable once the order is %s", o.status),
		)
	}
	if err := o.setAmounts(subtotal, deliveryFee); err != nil {
		return err
	}
	o.updatedAt = now
	return nil
}

// Confirm moves Pending -> Confirmed and fixes the delivery method.
func (o *Order) Confirm(delivery Delivery, now time.Time) error {
	if delivery.method == MethodUnknown {
		return errs.NewValueIsRequiredError("delivery method")
	}
	if err := o.transition(Confirmed, now); err != nil {
		return err
	}
	o.delivery = delivery
	o.confirmedAt = &now
	return nil
}

// Cancel moves the order to Cancelled. A reason is mandatory.
func (o *Order) Cancel(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("cancellation reason")
	}
	if err := o.transition(Cancelled, now); err != nil {
		return err
	}
	o.cancellationReason = reason
	o.cancelledAt = &now
	return nil
}

// StartDelivery moves Confirmed -> InDelivery.
func (o *Order) StartDelivery(now time.Time) error {
	return o.transition(InDelivery, now)
}

// AwaitConfirmation moves InDelivery -> AwaitingConfirmation.
//
// Photo-method deliveries must carry an evidence reference. It is validated
// before the status changes, so a missing reference leaves the order untouched.
func (o *Order) AwaitConfirmation(evidenceRef string, now time.Time) error {
	if !o.status.CanTransitionTo(AwaitingConfirmation) {
		return errs.NewInvalidTransitionError("order", o.status.String(), AwaitingConfirmation.String())
	}

	if o.delivery.method == MethodPhoto || strings.TrimSpace(evidenceRef) != "" {
		delivery := o.delivery
		if err := delivery.attachEvidence(evidenceRef, now); err != nil {
			return err
		}
		o.delivery = delivery
	}

	return o.transition(AwaitingConfirmation, now)
}

// MarkDelivered moves the order to Delivered and starts the settlement window clock.
func (o *Order) MarkDelivered(now time.Time) error {
	if err := o.transition(Delivered, now); err != nil {
		return err
	}
	o.deliveredAt = &now
	return nil
}

// Complete moves the order to Completed.
func (o *Order) Complete(now time.Time) error {
	if err := o.transition(Completed, now); err != nil {
		return err
	}
	if o.deliveredAt == nil {
		o.deliveredAt = &now
	}
	o.completedAt = &now
	return nil
}

// Dispute moves the order to Disputed.
func (o *Order) Dispute(now time.Time) error {
	if err := o.transition(Disputed, now); err != nil {
		return err
	}
	o.disputedAt = &now
	return nil
}

// VerifyPin checks a PIN relayed by the supplier. See Delivery for the attempt rules.
//
// The delivery counters are updated even when an error is returned; callers must
// persist the order in both cases.
func (o *Order) VerifyPin(input string, now time.Time) error {
	if o.status != InDelivery && o.status != AwaitingConfirmation {
		return errs.NewInvalidTransitionError("order", o.status.String(), Completed.String())
	}
	err := o.delivery.verifyPin(input, now)
	o.updatedAt = now
	return err
}

// UnlockPin clears a PIN lockout and restores the attempt budget.
func (o *Order) UnlockPin(now time.Time) error {
	if err := o.delivery.unlock(); err != nil {
		return err
	}
	o.updatedAt = now
	return nil
}

func (o *Order) transition(target Status, now time.Time) error {
	next, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}
	o.status = next
	o.updatedAt = now
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number string) error {
	if !strings.HasPrefix(number, NumberPrefix) || len(number) <= len(NumberPrefix) {
		return errs.NewValueIsInvalidErrorWithCause("number", fmt.Errorf("%q is not an order number", number))
	}
	o.number = number
	return nil
}

func (o *Order) setParties(buyerID, supplierID kernel.UUID) error {
	if err := errors.Join(buyerID.Validate(), supplierID.Validate()); err != nil {
		return err
	}
	if buyerID.IsEqual(supplierID) {
		return errs.NewValueIsInvalidErrorWithCause("supplierID", errors.New("buyer and supplier must differ"))
	}
	o.buyerID = buyerID
	o.supplierID = supplierID
	return nil
}

func (o *Order) setAmounts(subtotal, deliveryFee kernel.Money) error {
	if err := errors.Join(subtotal.Validate(), deliveryFee.Validate()); err != nil {
		return err
	}
	total := subtotal.Add(deliveryFee)
	if !total.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("total", fmt.Errorf("%s is not greater than 0", total))
	}
	o.subtotal = subtotal
	o.deliveryFee = deliveryFee
	o.total = total
	return nil
}

func (o *Order) setWindow(window DeliveryWindow) error {
	if window.start.IsZero() {
		return errs.NewValueIsRequiredError("delivery window")
	}
	o.window = window
	return nil
}
