package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const getOrderSQL = `
	SELECT
		o.id,
		o.number,
		o.buyer_id,
		o.supplier_id,
		o.subtotal,
		o.delivery_fee,
		o.total,
		o.status,
		o.window_start,
		o.window_end,
		o.cancellation_reason,
		o.delivery_method,
		o.delivery_attempts_remaining,
		o.delivery_max_attempts,
		o.delivery_locked,
		o.delivery_verified_at,
		o.delivery_evidence_ref,
		o.delivery_uploaded_at,
		o.created_at,
		o.updated_at,
		o.confirmed_at,
		o.delivered_at,
		o.completed_at,
		o.cancelled_at,
		o.disputed_at,
		e.state AS escrow_state,
		e.amount AS escrow_amount,
		e.refund_reason AS escrow_refund_reason,
		e.held_at AS escrow_held_at,
		e.released_at AS escrow_released_at,
		e.refunded_at AS escrow_refunded_at
	FROM orders o
	JOIN escrows e ON e.order_id = o.id
	WHERE o.id = $1`

const getActiveDisputeSQL = `SELECT` + disputeColumns + `
	FROM disputes
	WHERE order_id = $1 AND status <> 'resolved'`

type orderViewRow struct {
	ID                 uuid.UUID       `db:"id"`
	Number             string          `db:"number"`
	BuyerID            uuid.UUID       `db:"buyer_id"`
	SupplierID         uuid.UUID       `db:"supplier_id"`
	Subtotal           decimal.Decimal `db:"subtotal"`
	DeliveryFee        decimal.Decimal `db:"delivery_fee"`
	Total              decimal.Decimal `db:"total"`
	Status             string          `db:"status"`
	WindowStart        time.Time       `db:"window_start"`
	WindowEnd          time.Time       `db:"window_end"`
	CancellationReason string          `db:"cancellation_reason"`
	Method             string          `db:"delivery_method"`
	AttemptsRemaining  int             `db:"delivery_attempts_remaining"`
	MaxAttempts        int             `db:"delivery_max_attempts"`
	Locked             bool            `db:"delivery_locked"`
	VerifiedAt         *time.Time      `db:"delivery_verified_at"`
	EvidenceRef        string          `db:"delivery_evidence_ref"`
	UploadedAt         *time.Time      `db:"delivery_uploaded_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
	ConfirmedAt        *time.Time      `db:"confirmed_at"`
	DeliveredAt        *time.Time      `db:"delivered_at"`
	CompletedAt        *time.Time      `db:"completed_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	DisputedAt         *time.Time      `db:"disputed_at"`
	EscrowState        string          `db:"escrow_state"`
	EscrowAmount       decimal.Decimal `db:"escrow_amount"`
	EscrowRefundReason string          `db:"escrow_refund_reason"`
	EscrowHeldAt       *time.Time      `db:"escrow_held_at"`
	EscrowReleasedAt   *time.Time      `db:"escrow_released_at"`
	EscrowRefundedAt   *time.Time      `db:"escrow_refunded_at"`
}

// GetOrderQueryHandler builds the order view from the read model.
// Only the order parties and platform staff may read an order.
type GetOrderQueryHandler struct {
	db *sqlx.DB
}

func NewGetOrderQueryHandler(db *sqlx.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns ObjectNotFoundError for an unknown order and
// ActorNotPermittedError for an actor outside the order.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	var row orderViewRow
	err := h.db.GetContext(ctx, &row, getOrderSQL, query.orderID.Bytes())
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.orderID)
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	if !canView(query.actor, row.BuyerID, row.SupplierID) {
		return GetOrderQueryResponse{}, notPermitted(query.actor, "view order")
	}

	response, err := row.toResponse()
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	var active disputeRow
	err = h.db.GetContext(ctx, &active, getActiveDisputeSQL, query.orderID.Bytes())
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return GetOrderQueryResponse{}, err
	default:
		view, viewErr := active.toView()
		if viewErr != nil {
			return GetOrderQueryResponse{}, viewErr
		}
		response.ActiveDispute = &view
	}

	return response, nil
}

func (r orderViewRow) toResponse() (GetOrderQueryResponse, error) {
	id, idErr := kernel.UUIDFromGoogle(r.ID)
	buyerID, buyerErr := kernel.UUIDFromGoogle(r.BuyerID)
	supplierID, supplierErr := kernel.UUIDFromGoogle(r.SupplierID)
	subtotal, subtotalErr := kernel.NewMoney(r.Subtotal)
	fee, feeErr := kernel.NewMoney(r.DeliveryFee)
	total, totalErr := kernel.NewMoney(r.Total)
	status, statusErr := order.StatusFromString(r.Status)
	method, methodErr := order.MethodFromString(r.Method)
	state, stateErr := escrow.StateFromString(r.EscrowState)
	amount, amountErr := kernel.NewMoney(r.EscrowAmount)

	if err := errors.Join(
		idErr, buyerErr, supplierErr, subtotalErr, feeErr, totalErr, statusErr, methodErr, stateErr, amountErr,
	); err != nil {
		return GetOrderQueryResponse{}, err
	}

	return GetOrderQueryResponse{
		ID:                 id,
		Number:             r.Number,
		BuyerID:            buyerID,
		SupplierID:         supplierID,
		Subtotal:           subtotal,
		DeliveryFee:        fee,
		Total:              total,
		Status:             status,
		WindowStart:        r.WindowStart,
		WindowEnd:          r.WindowEnd,
		CancellationReason: r.CancellationReason,
		Delivery: DeliveryView{
			Method:            method,
			AttemptsRemaining: r.AttemptsRemaining,
			MaxAttempts:       r.MaxAttempts,
			Locked:            r.Locked,
			VerifiedAt:        r.VerifiedAt,
			EvidenceRef:       r.EvidenceRef,
			UploadedAt:        r.UploadedAt,
		},
		Escrow: EscrowView{
			State:        state,
			Amount:       amount,
			RefundReason: r.EscrowRefundReason,
			HeldAt:       r.EscrowHeldAt,
			ReleasedAt:   r.EscrowReleasedAt,
			RefundedAt:   r.EscrowRefundedAt,
		},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ConfirmedAt: r.ConfirmedAt,
		DeliveredAt: r.DeliveredAt,
		CompletedAt: r.CompletedAt,
		CancelledAt: r.CancelledAt,
		DisputedAt:  r.DisputedAt,
	}, nil
}
