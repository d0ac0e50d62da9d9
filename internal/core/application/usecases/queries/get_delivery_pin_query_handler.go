package queries

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const getDeliveryPinSQL = `
	SELECT
		buyer_id,
		delivery_method,
		delivery_pin,
		delivery_attempts_remaining,
		delivery_locked
	FROM orders
	WHERE id = $1`

type deliveryPinRow struct {
	BuyerID           uuid.UUID `db:"buyer_id"`
	Method            string    `db:"delivery_method"`
	Pin               string    `db:"delivery_pin"`
	AttemptsRemaining int       `db:"delivery_attempts_remaining"`
	Locked            bool      `db:"delivery_locked"`
}

type GetDeliveryPinQueryHandler struct {
	db *sqlx.DB
}

func NewGetDeliveryPinQueryHandler(db *sqlx.DB) GetDeliveryPinQueryHandler {
	return GetDeliveryPinQueryHandler{db: db}
}

// Handle returns ObjectNotFoundError when the order is unknown or has no PIN
// (photo method, or not confirmed yet).
func (h GetDeliveryPinQueryHandler) Handle(
	ctx context.Context,
	query GetDeliveryPinQuery,
) (GetDeliveryPinQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetDeliveryPinQueryResponse{}, err
	}

	var row deliveryPinRow
	err := h.db.GetContext(ctx, &row, getDeliveryPinSQL, query.orderID.Bytes())
	if errors.Is(err, sql.ErrNoRows) {
		return GetDeliveryPinQueryResponse{}, errs.NewObjectNotFoundError("order", query.orderID)
	}
	if err != nil {
		return GetDeliveryPinQueryResponse{}, err
	}

	if query.actor.Role() != kernel.RoleBuyer || query.actor.ID().Bytes() != row.BuyerID {
		return GetDeliveryPinQueryResponse{}, notPermitted(query.actor, "read delivery pin")
	}

	if row.Method != order.MethodPin.String() || row.Pin == "" {
		return GetDeliveryPinQueryResponse{}, errs.NewObjectNotFoundError("delivery pin", query.orderID)
	}

	return GetDeliveryPinQueryResponse{
		Pin:               row.Pin,
		AttemptsRemaining: row.AttemptsRemaining,
		Locked:            row.Locked,
	}, nil
}
