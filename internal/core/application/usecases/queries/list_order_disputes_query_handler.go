package queries

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/pkg/errs"

	"github.com/jmoiron/sqlx"
)

const getOrderPartiesSQL = `SELECT buyer_id, supplier_id FROM orders WHERE id = $1`

const listOrderDisputesSQL = `SELECT` + disputeColumns + `
	FROM disputes
	WHERE order_id = $1
	ORDER BY opened_at, id`

type ListOrderDisputesQueryHandler struct {
	db *sqlx.DB
}

func NewListOrderDisputesQueryHandler(db *sqlx.DB) ListOrderDisputesQueryHandler {
	return ListOrderDisputesQueryHandler{db: db}
}

// Handle returns an empty slice for an order that was never disputed.
func (h ListOrderDisputesQueryHandler) Handle(ctx context.Context, query ListOrderDisputesQuery) ([]DisputeView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var parties partiesRow
	err := h.db.GetContext(ctx, &parties, getOrderPartiesSQL, query.orderID.Bytes())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewObjectNotFoundError("order", query.orderID)
	}
	if err != nil {
		return nil, err
	}

	if !canView(query.actor, parties.BuyerID, parties.SupplierID) {
		return nil, notPermitted(query.actor, "view disputes")
	}

	var rows []disputeRow
	if err = h.db.SelectContext(ctx, &rows, listOrderDisputesSQL, query.orderID.Bytes()); err != nil {
		return nil, err
	}

	views := make([]DisputeView, 0, len(rows))
	for _, row := range rows {
		view, viewErr := row.toView()
		if viewErr != nil {
			return nil, viewErr
		}
		views = append(views, view)
	}

	return views, nil
}
