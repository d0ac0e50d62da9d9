package queries_test

import (
	"testing"

	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deliveryPinColumns = []string{
	"buyer_id", "delivery_method", "delivery_pin", "delivery_attempts_remaining", "delivery_locked",
}

func TestGetDeliveryPinQuery_NotConstructedViaConstructor(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := queries.NewGetDeliveryPinQueryHandler(db).Handle(t.Context(), queries.GetDeliveryPinQuery{})
	require.ErrorIs(t, err, queries.ErrGetDeliveryPinQueryIsNotConstructed)
}

func TestGetDeliveryPinQueryHandler_BuyerReadsPin(t *testing.T) {
	ctx := t.Context()
	db, mock := newMockDB(t)
	buyer := newActor(t, kernel.RoleBuyer)
	orderID := kernel.NewUUID()

	mock.ExpectQuery(deliveryPinSQL).
		WithArgs(orderID.String()).
		WillReturnRows(sqlmock.NewRows(deliveryPinColumns).AddRow(buyer.ID().String(), "pin", "4821", int64(2), false))

	query, err := queries.NewGetDeliveryPinQuery(orderID, buyer)
	require.NoError(t, err)

	pin, err := queries.NewGetDeliveryPinQueryHandler(db).Handle(ctx, query)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "4821", pin.Pin)
	assert.Equal(t, 2, pin.AttemptsRemaining)
	assert.False(t, pin.Locked)
}

func TestGetDeliveryPinQueryHandler_OnlyTheBuyer(t *testing.T) {
	buyerID := kernel.NewUUID()
	otherBuyer := newActor(t, kernel.RoleBuyer)
	supplier := newActor(t, kernel.RoleSupplier)
	operator := newActor(t, kernel.RoleOperator)
	// A supplier whose id happens to equal the buyer's is still not the buyer.
	sameIDSupplier, err := kernel.NewActor(buyerID, kernel.RoleSupplier)
	require.NoError(t, err)

	for _, actor := range []kernel.Actor{otherBuyer, supplier, operator, sameIDSupplier} {
		t.Run(actor.Role().String(), func(t *testing.T) {
			ctx := t.Context()
			db, mock := newMockDB(t)
			orderID := kernel.NewUUID()

			mock.ExpectQuery(deliveryPinSQL).
				WillReturnRows(sqlmock.NewRows(deliveryPinColumns).AddRow(buyerID.String(), "pin", "4821", int64(3), false))

			query, err := queries.NewGetDeliveryPinQuery(orderID, actor)
			require.NoError(t, err)

			_, err = queries.NewGetDeliveryPinQueryHandler(db).Handle(ctx, query)
			require.ErrorIs(t, err, errs.ErrActorNotPermitted)
			assert.NotContains(t, err.Error(), "4821")
		})
	}
}

func TestGetDeliveryPinQueryHandler_NoPin(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{"photo method", "photo"},
		{"not confirmed yet", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			db, mock := newMockDB(t)
			buyer := newActor(t, kernel.RoleBuyer)
			orderID := kernel.NewUUID()

			mock.ExpectQuery(deliveryPinSQL).
				WillReturnRows(sqlmock.NewRows(deliveryPinColumns).AddRow(buyer.ID().String(), tt.method, "", int64(0), false))

			query, err := queries.NewGetDeliveryPinQuery(orderID, buyer)
			require.NoError(t, err)

			_, err = queries.NewGetDeliveryPinQueryHandler(db).Handle(ctx, query)
			require.ErrorIs(t, err, errs.ErrObjectNotFound)
		})
	}
}

func TestGetDeliveryPinQueryHandler_UnknownOrder(t *testing.T) {
	ctx := t.Context()
	db, mock := newMockDB(t)
	mock.ExpectQuery(deliveryPinSQL).WillReturnRows(sqlmock.NewRows(deliveryPinColumns))

	query, err := queries.NewGetDeliveryPinQuery(kernel.NewUUID(), newActor(t, kernel.RoleBuyer))
	require.NoError(t, err)

	_, err = queries.NewGetDeliveryPinQueryHandler(db).Handle(ctx, query)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
