package postgres_test

import (
	"context"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/pkg/errs"
)

func (suite *UnitOfWorkIntegrationTestSuite) TestReadModelFollowsWorkflow() {
	ctx := context.Background()
	orderID := suite.placeOrder("400.00")
	suite.transition(orderID, suite.supplier, commands.ActionAccept)

	pinQuery, err := queries.NewGetDeliveryPinQuery(orderID, suite.buyer)
	suite.Require().NoError(err)
	pin, err := queries.NewGetDeliveryPinQueryHandler(suite.conns.Sqlx).Handle(ctx, pinQuery)
	suite.Require().NoError(err)
	suite.Equal(testPin, pin.Pin)
	suite.Equal(3, pin.AttemptsRemaining)

	viewQuery, err := queries.NewGetOrderQuery(orderID, suite.supplier)
	suite.Require().NoError(err)
	view, err := queries.NewGetOrderQueryHandler(suite.conns.Sqlx).Handle(ctx, viewQuery)
	suite.Require().NoError(err)
	suite.Equal(order.Confirmed, view.Status)
	suite.Equal(order.MethodPin, view.Delivery.Method)
	suite.Equal(escrow.Held, view.Escrow.State)
	suite.Equal("400.00", view.Escrow.Amount.String())
	suite.NotNil(view.ConfirmedAt)
	suite.Nil(view.ActiveDispute)

	suite.transition(orderID, suite.supplier, commands.ActionStartDelivery)
	suite.transition(orderID, suite.supplier, commands.ActionMarkDelivered)

	report := services.IssueReport{
		Reason:      dispute.ReasonDamagedGoods,
		Description: "three pallets of tiles are cracked",
		Evidence:    []string{"s3://evidence/tiles-1.jpg", "s3://evidence/tiles-2.jpg"},
	}
	reject, err := commands.NewOpenDisputeCommand(orderID, suite.buyer, commands.OriginRejection, report)
	suite.Require().NoError(err)
	suite.Require().NoError(commands.NewOpenDisputeCommandHandler(suite.uowFactory(), suite.lifecycle).Handle(ctx, reject))

	view, err = queries.NewGetOrderQueryHandler(suite.conns.Sqlx).Handle(ctx, viewQuery)
	suite.Require().NoError(err)
	suite.Equal(order.Disputed, view.Status)
	suite.Require().NotNil(view.ActiveDispute)
	suite.True(view.ActiveDispute.SiteVisit.Required)
	suite.Equal(report.Evidence, view.ActiveDispute.Evidence)
	suite.Equal(kernel.RoleBuyer, view.ActiveDispute.OpenedBy)

	historyQuery, err := queries.NewListOrderDisputesQuery(orderID, suite.operator)
	suite.Require().NoError(err)
	history, err := queries.NewListOrderDisputesQueryHandler(suite.conns.Sqlx).Handle(ctx, historyQuery)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(dispute.StatusOpened, history[0].Status)

	stranger, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleSupplier)
	suite.Require().NoError(err)
	strangerQuery, err := queries.NewGetOrderQuery(orderID, stranger)
	suite.Require().NoError(err)
	_, err = queries.NewGetOrderQueryHandler(suite.conns.Sqlx).Handle(ctx, strangerQuery)
	suite.Require().ErrorIs(err, errs.ErrActorNotPermitted)
}
