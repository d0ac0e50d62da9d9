package commands_test

import (
	"errors"
	"testing"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewTransitionOrderCommand(t *testing.T) {
	p := newParties(t, order.DefaultPolicy())

	t.Run("should trim the note", func(t *testing.T) {
		cmd, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), p.buyer, commands.ActionCancel, "  changed my mind ")
		require.NoError(t, err)
		assert.Equal(t, commands.ActionCancel, cmd.Action())
		assert.Equal(t, "changed my mind", cmd.Note())
	})

	t.Run("should reject unknown actions", func(t *testing.T) {
		_, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), p.buyer, "teleport", "")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject a missing actor", func(t *testing.T) {
		_, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), kernel.Actor{}, commands.ActionAccept, "")
		require.Error(t, err)
	})
}

func TestTransitionOrderCommandHandler_Accept(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "200.00")

	s := newStore()
	s.expectLoad(ctx, agg)
	s.expectSave(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), p.supplier, commands.ActionAccept, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	require.NoError(t, h.Handle(ctx, cmd))
	s.assertExpectations(t)

	assert.Equal(t, order.Confirmed, agg.Order.Status())
	assert.Equal(t, order.MethodPin, agg.Order.Delivery().Method())
	assert.Equal(t, testPin, agg.Order.Delivery().Pin())
	assert.Equal(t, escrow.Held, agg.Escrow.State())
	assert.Equal(t, []string{"order.confirmed"}, s.storedEventTypes())
}

func TestTransitionOrderCommandHandler_MarkDeliveredWithEvidence(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.inDelivery(t, "80.00")

	s := newStore()
	s.expectLoad(ctx, agg)
	s.expectSave(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(
		agg.Order.ID(), p.supplier, commands.ActionMarkDelivered, "s3://evidence/porch.jpg",
	)
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	require.NoError(t, h.Handle(ctx, cmd))
	s.assertExpectations(t)

	assert.Equal(t, order.AwaitingConfirmation, agg.Order.Status())
	assert.Equal(t, "s3://evidence/porch.jpg", agg.Order.Delivery().EvidenceRef())
}

func TestTransitionOrderCommandHandler_ConfirmReceiptReleasesEscrow(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.inDelivery(t, "80.00")
	_, err := p.lifecycle.MarkDelivered(p.supplier, agg, "s3://evidence/porch.jpg")
	require.NoError(t, err)

	s := newStore()
	s.expectLoad(ctx, agg)
	s.expectSave(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), p.buyer, commands.ActionConfirmReceipt, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	require.NoError(t, h.Handle(ctx, cmd))
	s.assertExpectations(t)

	assert.Equal(t, order.Completed, agg.Order.Status())
	assert.Equal(t, escrow.Released, agg.Escrow.State())
}

func TestTransitionOrderCommandHandler_CancelRefundsHeldEscrow(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "80.00")
	_, err := p.lifecycle.Accept(p.supplier, agg)
	require.NoError(t, err)

	s := newStore()
	s.expectLoad(ctx, agg)
	s.expectSave(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), p.buyer, commands.ActionCancel, "found a cheaper supplier")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	require.NoError(t, h.Handle(ctx, cmd))
	s.assertExpectations(t)

	assert.Equal(t, order.Cancelled, agg.Order.Status())
	assert.Equal(t, "found a cheaper supplier", agg.Order.CancellationReason())
	assert.Equal(t, escrow.Refunded, agg.Escrow.State())
}

func TestTransitionOrderCommandHandler_ReplayCommitsNothing(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "80.00")
	_, err := p.lifecycle.Accept(p.supplier, agg)
	require.NoError(t, err)

	s := newStore()
	s.expectLoad(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), p.supplier, commands.ActionAccept, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	require.NoError(t, h.Handle(ctx, cmd))
	s.assertExpectations(t)

	s.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	s.outbox.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	s.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestTransitionOrderCommandHandler_InvalidTransition(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "80.00")
	before := agg.Order.Snapshot()

	s := newStore()
	s.expectLoad(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), p.supplier, commands.ActionStartDelivery, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	err = h.Handle(ctx, cmd)

	var transitionErr *errs.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, before, agg.Order.Snapshot())
	s.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestTransitionOrderCommandHandler_ForeignActor(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "80.00")

	stranger, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleSupplier)
	require.NoError(t, err)

	s := newStore()
	s.expectLoad(ctx, agg)

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), stranger, commands.ActionAccept, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrActorNotPermitted)
	assert.Equal(t, order.Pending, agg.Order.Status())
}

func TestTransitionOrderCommandHandler_OrderNotFound(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	id := kernel.NewUUID()

	s := newStore()
	mock.InOrder(
		s.uow.On("Begin", ctx).Return(nil).Once(),
		s.orders.On("GetForUpdate", ctx, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Once(),
		s.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	cmd, err := commands.NewTransitionOrderCommand(id, p.supplier, commands.ActionAccept, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	s.escrows.AssertNotCalled(t, "GetByOrder", mock.Anything, mock.Anything)
}

func TestTransitionOrderCommandHandler_SaveError(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "80.00")

	s := newStore()
	s.expectLoad(ctx, agg)
	s.orders.On("Update", ctx, agg.Order).Return(errors.New("update error")).Once()

	cmd, err := commands.NewTransitionOrderCommand(agg.Order.ID(), p.supplier, commands.ActionAccept, "")
	require.NoError(t, err)

	h := commands.NewTransitionOrderCommandHandler(s.factory, p.lifecycle)
	err = h.Handle(ctx, cmd)
	require.EqualError(t, err, "update error")
	s.uow.AssertNotCalled(t, "Commit", mock.Anything)
	s.outbox.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestRepriceOrderCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	p := newParties(t, order.DefaultPolicy())
	agg := p.placed(t, "80.00")

	s := newStore()
	s.expectLoad(ctx, agg)
	s.expectSave(ctx, agg)

	cmd, err := commands.NewRepriceOrderCommand(agg.Order.ID(), p.supplier, mustMoney(t, "150.00"), mustMoney(t, "20.00"))
	require.NoError(t, err)

	h := commands.NewRepriceOrderCommandHandler(s.factory, p.lifecycle)
	require.NoError(t, h.Handle(ctx, cmd))
	s.assertExpectations(t)

	assert.Equal(t, "170.00", agg.Order.Total().String())
	assert.Equal(t, []string{string(order.EventOrderRepriced)}, s.storedEventTypes())
}

func TestRepriceOrderCommandHandler_NotConstructed(t *testing.T) {
	p := newParties(t, order.DefaultPolicy())
	s := newStore()

	h := commands.NewRepriceOrderCommandHandler(s.factory, p.lifecycle)
	err := h.Handle(t.Context(), commands.RepriceOrderCommand{})
	require.ErrorIs(t, err, commands.ErrRepriceOrderCommandIsNotConstructed)
}
