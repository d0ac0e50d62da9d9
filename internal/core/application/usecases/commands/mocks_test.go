package commands_test

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/audit"
	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/model/outbox"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) NextNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) ListDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]kernel.UUID, error) {
	args := m.Called(ctx, before, limit)
	ids, _ := args.Get(0).([]kernel.UUID)
	return ids, args.Error(1)
}

type MockEscrowRepository struct{ mock.Mock }

func (m *MockEscrowRepository) Add(ctx context.Context, e *escrow.Escrow) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEscrowRepository) Update(ctx context.Context, e *escrow.Escrow) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEscrowRepository) GetByOrder(ctx context.Context, orderID kernel.UUID) (*escrow.Escrow, error) {
	args := m.Called(ctx, orderID)
	e, _ := args.Get(0).(*escrow.Escrow)
	return e, args.Error(1)
}

type MockDisputeRepository struct{ mock.Mock }

func (m *MockDisputeRepository) Add(ctx context.Context, d *dispute.Dispute) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDisputeRepository) Update(ctx context.Context, d *dispute.Dispute) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDisputeRepository) GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*dispute.Dispute, error) {
	args := m.Called(ctx, orderID)
	d, _ := args.Get(0).(*dispute.Dispute)
	return d, args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Add(ctx context.Context, messages ...*outbox.Message) error {
	return m.Called(ctx, messages).Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, now time.Time, limit, maxAttempts int) ([]*outbox.Message, error) {
	args := m.Called(ctx, now, limit, maxAttempts)
	messages, _ := args.Get(0).([]*outbox.Message)
	return messages, args.Error(1)
}

func (m *MockOutboxRepository) Update(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

type MockAuditRepository struct{ mock.Mock }

func (m *MockAuditRepository) Add(ctx context.Context, entry *audit.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockUoW) EscrowRepository() ports.EscrowRepository {
	return m.Called().Get(0).(ports.EscrowRepository)
}

func (m *MockUoW) DisputeRepository() ports.DisputeRepository {
	return m.Called().Get(0).(ports.DisputeRepository)
}

func (m *MockUoW) OutboxRepository() ports.OutboxRepository {
	return m.Called().Get(0).(ports.OutboxRepository)
}

func (m *MockUoW) AuditRepository() ports.AuditRepository {
	return m.Called().Get(0).(ports.AuditRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	return m.Called().Get(0).(commands.UoW)
}

type MockOutboxUoW struct{ mock.Mock }

func (m *MockOutboxUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOutboxUoW) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOutboxUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOutboxUoW) OutboxRepository() ports.OutboxRepository {
	return m.Called().Get(0).(ports.OutboxRepository)
}

type MockOutboxUoWFactory struct{ mock.Mock }

func (m *MockOutboxUoWFactory) Create() commands.OutboxUoW {
	return m.Called().Get(0).(commands.OutboxUoW)
}

const testPin = "4821"

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixedPins struct{}

func (fixedPins) Generate() (string, error) {
	return testPin, nil
}

// store wires mock repositories into one unit of work, the way the postgres
// adapter hands them out inside a transaction.
type store struct {
	uow      *MockUoW
	factory  *MockUoWFactory
	orders   *MockOrderRepository
	escrows  *MockEscrowRepository
	disputes *MockDisputeRepository
	outbox   *MockOutboxRepository
	audit    *MockAuditRepository
}

func newStore() *store {
	s := &store{
		uow:      new(MockUoW),
		factory:  new(MockUoWFactory),
		orders:   new(MockOrderRepository),
		escrows:  new(MockEscrowRepository),
		disputes: new(MockDisputeRepository),
		outbox:   new(MockOutboxRepository),
		audit:    new(MockAuditRepository),
	}
	s.factory.On("Create").Return(s.uow).Maybe()
	s.uow.On("OrderRepository").Return(s.orders).Maybe()
	s.uow.On("EscrowRepository").Return(s.escrows).Maybe()
	s.uow.On("DisputeRepository").Return(s.disputes).Maybe()
	s.uow.On("OutboxRepository").Return(s.outbox).Maybe()
	s.uow.On("AuditRepository").Return(s.audit).Maybe()
	return s
}

// expectLoad registers the reads of lockOrder for the given aggregates.
func (s *store) expectLoad(ctx context.Context, agg services.Aggregates) {
	id := agg.Order.ID()
	s.uow.On("Begin", ctx).Return(nil).Once()
	s.orders.On("GetForUpdate", ctx, id).Return(agg.Order, nil).Once()
	s.escrows.On("GetByOrder", ctx, id).Return(agg.Escrow, nil).Once()
	if agg.Dispute != nil {
		s.disputes.On("GetActiveByOrder", ctx, id).Return(agg.Dispute, nil).Once()
	} else {
		s.disputes.On("GetActiveByOrder", ctx, id).Return(nil, errs.NewObjectNotFoundError("dispute", id)).Once()
	}
	s.uow.On("Rollback", ctx).Return(nil).Once()
}

// expectSave registers the writes of a successful lifecycle step.
func (s *store) expectSave(ctx context.Context, agg services.Aggregates) {
	s.orders.On("Update", ctx, agg.Order).Return(nil).Once()
	s.escrows.On("Update", ctx, agg.Escrow).Return(nil).Once()
	if agg.Dispute != nil {
		s.disputes.On("Update", ctx, agg.Dispute).Return(nil).Once()
	}
	s.outbox.On("Add", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil).Once()
	s.uow.On("Commit", ctx).Return(nil).Once()
}

func (s *store) assertExpectations(t *testing.T) {
	t.Helper()
	s.uow.AssertExpectations(t)
	s.orders.AssertExpectations(t)
	s.escrows.AssertExpectations(t)
	s.disputes.AssertExpectations(t)
	s.outbox.AssertExpectations(t)
	s.audit.AssertExpectations(t)
}

// storedEventTypes returns the event types of every outbox Add call, in order.
func (s *store) storedEventTypes() []string {
	var types []string
	for _, call := range s.outbox.Calls {
		if call.Method != "Add" {
			continue
		}
		for _, m := range call.Arguments.Get(1).([]*outbox.Message) {
			types = append(types, m.EventType())
		}
	}
	return types
}

// parties holds the actors of one order and a lifecycle used to drive the
// aggregates into a state before the handler under test runs.
type parties struct {
	lifecycle *services.Lifecycle
	buyer     kernel.Actor
	supplier  kernel.Actor
	operator  kernel.Actor
}

func newParties(t *testing.T, policy order.Policy) parties {
	t.Helper()
	buyer, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleBuyer)
	require.NoError(t, err)
	supplier, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleSupplier)
	require.NoError(t, err)
	operator, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleOperator)
	require.NoError(t, err)

	now := baseTime
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return parties{
		lifecycle: services.NewLifecycle(policy, fixedPins{}, clock),
		buyer:     buyer,
		supplier:  supplier,
		operator:  operator,
	}
}

func mustMoney(t *testing.T, amount string) kernel.Money {
	t.Helper()
	m, err := kernel.MoneyFromString(amount)
	require.NoError(t, err)
	return m
}

func testWindow(t *testing.T) order.DeliveryWindow {
	t.Helper()
	w, err := order.NewDeliveryWindow(baseTime.Add(24*time.Hour), baseTime.Add(26*time.Hour))
	require.NoError(t, err)
	return w
}

// placed returns a Pending order with its escrow.
func (p parties) placed(t *testing.T, total string) services.Aggregates {
	t.Helper()
	now := p.lifecycle.Now()
	o, err := order.NewOrder(
		kernel.NewUUID(), order.FormatNumber(1), p.buyer.ID(), p.supplier.ID(),
		mustMoney(t, total), kernel.ZeroMoney(), testWindow(t), now,
	)
	require.NoError(t, err)
	e, err := escrow.NewEscrow(kernel.NewUUID(), o.ID(), now)
	require.NoError(t, err)

	agg := services.Aggregates{Order: o, Escrow: e}
	_, err = p.lifecycle.Place(p.buyer, agg)
	require.NoError(t, err)
	return agg
}

// inDelivery returns an accepted order on its way to the buyer.
func (p parties) inDelivery(t *testing.T, total string) services.Aggregates {
	t.Helper()
	agg := p.placed(t, total)
	_, err := p.lifecycle.Accept(p.supplier, agg)
	require.NoError(t, err)
	_, err = p.lifecycle.StartDelivery(p.supplier, agg)
	require.NoError(t, err)
	return agg
}

// disputed returns a photo order the buyer rejected, with its open dispute.
func (p parties) disputed(t *testing.T, total string) services.Aggregates {
	t.Helper()
	agg := p.inDelivery(t, total)
	_, err := p.lifecycle.MarkDelivered(p.supplier, agg, "s3://evidence/drop-off.jpg")
	require.NoError(t, err)
	d, _, err := p.lifecycle.RejectDelivery(p.buyer, agg, services.IssueReport{
		Reason:      dispute.ReasonDamagedGoods,
		Description: "half of the bricks are broken",
	})
	require.NoError(t, err)
	agg.Dispute = d
	return agg
}
