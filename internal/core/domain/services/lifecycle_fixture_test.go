package services_test

import (
	"testing"
	"time"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

const testPin = "4821"

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixedPins struct{ pin string }

func (p fixedPins) Generate() (string, error) {
	return p.pin, nil
}

// testClock advances one second per call so event timestamps are ordered.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	t         *testing.T
	clock     *testClock
	lifecycle *services.Lifecycle
	buyer     kernel.Actor
	supplier  kernel.Actor
	operator  kernel.Actor
	agg       services.Aggregates
}

func newFixture(t *testing.T, total string) *fixture {
	return newFixtureWithPolicy(t, total, order.DefaultPolicy())
}

func newFixtureWithPolicy(t *testing.T, total string, policy order.Policy) *fixture {
	t.Helper()
	clock := &testClock{now: baseTime}

	buyer, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleBuyer)
	require.NoError(t, err)
	supplier, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleSupplier)
	require.NoError(t, err)
	operator, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleOperator)
	require.NoError(t, err)

	subtotal, err := kernel.MoneyFromString(total)
	require.NoError(t, err)
	window, err := order.NewDeliveryWindow(baseTime.Add(24*time.Hour), baseTime.Add(26*time.Hour))
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), order.FormatNumber(1), buyer.ID(), supplier.ID(),
		subtotal, kernel.ZeroMoney(), window, baseTime)
	require.NoError(t, err)
	e, err := escrow.NewEscrow(kernel.NewUUID(), o.ID(), baseTime)
	require.NoError(t, err)

	return &fixture{
		t:         t,
		clock:     clock,
		lifecycle: services.NewLifecycle(policy, fixedPins{pin: testPin}, clock.Now),
		buyer:     buyer,
		supplier:  supplier,
		operator:  operator,
		agg:       services.Aggregates{Order: o, Escrow: e},
	}
}

func (f *fixture) advance(d time.Duration) {
	f.clock.now = f.clock.now.Add(d)
}

// state captures everything a rejected action must leave untouched.
type state struct {
	order   order.Snapshot
	escrow  escrow.Snapshot
	dispute *dispute.Snapshot
}

func (f *fixture) state() state {
	s := state{order: f.agg.Order.Snapshot(), escrow: f.agg.Escrow.Snapshot()}
	if f.agg.Dispute != nil {
		d := f.agg.Dispute.Snapshot()
		s.dispute = &d
	}
	return s
}

func (f *fixture) accept() {
	f.t.Helper()
	_, err := f.lifecycle.Accept(f.supplier, f.agg)
	require.NoError(f.t, err)
}

func (f *fixture) startDelivery() {
	f.t.Helper()
	f.accept()
	_, err := f.lifecycle.StartDelivery(f.supplier, f.agg)
	require.NoError(f.t, err)
}

func (f *fixture) markDelivered() {
	f.t.Helper()
	f.startDelivery()
	_, err := f.lifecycle.MarkDelivered(f.supplier, f.agg, "s3://evidence/drop-off.jpg")
	require.NoError(f.t, err)
}

func (f *fixture) rejectDelivery() *dispute.Dispute {
	f.t.Helper()
	f.markDelivered()
	d, _, err := f.lifecycle.RejectDelivery(f.buyer, f.agg, services.IssueReport{
		Reason:      dispute.ReasonDamagedGoods,
		Description: "half of the bricks are broken",
	})
	require.NoError(f.t, err)
	f.agg.Dispute = d
	return d
}
