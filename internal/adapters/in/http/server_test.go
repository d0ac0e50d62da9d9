package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
)

type mockCommandHandler[C any] struct {
	mock.Mock
}

func (m *mockCommandHandler[C]) Handle(ctx context.Context, cmd C) error {
	return m.Called(ctx, cmd).Error(0)
}

type mockQueryHandler[Q, R any] struct {
	mock.Mock
}

func (m *mockQueryHandler[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	args := m.Called(ctx, query)
	var resp R
	if v := args.Get(0); v != nil {
		resp = v.(R)
	}
	return resp, args.Error(1)
}

type testServer struct {
	handler http.Handler

	placeOrder     *mockCommandHandler[commands.PlaceOrderCommand]
	repriceOrder   *mockCommandHandler[commands.RepriceOrderCommand]
	transition     *mockCommandHandler[commands.TransitionOrderCommand]
	verifyPin      *mockCommandHandler[commands.VerifyPinCommand]
	openDispute    *mockCommandHandler[commands.OpenDisputeCommand]
	disputeAction  *mockCommandHandler[commands.DisputeActionCommand]
	resolveDispute *mockCommandHandler[commands.ResolveDisputeCommand]
	unlockPin      *mockCommandHandler[commands.UnlockPinCommand]

	getOrder       *mockQueryHandler[queries.GetOrderQuery, queries.GetOrderQueryResponse]
	getDeliveryPin *mockQueryHandler[queries.GetDeliveryPinQuery, queries.GetDeliveryPinQueryResponse]
	listDisputes   *mockQueryHandler[queries.ListOrderDisputesQuery, []queries.DisputeView]
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	api, err := LoadAPIDocument(context.Background())
	require.NoError(t, err)

	ts := &testServer{
		placeOrder:     new(mockCommandHandler[commands.PlaceOrderCommand]),
		repriceOrder:   new(mockCommandHandler[commands.RepriceOrderCommand]),
		transition:     new(mockCommandHandler[commands.TransitionOrderCommand]),
		verifyPin:      new(mockCommandHandler[commands.VerifyPinCommand]),
		openDispute:    new(mockCommandHandler[commands.OpenDisputeCommand]),
		disputeAction:  new(mockCommandHandler[commands.DisputeActionCommand]),
		resolveDispute: new(mockCommandHandler[commands.ResolveDisputeCommand]),
		unlockPin:      new(mockCommandHandler[commands.UnlockPinCommand]),
		getOrder:       new(mockQueryHandler[queries.GetOrderQuery, queries.GetOrderQueryResponse]),
		getDeliveryPin: new(mockQueryHandler[queries.GetDeliveryPinQuery, queries.GetDeliveryPinQueryResponse]),
		listDisputes:   new(mockQueryHandler[queries.ListOrderDisputesQuery, []queries.DisputeView]),
	}

	server := NewServer(Handlers{
		PlaceOrder:      ts.placeOrder,
		RepriceOrder:    ts.repriceOrder,
		TransitionOrder: ts.transition,
		VerifyPin:       ts.verifyPin,
		OpenDispute:     ts.openDispute,
		DisputeAction:   ts.disputeAction,
		ResolveDispute:  ts.resolveDispute,
		UnlockPin:       ts.unlockPin,
		GetOrder:        ts.getOrder,
		GetDeliveryPin:  ts.getDeliveryPin,
		ListDisputes:    ts.listDisputes,
	}, api, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts.handler = server.Echo()

	return ts
}

func (ts *testServer) do(method, path string, actor kernel.Actor, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor.Validate() == nil {
		req.Header.Set(HeaderActorID, actor.ID().String())
		req.Header.Set(HeaderActorRole, actor.Role().String())
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func newActor(t *testing.T, role kernel.Role) kernel.Actor {
	t.Helper()
	actor, err := kernel.NewActor(kernel.NewUUID(), role)
	require.NoError(t, err)
	return actor
}

func money(t *testing.T, s string) kernel.Money {
	t.Helper()
	m, err := kernel.MoneyFromString(s)
	require.NoError(t, err)
	return m
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodGet, "/health", kernel.Actor{}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("marketplace_jobs_processed_total 1\n"))
	})
	ts := newTestServer(t, Options{Metrics: metrics})

	rec := ts.do(http.MethodGet, "/metrics", kernel.Actor{}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_jobs_processed_total")
}

func TestSwaggerServesDocument(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodGet, "/swagger/doc.json", kernel.Actor{}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Marketplace Order Lifecycle API")
}

func TestPlaceOrder(t *testing.T) {
	ts := newTestServer(t, Options{})
	buyer := newActor(t, kernel.RoleBuyer)
	supplierID := kernel.NewUUID()

	ts.placeOrder.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.PlaceOrderCommand) bool {
		return cmd.Buyer().Is(kernel.RoleBuyer, buyer.ID()) &&
			cmd.SupplierID().IsEqual(supplierID) &&
			cmd.Subtotal().IsEqual(money(t, "180.00")) &&
			cmd.DeliveryFee().IsEqual(money(t, "20.00"))
	})).Return(nil).Once()

	body := `{"supplier_id":"` + supplierID.String() + `","subtotal":"180.00","delivery_fee":"20.00",` +
		`"window_start":"2026-03-02T08:00:00Z","window_end":"2026-03-02T12:00:00Z"}`
	rec := ts.do(http.MethodPost, "/api/v1/orders", buyer, body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp PlaceOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "/api/v1/orders/"+resp.ID, rec.Header().Get("Location"))
	ts.placeOrder.AssertExpectations(t)
}

func TestPlaceOrder_RejectsBodyOutsideSchema(t *testing.T) {
	ts := newTestServer(t, Options{})
	buyer := newActor(t, kernel.RoleBuyer)

	body := `{"supplier_id":"` + kernel.NewUUID().String() + `","subtotal":"12.345","delivery_fee":"20.00",` +
		`"window_start":"2026-03-02T08:00:00Z","window_end":"2026-03-02T12:00:00Z"}`
	rec := ts.do(http.MethodPost, "/api/v1/orders", buyer, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decodeError(t, rec).Code)
	ts.placeOrder.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestPlaceOrder_RejectsInvertedWindow(t *testing.T) {
	ts := newTestServer(t, Options{})
	buyer := newActor(t, kernel.RoleBuyer)

	body := `{"supplier_id":"` + kernel.NewUUID().String() + `","subtotal":"10.00","delivery_fee":"0",` +
		`"window_start":"2026-03-02T12:00:00Z","window_end":"2026-03-02T08:00:00Z"}`
	rec := ts.do(http.MethodPost, "/api/v1/orders", buyer, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.placeOrder.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestActorHeadersAreRequired(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/accept", kernel.Actor{}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, HeaderActorID)
	ts.transition.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestUnknownRoleIsRejected(t *testing.T) {
	ts := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/accept", nil)
	req.Header.Set(HeaderActorID, kernel.NewUUID().String())
	req.Header.Set(HeaderActorRole, "courier")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidOrderIDIsRejected(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodGet, "/api/v1/orders/not-a-uuid", newActor(t, kernel.RoleBuyer), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.getOrder.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestTransitionRoutes(t *testing.T) {
	cases := []struct {
		path   string
		body   string
		action commands.OrderAction
		note   string
	}{
		{path: "accept", action: commands.ActionAccept},
		{path: "start-delivery", action: commands.ActionStartDelivery},
		{path: "confirm-receipt", action: commands.ActionConfirmReceipt},
		{path: "cancel", body: `{"reason":"changed plans"}`, action: commands.ActionCancel, note: "changed plans"},
		{path: "mark-delivered", body: `{"evidence_ref":"s3://evidence/drop.jpg"}`,
			action: commands.ActionMarkDelivered, note: "s3://evidence/drop.jpg"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			ts := newTestServer(t, Options{})
			orderID := kernel.NewUUID()
			ts.transition.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.TransitionOrderCommand) bool {
				return cmd.OrderID().IsEqual(orderID) && cmd.Action() == tc.action && cmd.Note() == tc.note
			})).Return(nil).Once()

			rec := ts.do(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/"+tc.path,
				newActor(t, kernel.RoleSupplier), tc.body)

			assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
			ts.transition.AssertExpectations(t)
		})
	}
}

func TestTransitionConflict(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.transition.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewInvalidTransitionError("order", "completed", "cancelled")).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/cancel",
		newActor(t, kernel.RoleBuyer), `{}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "invalid_transition", body.Code)
	assert.Equal(t, "completed", body.Details["current"])
	assert.Equal(t, "cancelled", body.Details["requested"])
}

func TestGetOrder(t *testing.T) {
	ts := newTestServer(t, Options{})
	supplier := newActor(t, kernel.RoleSupplier)
	orderID := kernel.NewUUID()
	opened := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	view := queries.GetOrderQueryResponse{
		ID:          orderID,
		Number:      "MKT-000042",
		BuyerID:     kernel.NewUUID(),
		SupplierID:  supplier.ID(),
		Subtotal:    money(t, "380"),
		DeliveryFee: money(t, "20"),
		Total:       money(t, "400"),
		Status:      order.Disputed,
		Delivery:    queries.DeliveryView{Method: order.MethodPin, AttemptsRemaining: 3, MaxAttempts: 3},
		Escrow:      queries.EscrowView{State: escrow.Held, Amount: money(t, "400")},
		ActiveDispute: &queries.DisputeView{
			ID:        kernel.NewUUID(),
			Reason:    dispute.ReasonDamagedGoods,
			OpenedBy:  kernel.RoleBuyer,
			OpenedAt:  opened,
			Status:    dispute.StatusOpened,
			SiteVisit: dispute.SiteVisit{Required: true},
		},
	}
	ts.getOrder.On("Handle", mock.Anything, mock.AnythingOfType("queries.GetOrderQuery")).Return(view, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+orderID.String(), supplier, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MKT-000042", resp.Number)
	assert.Equal(t, "400.00", resp.Total)
	assert.Equal(t, "disputed", resp.Status)
	assert.Equal(t, "held", resp.Escrow.State)
	assert.Equal(t, "pin", resp.Delivery.Method)
	require.NotNil(t, resp.ActiveDispute)
	assert.True(t, resp.ActiveDispute.SiteVisit.Required)
	assert.Equal(t, []string{}, resp.ActiveDispute.Evidence)
	assert.NotContains(t, rec.Body.String(), `"pin":`)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.getOrder.On("Handle", mock.Anything, mock.Anything).
		Return(nil, errs.NewObjectNotFoundError("order", "x")).Once()

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String(), newActor(t, kernel.RoleOperator), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestRepriceOrder(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.repriceOrder.On("Handle", mock.Anything, mock.AnythingOfType("commands.RepriceOrderCommand")).Return(nil).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/reprice",
		newActor(t, kernel.RoleSupplier), `{"subtotal":"95.50","delivery_fee":"4.50"}`)

	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	ts.repriceOrder.AssertExpectations(t)
}

func TestVerifyDeliveryPin_Mismatch(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.verifyPin.On("Handle", mock.Anything, mock.Anything).Return(errs.NewPinMismatchError(2)).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/delivery/pin",
		newActor(t, kernel.RoleSupplier), `{"pin":"0000"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "pin_mismatch", body.Code)
	assert.InDelta(t, 2, body.Details["attempts_remaining"], 0)
}

func TestVerifyDeliveryPin_Exhausted(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.verifyPin.On("Handle", mock.Anything, mock.Anything).Return(errs.NewPinAttemptsExhaustedError(3)).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/delivery/pin",
		newActor(t, kernel.RoleSupplier), `{"pin":"0000"}`)

	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "pin_attempts_exhausted", decodeError(t, rec).Code)
}

func TestVerifyDeliveryPin_RateLimitedPerOrder(t *testing.T) {
	ts := newTestServer(t, Options{PinVerifyRate: limiter.Rate{Period: time.Minute, Limit: 2}})
	ts.verifyPin.On("Handle", mock.Anything, mock.Anything).Return(errs.NewPinMismatchError(1))
	supplier := newActor(t, kernel.RoleSupplier)
	limited := "/api/v1/orders/" + kernel.NewUUID().String() + "/delivery/pin"

	for range 2 {
		rec := ts.do(http.MethodPost, limited, supplier, `{"pin":"1111"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	}
	rec := ts.do(http.MethodPost, limited, supplier, `{"pin":"1111"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	other := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/delivery/pin", supplier, `{"pin":"1111"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, other.Code)

	ts.verifyPin.AssertNumberOfCalls(t, "Handle", 3)
}

func TestGetDeliveryPin(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.getDeliveryPin.On("Handle", mock.Anything, mock.Anything).
		Return(queries.GetDeliveryPinQueryResponse{Pin: "0427", AttemptsRemaining: 3}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/delivery/pin",
		newActor(t, kernel.RoleBuyer), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"pin":"0427","attempts_remaining":3,"locked":false}`, rec.Body.String())
}

func TestGetDeliveryPin_Forbidden(t *testing.T) {
	ts := newTestServer(t, Options{})
	supplier := newActor(t, kernel.RoleSupplier)
	ts.getDeliveryPin.On("Handle", mock.Anything, mock.Anything).
		Return(nil, errs.NewActorNotPermittedError(supplier.ID().String(), "supplier", "read delivery pin")).Once()

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/delivery/pin", supplier, "")

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "read delivery pin", decodeError(t, rec).Details["action"])
}

func TestRejectDeliveryOpensDispute(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.openDispute.On("Handle", mock.Anything, mock.AnythingOfType("commands.OpenDisputeCommand")).Return(nil).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/reject-delivery",
		newActor(t, kernel.RoleBuyer),
		`{"reason":"damaged_goods","description":"Pallet arrived crushed on one side","evidence":["s3://e/1.jpg"]}`)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ts.openDispute.AssertExpectations(t)
}

func TestReportIssue_UnknownReason(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/disputes",
		newActor(t, kernel.RoleSupplier), `{"reason":"bad_weather","description":"Road closed for the day"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.openDispute.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestListDisputes(t *testing.T) {
	ts := newTestServer(t, Options{})
	resolvedAt := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	ts.listDisputes.On("Handle", mock.Anything, mock.Anything).Return([]queries.DisputeView{
		{
			ID:         kernel.NewUUID(),
			Reason:     dispute.ReasonWrongItems,
			Evidence:   []string{"s3://e/2.jpg"},
			OpenedBy:   kernel.RoleSupplier,
			Status:     dispute.StatusResolved,
			Outcome:    dispute.OutcomeRefund,
			ResolvedAt: &resolvedAt,
		},
	}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/disputes",
		newActor(t, kernel.RoleOperator), "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []DisputeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "resolved", resp[0].Status)
	assert.Equal(t, "refund", resp[0].Outcome)
	assert.Equal(t, "supplier", resp[0].OpenedBy)
}

func TestDisputeWorkflowRoutes(t *testing.T) {
	cases := []struct {
		path   string
		body   string
		action commands.DisputeAction
	}{
		{path: "evidence", body: `{"ref":"s3://e/3.jpg"}`, action: commands.DisputeAddEvidence},
		{path: "investigate", action: commands.DisputeInvestigate},
		{path: "escalate", action: commands.DisputeEscalate},
		{path: "site-visit", body: `{"scheduled_at":"2026-03-05T10:00:00Z","inspector":"inspector-7"}`,
			action: commands.DisputeScheduleSiteVisit},
		{path: "site-visit/complete", action: commands.DisputeCompleteSiteVisit},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			ts := newTestServer(t, Options{})
			ts.disputeAction.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.DisputeActionCommand) bool {
				return cmd.Action() == tc.action
			})).Return(nil).Once()

			rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/dispute/"+tc.path,
				newActor(t, kernel.RoleOperator), tc.body)

			assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
			ts.disputeAction.AssertExpectations(t)
		})
	}
}

func TestResolveDispute_SiteVisitIncomplete(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.resolveDispute.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewSiteVisitIncompleteError("d-1", false)).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/dispute/resolve",
		newActor(t, kernel.RoleOperator), `{"outcome":"release","resolution":"goods fine"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "site_visit_incomplete", decodeError(t, rec).Code)
}

func TestAdminOverridesRequireJustification(t *testing.T) {
	ts := newTestServer(t, Options{})
	operator := newActor(t, kernel.RoleOperator)
	orderID := kernel.NewUUID().String()

	rec := ts.do(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/delivery/unlock", operator, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/dispute/force-resolve", operator,
		`{"outcome":"refund"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.unlockPin.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	ts.resolveDispute.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestAdminOverrides(t *testing.T) {
	ts := newTestServer(t, Options{})
	operator := newActor(t, kernel.RoleOperator)
	orderID := kernel.NewUUID().String()
	ts.unlockPin.On("Handle", mock.Anything, mock.AnythingOfType("commands.UnlockPinCommand")).Return(nil).Once()
	ts.resolveDispute.On("Handle", mock.Anything, mock.AnythingOfType("commands.ResolveDisputeCommand")).Return(nil).Once()

	rec := ts.do(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/delivery/unlock", operator,
		`{"justification":"buyer verified by phone"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/dispute/force-resolve", operator,
		`{"outcome":"refund","justification":"inspector unavailable for two weeks"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	ts.unlockPin.AssertExpectations(t)
	ts.resolveDispute.AssertExpectations(t)
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid transition", errs.NewInvalidTransitionError("order", "pending", "delivered"), http.StatusConflict, "invalid_transition"},
		{"escrow conflict", errs.NewEscrowStateConflictError("release", "pending", "delivered", "held"), http.StatusConflict, "escrow_state_conflict"},
		{"pin mismatch", errs.NewPinMismatchError(1), http.StatusUnprocessableEntity, "pin_mismatch"},
		{"pin exhausted", errs.NewPinAttemptsExhaustedError(3), http.StatusLocked, "pin_attempts_exhausted"},
		{"dispute blocks", errs.NewDisputeBlocksSettlementError("release", "d-1"), http.StatusConflict, "dispute_blocks_settlement"},
		{"site visit", errs.NewSiteVisitIncompleteError("d-1", true), http.StatusConflict, "site_visit_incomplete"},
		{"not permitted", errs.NewActorNotPermittedError("a", "buyer", "accept"), http.StatusForbidden, "actor_not_permitted"},
		{"not found", errs.NewObjectNotFoundError("order", "x"), http.StatusNotFound, "not_found"},
		{"already exists", errs.NewObjectAlreadyExistsError("dispute", "x"), http.StatusConflict, "already_exists"},
		{"validation", errors.Join(errs.NewValueIsRequiredError("a"), errs.NewValueIsInvalidError("b")), http.StatusBadRequest, "validation_failed"},
		{"wrapped", fmt.Errorf("handle: %w", errs.NewPinMismatchError(2)), http.StatusUnprocessableEntity, "pin_mismatch"},
		{"unknown", errors.New("connection reset by peer"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := errorStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.transition.On("Handle", mock.Anything, mock.Anything).
		Return(errors.New("pq: password authentication failed for user marketplace")).Once()

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/accept",
		newActor(t, kernel.RoleSupplier), "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
