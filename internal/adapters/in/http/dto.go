package http

import (
	"time"

	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/kernel"
)

// Request bodies. Amounts travel as decimal strings so no precision is lost.

type PlaceOrderRequest struct {
	SupplierID  string    `json:"supplier_id" validate:"required,uuid"`
	Subtotal    string    `json:"subtotal" validate:"required,numeric"`
	DeliveryFee string    `json:"delivery_fee" validate:"required,numeric"`
	WindowStart time.Time `json:"window_start" validate:"required"`
	WindowEnd   time.Time `json:"window_end" validate:"required,gtfield=WindowStart"`
}

type RepriceOrderRequest struct {
	Subtotal    string `json:"subtotal" validate:"required,numeric"`
	DeliveryFee string `json:"delivery_fee" validate:"required,numeric"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type MarkDeliveredRequest struct {
	EvidenceRef string `json:"evidence_ref" validate:"max=1024"`
}

type VerifyPinRequest struct {
	Pin string `json:"pin" validate:"required,max=16"`
}

// IssueRequest is shared by issue reports and delivery rejections.
type IssueRequest struct {
	Reason         string   `json:"reason" validate:"required"`
	Description    string   `json:"description"`
	Evidence       []string `json:"evidence" validate:"omitempty,dive,required,max=1024"`
	ForceSiteVisit bool     `json:"force_site_visit"`
}

type EvidenceRequest struct {
	Ref string `json:"ref" validate:"required,max=1024"`
}

type ScheduleSiteVisitRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Inspector   string    `json:"inspector" validate:"required,max=200"`
}

type ResolveDisputeRequest struct {
	Outcome    string `json:"outcome" validate:"required,oneof=release refund"`
	Resolution string `json:"resolution" validate:"max=2000"`
}

type ForceResolveRequest struct {
	Outcome       string `json:"outcome" validate:"required,oneof=release refund"`
	Resolution    string `json:"resolution" validate:"max=2000"`
	Justification string `json:"justification" validate:"required,max=2000"`
}

type UnlockPinRequest struct {
	Justification string `json:"justification" validate:"required,max=2000"`
}

// Responses.

type PlaceOrderResponse struct {
	ID string `json:"id"`
}

type DeliveryResponse struct {
	Method            string     `json:"method"`
	AttemptsRemaining int        `json:"attempts_remaining"`
	MaxAttempts       int        `json:"max_attempts"`
	Locked            bool       `json:"locked"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	EvidenceRef       string     `json:"evidence_ref,omitempty"`
	UploadedAt        *time.Time `json:"uploaded_at,omitempty"`
}

type EscrowResponse struct {
	State        string     `json:"state"`
	Amount       string     `json:"amount"`
	RefundReason string     `json:"refund_reason,omitempty"`
	HeldAt       *time.Time `json:"held_at,omitempty"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
}

type SiteVisitResponse struct {
	Required    bool       `json:"required"`
	Forced      bool       `json:"forced"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Inspector   string     `json:"inspector,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type DisputeResponse struct {
	ID          string            `json:"id"`
	Reason      string            `json:"reason"`
	Description string            `json:"description"`
	Evidence    []string          `json:"evidence"`
	OpenedBy    string            `json:"opened_by"`
	OpenedAt    time.Time         `json:"opened_at"`
	Status      string            `json:"status"`
	SiteVisit   SiteVisitResponse `json:"site_visit"`
	Outcome     string            `json:"outcome,omitempty"`
	Resolution  string            `json:"resolution,omitempty"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

type OrderResponse struct {
	ID                 string           `json:"id"`
	Number             string           `json:"number"`
	BuyerID            string           `json:"buyer_id"`
	SupplierID         string           `json:"supplier_id"`
	Subtotal           string           `json:"subtotal"`
	DeliveryFee        string           `json:"delivery_fee"`
	Total              string           `json:"total"`
	Status             string           `json:"status"`
	WindowStart        time.Time        `json:"window_start"`
	WindowEnd          time.Time        `json:"window_end"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	Delivery           DeliveryResponse `json:"delivery"`
	Escrow             EscrowResponse   `json:"escrow"`
	ActiveDispute      *DisputeResponse `json:"active_dispute,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	ConfirmedAt        *time.Time       `json:"confirmed_at,omitempty"`
	DeliveredAt        *time.Time       `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	DisputedAt         *time.Time       `json:"disputed_at,omitempty"`
}

type DeliveryPinResponse struct {
	Pin               string `json:"pin"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	Locked            bool   `json:"locked"`
}

func toOrderResponse(v queries.GetOrderQueryResponse) OrderResponse {
	resp := OrderResponse{
		ID:                 v.ID.String(),
		Number:             v.Number,
		BuyerID:            v.BuyerID.String(),
		SupplierID:         v.SupplierID.String(),
		Subtotal:           moneyString(v.Subtotal),
		DeliveryFee:        moneyString(v.DeliveryFee),
		Total:              moneyString(v.Total),
		Status:             v.Status.String(),
		WindowStart:        v.WindowStart,
		WindowEnd:          v.WindowEnd,
		CancellationReason: v.CancellationReason,
		Delivery: DeliveryResponse{
			Method:            v.Delivery.Method.String(),
			AttemptsRemaining: v.Delivery.AttemptsRemaining,
			MaxAttempts:       v.Delivery.MaxAttempts,
			Locked:            v.Delivery.Locked,
			VerifiedAt:        v.Delivery.VerifiedAt,
			EvidenceRef:       v.Delivery.EvidenceRef,
			UploadedAt:        v.Delivery.UploadedAt,
		},
		Escrow: EscrowResponse{
			State:        v.Escrow.State.String(),
			Amount:       moneyString(v.Escrow.Amount),
			RefundReason: v.Escrow.RefundReason,
			HeldAt:       v.Escrow.HeldAt,
			ReleasedAt:   v.Escrow.ReleasedAt,
			RefundedAt:   v.Escrow.RefundedAt,
		},
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		ConfirmedAt: v.ConfirmedAt,
		DeliveredAt: v.DeliveredAt,
		CompletedAt: v.CompletedAt,
		CancelledAt: v.CancelledAt,
		DisputedAt:  v.DisputedAt,
	}
	if v.ActiveDispute != nil {
		d := toDisputeResponse(*v.ActiveDispute)
		resp.ActiveDispute = &d
	}
	return resp
}

func toDisputeResponse(v queries.DisputeView) DisputeResponse {
	evidence := v.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	return DisputeResponse{
		ID:          v.ID.String(),
		Reason:      string(v.Reason),
		Description: v.Description,
		Evidence:    evidence,
		OpenedBy:    v.OpenedBy.String(),
		OpenedAt:    v.OpenedAt,
		Status:      v.Status.String(),
		SiteVisit: SiteVisitResponse{
			Required:    v.SiteVisit.Required,
			Forced:      v.SiteVisit.Forced,
			ScheduledAt: v.SiteVisit.ScheduledAt,
			Inspector:   v.SiteVisit.Inspector,
			Completed:   v.SiteVisit.Completed,
			CompletedAt: v.SiteVisit.CompletedAt,
		},
		Outcome:    v.Outcome.String(),
		Resolution: v.Resolution,
		ResolvedAt: v.ResolvedAt,
	}
}

// moneyString renders amounts with the fixed two fraction digits.
func moneyString(m kernel.Money) string {
	return m.Amount().StringFixed(kernel.MoneyScale)
}
