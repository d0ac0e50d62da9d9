// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The delivery value object is embedded into the orders table under the delivery_ prefix.
type OrderDTO struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number             string          `gorm:"uniqueIndex"`
	BuyerID            uuid.UUID       `gorm:"type:uuid;index"`
	SupplierID         uuid.UUID       `gorm:"type:uuid;index"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(14,2)"`
	DeliveryFee        decimal.Decimal `gorm:"type:numeric(14,2)"`
	Total              decimal.Decimal `gorm:"type:numeric(14,2)"`
	Status             string
	WindowStart        time.Time
	WindowEnd          time.Time
	CancellationReason string
	Delivery           DeliveryDTO `gorm:"embedded;embeddedPrefix:delivery_"`
	CreatedAt          time.Time   `gorm:"autoCreateTime:false"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime:false"`
	ConfirmedAt        *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	DisputedAt         *time.Time
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// DeliveryDTO holds the confirmation method state of an order.
type DeliveryDTO struct {
	Method            string
	Pin               string
	AttemptsRemaining int
	MaxAttempts       int
	Locked            bool
	VerifiedAt        *time.Time
	EvidenceRef       string
	UploadedAt        *time.Time
	UnlockCount       int
}

func fromDomain(aggregate *order.Order) OrderDTO {
	s := aggregate.Snapshot()
	return OrderDTO{
		ID:                 s.ID.Bytes(),
		Number:             s.Number,
		BuyerID:            s.BuyerID.Bytes(),
		SupplierID:         s.SupplierID.Bytes(),
		Subtotal:           s.Subtotal.Amount(),
		DeliveryFee:        s.DeliveryFee.Amount(),
		Total:              s.Total.Amount(),
		Status:             s.Status.String(),
		WindowStart:        s.WindowStart,
		WindowEnd:          s.WindowEnd,
		CancellationReason: s.CancellationReason,
		Delivery: DeliveryDTO{
			Method:            s.Delivery.Method.String(),
			Pin:               s.Delivery.Pin,
			AttemptsRemaining: s.Delivery.AttemptsRemaining,
			MaxAttempts:       s.Delivery.MaxAttempts,
			Locked:            s.Delivery.Locked,
			VerifiedAt:        s.Delivery.VerifiedAt,
			EvidenceRef:       s.Delivery.EvidenceRef,
			UploadedAt:        s.Delivery.UploadedAt,
			UnlockCount:       s.Delivery.UnlockCount,
		},
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		ConfirmedAt: s.ConfirmedAt,
		DeliveredAt: s.DeliveredAt,
		CompletedAt: s.CompletedAt,
		CancelledAt: s.CancelledAt,
		DisputedAt:  s.DisputedAt,
	}
}

// toDomain converts a database DTO to an order aggregate using RestoreOrder.
// Every parse error is joined so a corrupted row reports all of its bad columns.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, idErr := kernel.UUIDFromGoogle(dto.ID)
	buyerID, buyerErr := kernel.UUIDFromGoogle(dto.BuyerID)
	supplierID, supplierErr := kernel.UUIDFromGoogle(dto.SupplierID)
	subtotal, subtotalErr := kernel.NewMoney(dto.Subtotal)
	fee, feeErr := kernel.NewMoney(dto.DeliveryFee)
	total, totalErr := kernel.NewMoney(dto.Total)
	status, statusErr := order.StatusFromString(dto.Status)
	method, methodErr := order.MethodFromString(dto.Delivery.Method)

	if err := errors.Join(idErr, buyerErr, supplierErr, subtotalErr, feeErr, totalErr, statusErr, methodErr); err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:                 id,
		Number:             dto.Number,
		BuyerID:            buyerID,
		SupplierID:         supplierID,
		Subtotal:           subtotal,
		DeliveryFee:        fee,
		Total:              total,
		Status:             status,
		WindowStart:        dto.WindowStart,
		WindowEnd:          dto.WindowEnd,
		CancellationReason: dto.CancellationReason,
		Delivery: order.DeliverySnapshot{
			Method:            method,
			Pin:               dto.Delivery.Pin,
			AttemptsRemaining: dto.Delivery.AttemptsRemaining,
			MaxAttempts:       dto.Delivery.MaxAttempts,
			Locked:            dto.Delivery.Locked,
			VerifiedAt:        dto.Delivery.VerifiedAt,
			EvidenceRef:       dto.Delivery.EvidenceRef,
			UploadedAt:        dto.Delivery.UploadedAt,
			UnlockCount:       dto.Delivery.UnlockCount,
		},
		CreatedAt:   dto.CreatedAt,
		UpdatedAt:   dto.UpdatedAt,
		ConfirmedAt: dto.ConfirmedAt,
		DeliveredAt: dto.DeliveredAt,
		CompletedAt: dto.CompletedAt,
		CancelledAt: dto.CancelledAt,
		DisputedAt:  dto.DisputedAt,
	}), nil
}
