// Package escrowrepo persists escrow records, one per order.
package escrowrepo

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/escrow"
	"marketplace/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EscrowDTO is the row shape of the escrows table.
type EscrowDTO struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;uniqueIndex"`
	State        string
	Amount       decimal.Decimal `gorm:"type:numeric(14,2)"`
	RefundReason string
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
	HeldAt       *time.Time
	ReleasedAt   *time.Time
	RefundedAt   *time.Time
}

func (EscrowDTO) TableName() string {
	return "escrows"
}

func fromDomain(aggregate *escrow.Escrow) EscrowDTO {
	s := aggregate.Snapshot()
	return EscrowDTO{
		ID:           s.ID.Bytes(),
		OrderID:      s.OrderID.Bytes(),
		State:        s.State.String(),
		Amount:       s.Amount.Amount(),
		RefundReason: s.RefundReason,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		HeldAt:       s.HeldAt,
		ReleasedAt:   s.ReleasedAt,
		RefundedAt:   s.RefundedAt,
	}
}

func toDomain(dto EscrowDTO) (*escrow.Escrow, error) {
	id, idErr := kernel.UUIDFromGoogle(dto.ID)
	orderID, orderErr := kernel.UUIDFromGoogle(dto.OrderID)
	state, stateErr := escrow.StateFromString(dto.State)
	amount, amountErr := kernel.NewMoney(dto.Amount)

	if err := errors.Join(idErr, orderErr, stateErr, amountErr); err != nil {
		return nil, err
	}

	return escrow.RestoreEscrow(escrow.Snapshot{
		ID:           id,
		OrderID:      orderID,
		State:        state,
		Amount:       amount,
		RefundReason: dto.RefundReason,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
		HeldAt:       dto.HeldAt,
		ReleasedAt:   dto.ReleasedAt,
		RefundedAt:   dto.RefundedAt,
	}), nil
}
