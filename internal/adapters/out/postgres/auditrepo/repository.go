// Package auditrepo appends operator override records. Entries are never
// updated or deleted.
package auditrepo

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/audit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryDTO is the row shape of the audit_entries table.
type EntryDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;index"`
	Kind          string
	OperatorID    uuid.UUID `gorm:"type:uuid"`
	Justification string
	RecordedAt    time.Time
}

func (EntryDTO) TableName() string {
	return "audit_entries"
}

// GormAuditRepository implements AuditRepository using GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Add(ctx context.Context, entry *audit.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto := EntryDTO{
		ID:            entry.ID().Bytes(),
		OrderID:       entry.OrderID().Bytes(),
		Kind:          string(entry.Kind()),
		OperatorID:    entry.OperatorID().Bytes(),
		Justification: entry.Justification(),
		RecordedAt:    entry.RecordedAt(),
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}
