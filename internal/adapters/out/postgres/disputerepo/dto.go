// Package disputerepo persists disputes. At most one dispute per order may be
// open at a time; the partial unique index ux_disputes_open_per_order enforces it.
package disputerepo

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DisputeDTO is the row shape of the disputes table.
type DisputeDTO struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID               uuid.UUID `gorm:"type:uuid;index"`
	Reason                string
	Description           string
	Evidence              pq.StringArray `gorm:"type:text[]"`
	OpenedBy              string
	OpenedByID            uuid.UUID `gorm:"type:uuid"`
	OpenedAt              time.Time
	Status                string
	SiteVisit             SiteVisitDTO `gorm:"embedded;embeddedPrefix:site_visit_"`
	UpdatedAt             time.Time    `gorm:"autoUpdateTime:false"`
	Outcome               string
	Resolution            string
	ResolvedAt            *time.Time
	ResolvedBy            *uuid.UUID `gorm:"type:uuid"`
	OverrideJustification string
}

func (DisputeDTO) TableName() string {
	return "disputes"
}

// SiteVisitDTO holds the inspection sub-state.
type SiteVisitDTO struct {
	Required    bool
	Forced      bool
	ScheduledAt *time.Time
	Inspector   string
	Completed   bool
	CompletedAt *time.Time
}

func fromDomain(aggregate *dispute.Dispute) DisputeDTO {
	s := aggregate.Snapshot()

	var resolvedBy *uuid.UUID
	if s.ResolvedBy != nil {
		raw := s.ResolvedBy.Bytes()
		resolvedBy = &raw
	}

	evidence := pq.StringArray(s.Evidence)
	if evidence == nil {
		evidence = pq.StringArray{}
	}

	return DisputeDTO{
		ID:          s.ID.Bytes(),
		OrderID:     s.OrderID.Bytes(),
		Reason:      string(s.Reason),
		Description: s.Description,
		Evidence:    evidence,
		OpenedBy:    s.OpenedBy.String(),
		OpenedByID:  s.OpenedByID.Bytes(),
		OpenedAt:    s.OpenedAt,
		Status:      s.Status.String(),
		SiteVisit: SiteVisitDTO{
			Required:    s.SiteVisit.Required,
			Forced:      s.SiteVisit.Forced,
			ScheduledAt: s.SiteVisit.ScheduledAt,
			Inspector:   s.SiteVisit.Inspector,
			Completed:   s.SiteVisit.Completed,
			CompletedAt: s.SiteVisit.CompletedAt,
		},
		UpdatedAt:             s.UpdatedAt,
		Outcome:               s.Outcome.String(),
		Resolution:            s.Resolution,
		ResolvedAt:            s.ResolvedAt,
		ResolvedBy:            resolvedBy,
		OverrideJustification: s.OverrideJustification,
	}
}

func toDomain(dto DisputeDTO) (*dispute.Dispute, error) {
	id, idErr := kernel.UUIDFromGoogle(dto.ID)
	orderID, orderErr := kernel.UUIDFromGoogle(dto.OrderID)
	openedByID, openerErr := kernel.UUIDFromGoogle(dto.OpenedByID)
	openedBy, roleErr := kernel.RoleFromString(dto.OpenedBy)
	status, statusErr := dispute.StatusFromString(dto.Status)
	outcome, outcomeErr := dispute.OutcomeFromString(dto.Outcome)
	reason := dispute.Reason(dto.Reason)

	var resolvedBy *kernel.UUID
	var resolverErr error
	if dto.ResolvedBy != nil {
		var rid kernel.UUID
		rid, resolverErr = kernel.UUIDFromGoogle(*dto.ResolvedBy)
		resolvedBy = &rid
	}

	if err := errors.Join(
		idErr, orderErr, openerErr, roleErr, statusErr, outcomeErr, reason.Validate(), resolverErr,
	); err != nil {
		return nil, err
	}

	return dispute.RestoreDispute(dispute.Snapshot{
		ID:          id,
		OrderID:     orderID,
		Reason:      reason,
		Description: dto.Description,
		Evidence:    []string(dto.Evidence),
		OpenedBy:    openedBy,
		OpenedByID:  openedByID,
		OpenedAt:    dto.OpenedAt,
		Status:      status,
		SiteVisit: dispute.SiteVisit{
			Required:    dto.SiteVisit.Required,
			Forced:      dto.SiteVisit.Forced,
			ScheduledAt: dto.SiteVisit.ScheduledAt,
			Inspector:   dto.SiteVisit.Inspector,
			Completed:   dto.SiteVisit.Completed,
			CompletedAt: dto.SiteVisit.CompletedAt,
		},
		UpdatedAt:             dto.UpdatedAt,
		Outcome:               outcome,
		Resolution:            dto.Resolution,
		ResolvedAt:            dto.ResolvedAt,
		ResolvedBy:            resolvedBy,
		OverrideJustification: dto.OverrideJustification,
	}), nil
}
