// Package queries contains read-only operations over the order read model.
// Handlers read through sqlx and never load aggregates, so they take no row locks.
package queries

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DisputeView is the read shape of one dispute.
type DisputeView struct {
	ID          kernel.UUID
	Reason      dispute.Reason
	Description string
	Evidence    []string
	OpenedBy    kernel.Role
	OpenedAt    time.Time
	Status      dispute.Status
	SiteVisit   dispute.SiteVisit
	Outcome     dispute.Outcome
	Resolution  string
	ResolvedAt  *time.Time
}

const disputeColumns = `
	id,
	reason,
	description,
	evidence,
	opened_by,
	opened_at,
	status,
	site_visit_required,
	site_visit_forced,
	site_visit_scheduled_at,
	site_visit_inspector,
	site_visit_completed,
	site_visit_completed_at,
	outcome,
	resolution,
	resolved_at`

type disputeRow struct {
	ID                   uuid.UUID      `db:"id"`
	Reason               string         `db:"reason"`
	Description          string         `db:"description"`
	Evidence             pq.StringArray `db:"evidence"`
	OpenedBy             string         `db:"opened_by"`
	OpenedAt             time.Time      `db:"opened_at"`
	Status               string         `db:"status"`
	SiteVisitRequired    bool           `db:"site_visit_required"`
	SiteVisitForced      bool           `db:"site_visit_forced"`
	SiteVisitScheduledAt *time.Time     `db:"site_visit_scheduled_at"`
	SiteVisitInspector   string         `db:"site_visit_inspector"`
	SiteVisitCompleted   bool           `db:"site_visit_completed"`
	SiteVisitCompletedAt *time.Time     `db:"site_visit_completed_at"`
	Outcome              string         `db:"outcome"`
	Resolution           string         `db:"resolution"`
	ResolvedAt           *time.Time     `db:"resolved_at"`
}

func (r disputeRow) toView() (DisputeView, error) {
	id, idErr := kernel.UUIDFromGoogle(r.ID)
	openedBy, roleErr := kernel.RoleFromString(r.OpenedBy)
	status, statusErr := dispute.StatusFromString(r.Status)
	outcome, outcomeErr := dispute.OutcomeFromString(r.Outcome)
	if err := errors.Join(idErr, roleErr, statusErr, outcomeErr); err != nil {
		return DisputeView{}, err
	}

	evidence := []string(r.Evidence)
	if evidence == nil {
		evidence = []string{}
	}

	return DisputeView{
		ID:          id,
		Reason:      dispute.Reason(r.Reason),
		Description: r.Description,
		Evidence:    evidence,
		OpenedBy:    openedBy,
		OpenedAt:    r.OpenedAt,
		Status:      status,
		SiteVisit: dispute.SiteVisit{
			Required:    r.SiteVisitRequired,
			Forced:      r.SiteVisitForced,
			ScheduledAt: r.SiteVisitScheduledAt,
			Inspector:   r.SiteVisitInspector,
			Completed:   r.SiteVisitCompleted,
			CompletedAt: r.SiteVisitCompletedAt,
		},
		Outcome:    outcome,
		Resolution: r.Resolution,
		ResolvedAt: r.ResolvedAt,
	}, nil
}

// partiesRow carries the order parties used for read access checks.
type partiesRow struct {
	BuyerID    uuid.UUID `db:"buyer_id"`
	SupplierID uuid.UUID `db:"supplier_id"`
}

// canView reports whether the actor may read an order: its buyer, its
// supplier, or platform staff.
func canView(actor kernel.Actor, buyerID, supplierID uuid.UUID) bool {
	switch actor.Role() {
	case kernel.RoleOperator, kernel.RoleSystem:
		return true
	case kernel.RoleBuyer:
		return actor.ID().Bytes() == buyerID
	case kernel.RoleSupplier:
		return actor.ID().Bytes() == supplierID
	default:
		return false
	}
}

func notPermitted(actor kernel.Actor, action string) error {
	return errs.NewActorNotPermittedError(actor.ID().String(), actor.Role().String(), action)
}
