package queries_test

import (
	"database/sql/driver"
	"testing"
	"time"

	"marketplace/internal/core/domain/model/kernel"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func newActor(t *testing.T, role kernel.Role) kernel.Actor {
	t.Helper()
	actor, err := kernel.NewActor(kernel.NewUUID(), role)
	require.NoError(t, err)
	return actor
}

var orderViewColumns = []string{
	"id", "number", "buyer_id", "supplier_id", "subtotal", "delivery_fee", "total", "status",
	"window_start", "window_end", "cancellation_reason",
	"delivery_method", "delivery_attempts_remaining", "delivery_max_attempts", "delivery_locked",
	"delivery_verified_at", "delivery_evidence_ref", "delivery_uploaded_at",
	"created_at", "updated_at", "confirmed_at", "delivered_at", "completed_at", "cancelled_at", "disputed_at",
	"escrow_state", "escrow_amount", "escrow_refund_reason", "escrow_held_at", "escrow_released_at", "escrow_refunded_at",
}

// confirmedOrderRow is a 200.00 PIN order accepted by the supplier.
func confirmedOrderRow(id, buyerID, supplierID kernel.UUID) []driver.Value {
	return []driver.Value{
		id.String(), "ORD-000042", buyerID.String(), supplierID.String(), "180.00", "20.00", "200.00", "confirmed",
		baseTime.Add(24 * time.Hour), baseTime.Add(28 * time.Hour), "",
		"pin", int64(3), int64(3), false,
		nil, "", nil,
		baseTime, baseTime.Add(time.Hour), baseTime.Add(time.Hour), nil, nil, nil, nil,
		"held", "200.00", "", baseTime.Add(time.Hour), nil, nil,
	}
}

var disputeColumns = []string{
	"id", "reason", "description", "evidence", "opened_by", "opened_at", "status",
	"site_visit_required", "site_visit_forced", "site_visit_scheduled_at", "site_visit_inspector",
	"site_visit_completed", "site_visit_completed_at", "outcome", "resolution", "resolved_at",
}

func openDisputeRow(id kernel.UUID, openedAt time.Time) []driver.Value {
	return []driver.Value{
		id.String(), "damaged_goods", "half of the bricks are broken", "{s3://evidence/bricks.jpg}", "buyer", openedAt,
		"opened", true, false, nil, "", false, nil, "", "", nil,
	}
}

func resolvedDisputeRow(id kernel.UUID, openedAt time.Time) []driver.Value {
	resolvedAt := openedAt.Add(48 * time.Hour)
	return []driver.Value{
		id.String(), "missing_items", "two pallets of cement are missing", "{}", "supplier", openedAt,
		"resolved", false, false, nil, "", false, nil, "release", "pallets found at the gate", resolvedAt,
	}
}
