package alerts

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/shifts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
)

func setupAlertsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:alerts_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS alerts (
  id TEXT PRIMARY KEY,
  business_unit_id TEXT NOT NULL,
  type TEXT NOT NULL,
  staff_name TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS shifts (
  id TEXT PRIMARY KEY,
  staff_id TEXT NOT NULL,
  staff_name TEXT NOT NULL,
  business_unit_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  opening_cash_cents INTEGER NOT NULL,
  closing_cash_cents INTEGER,
  total_sales_cents INTEGER NOT NULL DEFAULT 0,
  cash_sales_cents INTEGER NOT NULL DEFAULT 0,
  opened_at DATETIME,
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_shifts_staff_open
  ON shifts (staff_id) WHERE status = 'open';`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newAlertsService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func sampleSummary(unitID uuid.UUID, discrepancyCents int64) shifts.ShiftSummary {
	expected := int64(15000)
	return shifts.ShiftSummary{
		ShiftID:           uuid.New(),
		StaffID:           uuid.New(),
		StaffName:         "Maria",
		BusinessUnitID:    unitID,
		ExpectedCashCents: expected,
		ActualCashCents:   expected + discrepancyCents,
		DiscrepancyCents:  discrepancyCents,
		ClosedAt:          time.Now().UTC(),
	}
}

func TestShiftClosedBalancedIsIgnored(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)
	unitID := uuid.New()

	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, 0)))

	var count int64
	require.NoError(t, db.Model(&models.Alert{}).
		Where("business_unit_id = ?", unitID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestShiftClosedShortDrawer(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)
	unitID := uuid.New()

	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, -500)))

	var alert models.Alert
	require.NoError(t, db.Where("business_unit_id = ?", unitID).First(&alert).Error)
	assert.Equal(t, enums.AlertTypeShiftDiscrepancy, alert.Type)
	assert.Equal(t, "Maria", alert.StaffName)
	assert.Contains(t, alert.Message, "short by 5.00")
	assert.Contains(t, alert.Message, "expected 150.00")
	assert.Contains(t, alert.Message, "counted 145.00")
	assert.Nil(t, alert.ReadAt)
}

func TestShiftClosedOverDrawer(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)
	unitID := uuid.New()

	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, 200)))

	var alert models.Alert
	require.NoError(t, db.Where("business_unit_id = ?", unitID).First(&alert).Error)
	assert.Contains(t, alert.Message, "over by 2.00")
}

// Closing a discrepant shift through the shift service must land an alert in
// the inbox without any extra wiring in the caller.
func TestCloseShiftEmitsAlert(t *testing.T) {
	db := setupAlertsTestDB(t)
	alertSvc := newAlertsService(t, db)

	logg := logger.New(logger.Options{ServiceName: "alerts-test", Output: io.Discard})
	shiftSvc, err := shifts.NewService(gormTxRunner{db: db}, shifts.NewRepository(db), alertSvc, logg, nil)
	require.NoError(t, err)

	unitID := uuid.New()
	shift, err := shiftSvc.Open(context.Background(), shifts.OpenShiftInput{
		StaffID:          uuid.New(),
		StaffName:        "Maria",
		BusinessUnitID:   unitID,
		OpeningCashCents: 10000,
	})
	require.NoError(t, err)

	_, err = shiftSvc.Close(context.Background(), shift.ID, 9500)
	require.NoError(t, err)

	result, err := alertSvc.List(context.Background(), ListParams{BusinessUnitID: unitID})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Contains(t, result.Items[0].Message, shift.ID.String())
}

func TestListUnreadOnlyAndMarkRead(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)
	unitID := uuid.New()

	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, -100)))
	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, -200)))

	unread, err := svc.List(context.Background(), ListParams{BusinessUnitID: unitID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread.Items, 2)

	require.NoError(t, svc.MarkRead(context.Background(), unitID, unread.Items[0].ID))

	unread, err = svc.List(context.Background(), ListParams{BusinessUnitID: unitID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 1)

	all, err := svc.List(context.Background(), ListParams{BusinessUnitID: unitID})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestListPagination(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)
	unitID := uuid.New()

	for _, cents := range []int64{-100, -200, -300} {
		require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, cents)))
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.List(context.Background(), ListParams{BusinessUnitID: unitID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	second, err := svc.List(context.Background(), ListParams{BusinessUnitID: unitID, Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.Cursor)

	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)
	assert.NotEqual(t, first.Items[1].ID, second.Items[0].ID)
}

func TestMarkReadNotFound(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestMarkAllRead(t *testing.T) {
	db := setupAlertsTestDB(t)
	svc := newAlertsService(t, db)
	unitID := uuid.New()

	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, -100)))
	require.NoError(t, svc.ShiftClosed(context.Background(), sampleSummary(unitID, 300)))

	count, err := svc.MarkAllRead(context.Background(), unitID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := svc.List(context.Background(), ListParams{BusinessUnitID: unitID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}
