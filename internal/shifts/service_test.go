package shifts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
)

func setupShiftsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	shifts := `
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
);`
	openIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_shifts_staff_open
  ON shifts (staff_id) WHERE status = 'open';`
	require.NoError(t, db.Exec(shifts).Error)
	require.NoError(t, db.Exec(openIndex).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type captureNotifier struct {
	summaries []ShiftSummary
	err       error
}

func (n *captureNotifier) ShiftClosed(ctx context.Context, summary ShiftSummary) error {
	if n.err != nil {
		return n.err
	}
	n.summaries = append(n.summaries, summary)
	return nil
}

func newTestService(t *testing.T, db *gorm.DB, notifier DiscrepancyNotifier) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "shifts-test", Output: io.Discard})
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), notifier, logg, nil)
	require.NoError(t, err)
	return svc
}

func openTestShift(t *testing.T, svc Service, openingCents int64) *struct {
	StaffID        uuid.UUID
	BusinessUnitID uuid.UUID
	ShiftID        uuid.UUID
} {
	t.Helper()

	staffID := uuid.New()
	unitID := uuid.New()
	shift, err := svc.Open(context.Background(), OpenShiftInput{
		StaffID:          staffID,
		StaffName:        "Maria",
		BusinessUnitID:   unitID,
		OpeningCashCents: openingCents,
	})
	require.NoError(t, err)
	return &struct {
		StaffID        uuid.UUID
		BusinessUnitID uuid.UUID
		ShiftID        uuid.UUID
	}{StaffID: staffID, BusinessUnitID: unitID, ShiftID: shift.ID}
}

func TestOpenShift(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)

	staffID := uuid.New()
	shift, err := svc.Open(context.Background(), OpenShiftInput{
		StaffID:          staffID,
		StaffName:        "Maria",
		BusinessUnitID:   uuid.New(),
		OpeningCashCents: 10000,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShiftStatusOpen, shift.Status)
	assert.Equal(t, int64(10000), shift.OpeningCashCents)
	assert.Zero(t, shift.TotalSalesCents)

	current, err := svc.Current(context.Background(), staffID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, shift.ID, current.ID)
}

func TestOpenShiftRejectsSecondOpen(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)
	fixture := openTestShift(t, svc, 5000)

	_, err := svc.Open(context.Background(), OpenShiftInput{
		StaffID:          fixture.StaffID,
		StaffName:        "Maria",
		BusinessUnitID:   fixture.BusinessUnitID,
		OpeningCashCents: 2000,
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

// blindOpenCheckRepo never sees an existing open shift, mimicking a
// second register racing past the check before the first insert lands.
type blindOpenCheckRepo struct {
	Repository
}

func (r blindOpenCheckRepo) WithTx(tx *gorm.DB) Repository {
	return blindOpenCheckRepo{Repository: r.Repository.WithTx(tx)}
}

func (r blindOpenCheckRepo) FindOpenByStaff(context.Context, uuid.UUID) (*models.Shift, error) {
	return nil, nil
}

func TestOpenShiftRaceFallsBackToConstraint(t *testing.T) {
	db := setupShiftsTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "shifts-test", Output: io.Discard})
	svc, err := NewService(gormTxRunner{db: db}, blindOpenCheckRepo{Repository: NewRepository(db)}, nil, logg, nil)
	require.NoError(t, err)

	input := OpenShiftInput{
		StaffID:          uuid.New(),
		StaffName:        "Maria",
		BusinessUnitID:   uuid.New(),
		OpeningCashCents: 1000,
	}

	_, err = svc.Open(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestOpenShiftValidation(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)

	_, err := svc.Open(context.Background(), OpenShiftInput{
		StaffID:          uuid.New(),
		StaffName:        "Maria",
		BusinessUnitID:   uuid.New(),
		OpeningCashCents: -1,
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCurrentWithoutOpenShift(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)

	shift, err := svc.Current(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, shift)
}

func TestCloseShiftBalanced(t *testing.T) {
	db := setupShiftsTestDB(t)
	notifier := &captureNotifier{}
	svc := newTestService(t, db, notifier)
	fixture := openTestShift(t, svc, 10000)

	summary, err := svc.Close(context.Background(), fixture.ShiftID, 10000)
	require.NoError(t, err)

	assert.True(t, summary.Balanced())
	assert.Equal(t, int64(10000), summary.ExpectedCashCents)
	assert.Zero(t, summary.DiscrepancyCents)
	assert.Empty(t, notifier.summaries, "balanced close should not notify")

	current, err := svc.Current(context.Background(), fixture.StaffID)
	require.NoError(t, err)
	assert.Nil(t, current, "closed shift should no longer be current")
}

func TestCloseShiftDiscrepancyNotifies(t *testing.T) {
	db := setupShiftsTestDB(t)
	notifier := &captureNotifier{}
	svc := newTestService(t, db, notifier)
	fixture := openTestShift(t, svc, 10000)

	summary, err := svc.Close(context.Background(), fixture.ShiftID, 9500)
	require.NoError(t, err)

	assert.Equal(t, int64(-500), summary.DiscrepancyCents)
	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, fixture.ShiftID, notifier.summaries[0].ShiftID)
}

func TestCloseShiftNotifierFailureDoesNotFailClose(t *testing.T) {
	db := setupShiftsTestDB(t)
	notifier := &captureNotifier{err: assert.AnError}
	svc := newTestService(t, db, notifier)
	fixture := openTestShift(t, svc, 10000)

	summary, err := svc.Close(context.Background(), fixture.ShiftID, 9000)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), summary.DiscrepancyCents)
}

func TestCloseShiftTwice(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)
	fixture := openTestShift(t, svc, 10000)

	_, err := svc.Close(context.Background(), fixture.ShiftID, 10000)
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), fixture.ShiftID, 10000)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCloseShiftNotFound(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)

	_, err := svc.Close(context.Background(), uuid.New(), 10000)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestCloseShiftNegativeCount(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)
	fixture := openTestShift(t, svc, 10000)

	_, err := svc.Close(context.Background(), fixture.ShiftID, -1)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestHistoryPagination(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)
	repo := NewRepository(db)
	unitID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		shift := &models.Shift{
			ID:               uuid.New(),
			StaffID:          uuid.New(),
			StaffName:        "Maria",
			BusinessUnitID:   unitID,
			Status:           enums.ShiftStatusClosed,
			OpeningCashCents: 1000,
			OpenedAt:         base.Add(time.Duration(i) * time.Minute),
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), shift))
	}

	first, err := svc.History(context.Background(), HistoryParams{
		BusinessUnitID: unitID,
		Limit:          2,
	})
	require.NoError(t, err)
	require.Len(t, first.Shifts, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.History(context.Background(), HistoryParams{
		BusinessUnitID: unitID,
		Limit:          2,
		Cursor:         first.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, second.Shifts, 1)
	assert.Empty(t, second.NextCursor)

	assert.True(t, first.Shifts[0].CreatedAt.After(second.Shifts[0].CreatedAt) ||
		first.Shifts[0].CreatedAt.Equal(second.Shifts[0].CreatedAt))
}

func TestHistoryStatusFilter(t *testing.T) {
	db := setupShiftsTestDB(t)
	svc := newTestService(t, db, nil)
	fixture := openTestShift(t, svc, 10000)

	open, err := svc.History(context.Background(), HistoryParams{
		BusinessUnitID: fixture.BusinessUnitID,
		Status:         enums.ShiftStatusOpen,
	})
	require.NoError(t, err)
	require.Len(t, open.Shifts, 1)

	closed, err := svc.History(context.Background(), HistoryParams{
		BusinessUnitID: fixture.BusinessUnitID,
		Status:         enums.ShiftStatusClosed,
	})
	require.NoError(t, err)
	assert.Empty(t, closed.Shifts)
}
