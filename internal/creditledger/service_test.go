package creditledger

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

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
)

// Each test gets its own named in-memory database; VerifyAll sweeps every
// customer, so leftovers from a sibling test would skew its counts.
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	customers := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  business_unit_id TEXT NOT NULL,
  name TEXT NOT NULL,
  current_balance_cents INTEGER NOT NULL DEFAULT 0,
  credit_limit_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	entries := `
CREATE TABLE IF NOT EXISTS credit_ledger_entries (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  business_unit_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  balance_after_cents INTEGER NOT NULL,
  related_sale_id TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME
);`
	relatedSaleIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_credit_ledger_related_sale
  ON credit_ledger_entries (related_sale_id) WHERE related_sale_id IS NOT NULL;`
	require.NoError(t, db.Exec(customers).Error)
	require.NoError(t, db.Exec(entries).Error)
	require.NoError(t, db.Exec(relatedSaleIndex).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newLedgerService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "ledger-test", Output: io.Discard})
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), logg, nil)
	require.NoError(t, err)
	return svc
}

func newCustomer(t *testing.T, db *gorm.DB, balanceCents, limitCents int64) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		ID:                  uuid.New(),
		BusinessUnitID:      uuid.New(),
		Name:                "Ana",
		CurrentBalanceCents: balanceCents,
		CreditLimitCents:    limitCents,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func reloadCustomer(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Customer {
	t.Helper()

	var customer models.Customer
	require.NoError(t, db.Where("id = ?", id).First(&customer).Error)
	return &customer
}

func TestPostEntrySaleThenRepayment(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)
	staffID := uuid.New()

	sale, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  customer.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 3000,
		CreatedBy:   staffID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), sale.BalanceAfterCents)
	assert.Equal(t, int64(3000), reloadCustomer(t, db, customer.ID).CurrentBalanceCents)

	repayment, err := svc.Repayment(context.Background(), customer.ID, 2000, staffID)
	require.NoError(t, err)
	assert.Equal(t, enums.LedgerEntryTypeRepayment, repayment.Type)
	assert.Equal(t, int64(1000), repayment.BalanceAfterCents)
	assert.Equal(t, int64(1000), reloadCustomer(t, db, customer.ID).CurrentBalanceCents)
}

func TestPostEntryAmountValidation(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)

	for _, amount := range []int64{0, -500} {
		_, err := svc.PostEntry(context.Background(), PostEntryInput{
			CustomerID:  customer.ID,
			Type:        enums.LedgerEntryTypeSale,
			AmountCents: amount,
			CreatedBy:   uuid.New(),
		})
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestRepaymentMayOverpay(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 1000, 0)

	entry, err := svc.Repayment(context.Background(), customer.ID, 2500, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(-1500), entry.BalanceAfterCents)
	assert.Equal(t, int64(-1500), reloadCustomer(t, db, customer.ID).CurrentBalanceCents)
}

func TestPostEntryCustomerNotFound(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	_, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  uuid.New(),
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 100,
		CreatedBy:   uuid.New(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestPostEntryRelatedSaleDedup(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)
	saleID := uuid.New()

	input := PostEntryInput{
		CustomerID:    customer.ID,
		Type:          enums.LedgerEntryTypeSale,
		AmountCents:   2000,
		RelatedSaleID: &saleID,
		CreatedBy:     uuid.New(),
	}

	first, err := svc.PostEntry(context.Background(), input)
	require.NoError(t, err)

	second, err := svc.PostEntry(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2000), reloadCustomer(t, db, customer.ID).CurrentBalanceCents)

	var count int64
	require.NoError(t, db.Model(&models.CreditLedgerEntry{}).
		Where("customer_id = ?", customer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// blindSaleDedupRepo misses the first lookups for a related sale,
// mimicking a second register posting before this one's dedup check sees
// the winning entry.
type blindSaleDedupRepo struct {
	Repository
	misses *int
}

func (r blindSaleDedupRepo) WithTx(tx *gorm.DB) Repository {
	return blindSaleDedupRepo{Repository: r.Repository.WithTx(tx), misses: r.misses}
}

func (r blindSaleDedupRepo) FindEntryByRelatedSale(ctx context.Context, saleID uuid.UUID) (*models.CreditLedgerEntry, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, nil
	}
	return r.Repository.FindEntryByRelatedSale(ctx, saleID)
}

func TestPostEntryRelatedSaleRaceIsNoOp(t *testing.T) {
	db := setupLedgerTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "ledger-test", Output: io.Discard})
	misses := 2
	svc, err := NewService(gormTxRunner{db: db}, blindSaleDedupRepo{Repository: NewRepository(db), misses: &misses}, logg, nil)
	require.NoError(t, err)
	customer := newCustomer(t, db, 0, 0)
	saleID := uuid.New()

	input := PostEntryInput{
		CustomerID:    customer.ID,
		Type:          enums.LedgerEntryTypeSale,
		AmountCents:   2000,
		RelatedSaleID: &saleID,
		CreatedBy:     uuid.New(),
	}

	first, err := svc.PostEntry(context.Background(), input)
	require.NoError(t, err)

	// Both dedup lookups were blinded, so the repeat lands on the
	// unique index and must still resolve to the winning entry.
	second, err := svc.PostEntry(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2000), reloadCustomer(t, db, customer.ID).CurrentBalanceCents)

	var count int64
	require.NoError(t, db.Model(&models.CreditLedgerEntry{}).
		Where("customer_id = ?", customer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPostEntryOverLimitStillPosts(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 5000)

	entry, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  customer.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 7500,
		CreatedBy:   uuid.New(),
	})
	require.NoError(t, err, "over-limit sales warn, they do not block")
	assert.Equal(t, int64(7500), entry.BalanceAfterCents)
}

func TestLedgerPagination(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)
	staffID := uuid.New()

	amounts := []int64{1000, 2000, 3000}
	for _, amount := range amounts {
		_, err := svc.PostEntry(context.Background(), PostEntryInput{
			CustomerID:  customer.ID,
			Type:        enums.LedgerEntryTypeSale,
			AmountCents: amount,
			CreatedBy:   staffID,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.Ledger(context.Background(), LedgerParams{
		CustomerID: customer.ID,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, int64(1000), first.Entries[0].AmountCents, "statement is oldest first")
	assert.Equal(t, int64(6000), first.Customer.CurrentBalanceCents)

	second, err := svc.Ledger(context.Background(), LedgerParams{
		CustomerID: customer.ID,
		Limit:      2,
		Cursor:     first.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, int64(3000), second.Entries[0].AmountCents)
	assert.Empty(t, second.NextCursor)
}

func TestLedgerCustomerNotFound(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	_, err := svc.Ledger(context.Background(), LedgerParams{CustomerID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestVerifyCustomerClean(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)
	staffID := uuid.New()

	_, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  customer.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 3000,
		CreatedBy:   staffID,
	})
	require.NoError(t, err)
	_, err = svc.Repayment(context.Background(), customer.ID, 1000, staffID)
	require.NoError(t, err)

	require.NoError(t, svc.VerifyCustomer(context.Background(), customer.ID))
}

func TestVerifyCustomerDetectsTamperedEntry(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)

	entry, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  customer.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 3000,
		CreatedBy:   uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.CreditLedgerEntry{}).
		Where("id = ?", entry.ID).
		UpdateColumn("balance_after_cents", 9999).Error)

	err = svc.VerifyCustomer(context.Background(), customer.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConsistency, appErr.Code())
}

func TestVerifyCustomerDetectsDivergedBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	customer := newCustomer(t, db, 0, 0)

	_, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  customer.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 3000,
		CreatedBy:   uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		UpdateColumn("current_balance_cents", 100).Error)

	err = svc.VerifyCustomer(context.Background(), customer.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConsistency, appErr.Code())
}

func TestVerifyAllCollectsFailures(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	staffID := uuid.New()

	clean := newCustomer(t, db, 0, 0)
	_, err := svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  clean.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 1000,
		CreatedBy:   staffID,
	})
	require.NoError(t, err)

	corrupted := newCustomer(t, db, 0, 0)
	_, err = svc.PostEntry(context.Background(), PostEntryInput{
		CustomerID:  corrupted.ID,
		Type:        enums.LedgerEntryTypeSale,
		AmountCents: 1000,
		CreatedBy:   staffID,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Customer{}).
		Where("id = ?", corrupted.ID).
		UpdateColumn("current_balance_cents", 42).Error)

	report, err := svc.VerifyAll(context.Background(), 1)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.CustomersChecked, 2)
	assert.Equal(t, 1, report.CustomersFailed)
	require.Error(t, report.Err)
	appErr := pkgerrors.As(report.Err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConsistency, appErr.Code())
}
