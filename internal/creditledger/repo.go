package creditledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

// Repository manages persistence for ledger entries and the customer
// balance projection.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.CreditLedgerEntry) (bool, error)
	FindEntryByRelatedSale(ctx context.Context, saleID uuid.UUID) (*models.CreditLedgerEntry, error)
	FindCustomerByID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	FindCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	UpdateCustomerBalance(ctx context.Context, customerID uuid.UUID, balanceCents int64) error
	ListEntries(ctx context.Context, params listEntriesParams) ([]models.CreditLedgerEntry, *pagination.Cursor, error)
	ListAllEntries(ctx context.Context, customerID uuid.UUID) ([]models.CreditLedgerEntry, error)
	ListCustomerIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listEntriesParams struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateEntry appends a ledger entry. A concurrent post for the same sale
// is skipped instead of erroring so the transaction stays usable; the
// returned bool reports whether the row was inserted.
func (r *repository) CreateEntry(ctx context.Context, entry *models.CreditLedgerEntry) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "related_sale_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "related_sale_id IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindEntryByRelatedSale(ctx context.Context, saleID uuid.UUID) (*models.CreditLedgerEntry, error) {
	var entry models.CreditLedgerEntry
	err := r.db.WithContext(ctx).
		Where("related_sale_id = ?", saleID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindCustomerByID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ?", customerID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindCustomerForUpdate locks the customer row so concurrent postings for the
// same customer serialize. sqlite has no row locks; its single-writer model
// already serializes the transaction, so the clause is postgres-only.
func (r *repository) FindCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var customer models.Customer
	if err := query.Where("id = ?", customerID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) UpdateCustomerBalance(ctx context.Context, customerID uuid.UUID, balanceCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("current_balance_cents", balanceCents).Error
}

func (r *repository) ListEntries(ctx context.Context, params listEntriesParams) ([]models.CreditLedgerEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.CreditLedgerEntry{}).
		Where("customer_id = ?", params.CustomerID)
	if params.Cursor != nil {
		// Anchor on the cursor row so both sides of the comparison use
		// the driver's stored timestamp representation. Ledger entries
		// are append-only, so the anchor row always exists.
		query = query.Where(
			"(created_at, id) > (SELECT created_at, id FROM credit_ledger_entries WHERE id = ?)",
			params.Cursor.ID,
		)
	}

	var entries []models.CreditLedgerEntry
	if err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		entries = entries[:normalized]
		last := entries[normalized-1]
		return entries, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return entries, nil, nil
}

func (r *repository) ListAllEntries(ctx context.Context, customerID uuid.UUID) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListCustomerIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 200
	}
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}

	var ids []uuid.UUID
	if err := query.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
