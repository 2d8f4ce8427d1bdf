package shifts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

// Repository manages shift persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shift *models.Shift) error
	FindByID(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error)
	FindOpenByStaff(ctx context.Context, staffID uuid.UUID) (*models.Shift, error)
	Close(ctx context.Context, shiftID uuid.UUID, closingCashCents int64, closedAt time.Time) (int64, error)
	IncrementCounters(ctx context.Context, shiftID uuid.UUID, totalDeltaCents, cashDeltaCents int64) (int64, error)
	ListByBusinessUnit(ctx context.Context, params listShiftsParams) ([]models.Shift, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a shift repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listShiftsParams struct {
	BusinessUnitID uuid.UUID
	StaffID        uuid.UUID
	Status         enums.ShiftStatus
	Limit          int
	Cursor         *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shift *models.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *repository) FindByID(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Where("id = ?", shiftID).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *repository) FindOpenByStaff(ctx context.Context, staffID uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND status = ?", staffID, enums.ShiftStatusOpen).
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// Close stamps the closing fields only while the shift is still open. A zero
// row count means another request closed it first.
func (r *repository) Close(ctx context.Context, shiftID uuid.UUID, closingCashCents int64, closedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ? AND status = ?", shiftID, enums.ShiftStatusOpen).
		UpdateColumns(map[string]any{
			"status":             enums.ShiftStatusClosed,
			"closing_cash_cents": closingCashCents,
			"closed_at":          closedAt,
			"updated_at":         closedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementCounters advances the running totals in place. The guard on
// status keeps a racing close from losing a sale.
func (r *repository) IncrementCounters(ctx context.Context, shiftID uuid.UUID, totalDeltaCents, cashDeltaCents int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ? AND status = ?", shiftID, enums.ShiftStatusOpen).
		UpdateColumns(map[string]any{
			"total_sales_cents": gorm.Expr("total_sales_cents + ?", totalDeltaCents),
			"cash_sales_cents":  gorm.Expr("cash_sales_cents + ?", cashDeltaCents),
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) ListByBusinessUnit(ctx context.Context, params listShiftsParams) ([]models.Shift, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("business_unit_id = ?", params.BusinessUnitID)
	if params.StaffID != uuid.Nil {
		query = query.Where("staff_id = ?", params.StaffID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		// Anchor on the cursor row so both sides of the comparison use
		// the driver's stored timestamp representation. Shifts are never
		// deleted, so the anchor row always exists.
		query = query.Where(
			"(created_at, id) < (SELECT created_at, id FROM shifts WHERE id = ?)",
			params.Cursor.ID,
		)
	}

	var shifts []models.Shift
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&shifts).Error; err != nil {
		return nil, nil, err
	}

	if len(shifts) > normalized {
		shifts = shifts[:normalized]
		last := shifts[normalized-1]
		return shifts, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return shifts, nil, nil
}
