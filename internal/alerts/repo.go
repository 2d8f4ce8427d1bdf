package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

// Repository manages alert persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, params listAlertsParams) ([]models.Alert, *pagination.Cursor, error)
	MarkRead(ctx context.Context, businessUnitID, alertID uuid.UUID, now time.Time) (alertMarkResult, error)
	MarkAllRead(ctx context.Context, businessUnitID uuid.UUID, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an alert repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listAlertsParams struct {
	BusinessUnitID uuid.UUID
	Limit          int
	Cursor         *pagination.Cursor
	UnreadOnly     bool
}

type alertMarkResult struct {
	Found       bool
	AlreadyRead bool
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) List(ctx context.Context, params listAlertsParams) ([]models.Alert, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("business_unit_id = ?", params.BusinessUnitID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		// Anchor on the cursor row so both sides of the comparison use
		// the driver's stored timestamp representation.
		query = query.Where(
			"(created_at, id) < (SELECT created_at, id FROM alerts WHERE id = ?)",
			params.Cursor.ID,
		)
	}

	var alerts []models.Alert
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, nil, err
	}

	if len(alerts) > normalized {
		alerts = alerts[:normalized]
		last := alerts[normalized-1]
		return alerts, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return alerts, nil, nil
}

func (r *repository) MarkRead(ctx context.Context, businessUnitID, alertID uuid.UUID, now time.Time) (alertMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND business_unit_id = ? AND read_at IS NULL", alertID, businessUnitID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return alertMarkResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return alertMarkResult{Found: true}, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND business_unit_id = ?", alertID, businessUnitID).
		Count(&count).Error
	if err != nil {
		return alertMarkResult{}, err
	}
	if count == 0 {
		return alertMarkResult{}, nil
	}
	return alertMarkResult{Found: true, AlreadyRead: true}, nil
}

func (r *repository) MarkAllRead(ctx context.Context, businessUnitID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("business_unit_id = ? AND read_at IS NULL", businessUnitID).
		UpdateColumn("read_at", now)
	return result.RowsAffected, result.Error
}
