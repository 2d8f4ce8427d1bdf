package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
)

// Shift is one cash-drawer session a staff member is accountable for.
// Counters are mutated only by sale attribution while the shift is open;
// a closed shift is immutable.
type Shift struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID          uuid.UUID         `gorm:"column:staff_id;type:uuid;not null;index" json:"staff_id"`
	StaffName        string            `gorm:"column:staff_name;type:text;not null" json:"staff_name"`
	BusinessUnitID   uuid.UUID         `gorm:"column:business_unit_id;type:uuid;not null;index" json:"business_unit_id"`
	Status           enums.ShiftStatus `gorm:"column:status;type:shift_status;not null;default:'open'" json:"status"`
	OpeningCashCents int64             `gorm:"column:opening_cash_cents;not null" json:"opening_cash_cents"`
	ClosingCashCents *int64            `gorm:"column:closing_cash_cents" json:"closing_cash_cents,omitempty"`
	TotalSalesCents  int64             `gorm:"column:total_sales_cents;not null;default:0" json:"total_sales_cents"`
	CashSalesCents   int64             `gorm:"column:cash_sales_cents;not null;default:0" json:"cash_sales_cents"`
	OpenedAt         time.Time         `gorm:"column:opened_at;not null" json:"opened_at"`
	ClosedAt         *time.Time        `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
