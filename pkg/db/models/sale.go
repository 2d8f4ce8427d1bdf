package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
)

// Sale records a completed checkout transaction as attributed to a shift.
// The id is supplied by the checkout flow, so a retried attribution of the
// same sale collides on the primary key and becomes a no-op.
type Sale struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ShiftID        uuid.UUID           `gorm:"column:shift_id;type:uuid;not null;index" json:"shift_id"`
	StaffID        uuid.UUID           `gorm:"column:staff_id;type:uuid;not null" json:"staff_id"`
	BusinessUnitID uuid.UUID           `gorm:"column:business_unit_id;type:uuid;not null" json:"business_unit_id"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null" json:"payment_method"`
	TotalCents     int64               `gorm:"column:total_cents;not null" json:"total_cents"`
	CustomerID     *uuid.UUID          `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
