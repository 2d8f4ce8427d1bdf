package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer carries the slice of the customer record the till engine needs.
// CurrentBalanceCents is a materialized projection of the credit ledger and
// must always equal the balance_after_cents of the newest ledger entry.
type Customer struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessUnitID      uuid.UUID `gorm:"column:business_unit_id;type:uuid;not null;index" json:"business_unit_id"`
	Name                string    `gorm:"column:name;type:text;not null" json:"name"`
	CurrentBalanceCents int64     `gorm:"column:current_balance_cents;not null;default:0" json:"current_balance_cents"`
	CreditLimitCents    int64     `gorm:"column:credit_limit_cents;not null;default:0" json:"credit_limit_cents"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
