package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
)

// CreditLedgerEntry is one immutable line in a customer's credit ledger.
// Entries are append-only; corrections are expressed as new entries, never
// as updates. BalanceAfterCents captures the signed running balance at the
// moment this entry was written.
type CreditLedgerEntry struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID        uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index:ix_credit_ledger_customer_ts,priority:1" json:"customer_id"`
	BusinessUnitID    uuid.UUID             `gorm:"column:business_unit_id;type:uuid;not null" json:"business_unit_id"`
	Type              enums.LedgerEntryType `gorm:"column:type;type:credit_ledger_entry_type;not null" json:"type"`
	AmountCents       int64                 `gorm:"column:amount_cents;not null" json:"amount_cents"`
	BalanceAfterCents int64                 `gorm:"column:balance_after_cents;not null" json:"balance_after_cents"`
	RelatedSaleID     *uuid.UUID            `gorm:"column:related_sale_id;type:uuid;uniqueIndex:ux_credit_ledger_related_sale" json:"related_sale_id,omitempty"`
	CreatedBy         uuid.UUID             `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime;index:ix_credit_ledger_customer_ts,priority:2" json:"created_at"`
}
