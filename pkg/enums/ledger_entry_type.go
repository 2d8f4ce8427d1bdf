package enums

import "fmt"

// LedgerEntryType maps to the credit_ledger_entry_type enum in Postgres.
// A sale raises the customer's balance, a repayment lowers it.
type LedgerEntryType string

const (
	LedgerEntryTypeSale      LedgerEntryType = "sale"
	LedgerEntryTypeRepayment LedgerEntryType = "repayment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeSale,
	LedgerEntryTypeRepayment,
}

// IsValid reports whether the value matches the canonical ledger entry enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Sign returns +1 for balance-raising entries and -1 for repayments.
func (t LedgerEntryType) Sign() int64 {
	if t == LedgerEntryTypeRepayment {
		return -1
	}
	return 1
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
