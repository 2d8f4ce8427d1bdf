package shifts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
)

// ShiftSummary is the reconciliation result returned when a shift closes.
type ShiftSummary struct {
	ShiftID           uuid.UUID       `json:"shift_id"`
	StaffID           uuid.UUID       `json:"staff_id"`
	StaffName         string          `json:"staff_name"`
	BusinessUnitID    uuid.UUID       `json:"business_unit_id"`
	OpeningCashCents  int64           `json:"opening_cash_cents"`
	TotalSalesCents   int64           `json:"total_sales_cents"`
	CashSalesCents    int64           `json:"cash_sales_cents"`
	ExpectedCashCents int64           `json:"expected_cash_cents"`
	ActualCashCents   int64           `json:"actual_cash_cents"`
	DiscrepancyCents  int64           `json:"discrepancy_cents"`
	DiscrepancyPct    decimal.Decimal `json:"discrepancy_pct"`
	OpenedAt          time.Time       `json:"opened_at"`
	ClosedAt          time.Time       `json:"closed_at"`
}

// Balanced reports whether the drawer count matched to the cent.
func (s ShiftSummary) Balanced() bool {
	return s.DiscrepancyCents == 0
}

// ExpectedCashCents is the drawer amount the cash sales imply. Mobile and
// credit sales never touch the drawer.
func ExpectedCashCents(openingCents, cashSalesCents int64) int64 {
	return openingCents + cashSalesCents
}

// DiscrepancyCents is positive when the drawer is over, negative when short.
func DiscrepancyCents(actualCents, expectedCents int64) int64 {
	return actualCents - expectedCents
}

// Summarize reconciles a closed shift against the counted drawer amount.
func Summarize(shift models.Shift, actualCashCents int64, closedAt time.Time) ShiftSummary {
	expected := ExpectedCashCents(shift.OpeningCashCents, shift.CashSalesCents)
	discrepancy := DiscrepancyCents(actualCashCents, expected)
	return ShiftSummary{
		ShiftID:           shift.ID,
		StaffID:           shift.StaffID,
		StaffName:         shift.StaffName,
		BusinessUnitID:    shift.BusinessUnitID,
		OpeningCashCents:  shift.OpeningCashCents,
		TotalSalesCents:   shift.TotalSalesCents,
		CashSalesCents:    shift.CashSalesCents,
		ExpectedCashCents: expected,
		ActualCashCents:   actualCashCents,
		DiscrepancyCents:  discrepancy,
		DiscrepancyPct:    discrepancyPct(discrepancy, expected),
		OpenedAt:          shift.OpenedAt,
		ClosedAt:          closedAt,
	}
}

// discrepancyPct is the discrepancy as a percentage of the expected drawer,
// rounded to two decimal places. A zero expected drawer yields zero rather
// than a division error.
func discrepancyPct(discrepancyCents, expectedCents int64) decimal.Decimal {
	if expectedCents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(discrepancyCents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(expectedCents)).
		Round(2)
}
