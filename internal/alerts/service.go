package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/shifts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

// ListParams configures pagination for the alerts inbox.
type ListParams struct {
	BusinessUnitID uuid.UUID
	Limit          int
	Cursor         string
	UnreadOnly     bool
}

// ListResult wraps returned alerts and the cursor for the next page.
type ListResult struct {
	Items  []models.Alert `json:"items"`
	Cursor string         `json:"cursor"`
}

// Service defines alert emission and inbox operations.
type Service interface {
	ShiftClosed(ctx context.Context, summary shifts.ShiftSummary) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, businessUnitID, alertID uuid.UUID) error
	MarkAllRead(ctx context.Context, businessUnitID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// NewService wires alert dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alerts: repository is required")
	}
	return &service{repo: repo}, nil
}

// ShiftClosed raises a discrepancy alert for a reconciled shift. Balanced
// shifts are ignored.
func (s *service) ShiftClosed(ctx context.Context, summary shifts.ShiftSummary) error {
	if summary.Balanced() {
		return nil
	}

	alert := &models.Alert{
		ID:             uuid.New(),
		BusinessUnitID: summary.BusinessUnitID,
		Type:           enums.AlertTypeShiftDiscrepancy,
		StaffName:      summary.StaffName,
		Message:        discrepancyMessage(summary),
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "create discrepancy alert")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.BusinessUnitID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "business unit id is required")
	}

	query := listAlertsParams{
		BusinessUnitID: params.BusinessUnitID,
		Limit:          params.Limit,
		UnreadOnly:     params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list alerts")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, businessUnitID, alertID uuid.UUID) error {
	if businessUnitID == uuid.Nil {
		return errors.New(errors.CodeValidation, "business unit id is required")
	}
	if alertID == uuid.Nil {
		return errors.New(errors.CodeValidation, "alert id is required")
	}

	result, err := s.repo.MarkRead(ctx, businessUnitID, alertID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "mark alert read")
	}
	if !result.Found {
		return errors.New(errors.CodeNotFound, "alert not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, businessUnitID uuid.UUID) (int64, error) {
	if businessUnitID == uuid.Nil {
		return 0, errors.New(errors.CodeValidation, "business unit id is required")
	}

	count, err := s.repo.MarkAllRead(ctx, businessUnitID, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(errors.CodeDependency, err, "mark alerts read")
	}
	return count, nil
}

// discrepancyMessage renders the drawer variance in whole currency units for
// the inbox, e.g. "drawer short by 5.00".
func discrepancyMessage(summary shifts.ShiftSummary) string {
	amount := decimal.NewFromInt(summary.DiscrepancyCents).
		Abs().
		Div(decimal.NewFromInt(100)).
		StringFixed(2)
	direction := "over"
	if summary.DiscrepancyCents < 0 {
		direction = "short"
	}
	return fmt.Sprintf(
		"%s closed shift %s with the drawer %s by %s (expected %s, counted %s)",
		summary.StaffName,
		summary.ShiftID,
		direction,
		amount,
		decimal.NewFromInt(summary.ExpectedCashCents).Div(decimal.NewFromInt(100)).StringFixed(2),
		decimal.NewFromInt(summary.ActualCashCents).Div(decimal.NewFromInt(100)).StringFixed(2),
	)
}
