package shifts

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/metrics"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

const openShiftConstraint = "ux_shifts_staff_open"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DiscrepancyNotifier receives the reconciliation result after a shift
// closes. Delivery is best effort; a failed notification never fails the
// close.
type DiscrepancyNotifier interface {
	ShiftClosed(ctx context.Context, summary ShiftSummary) error
}

// OpenShiftInput carries everything needed to open a drawer.
type OpenShiftInput struct {
	StaffID          uuid.UUID
	StaffName        string
	BusinessUnitID   uuid.UUID
	OpeningCashCents int64
}

// HistoryParams selects a page of past shifts for a business unit.
type HistoryParams struct {
	BusinessUnitID uuid.UUID
	StaffID        uuid.UUID
	Status         enums.ShiftStatus
	Limit          int
	Cursor         string
}

// HistoryResult is one page of shifts.
type HistoryResult struct {
	Shifts     []models.Shift
	NextCursor string
}

// Service exposes the shift lifecycle.
type Service interface {
	Open(ctx context.Context, input OpenShiftInput) (*models.Shift, error)
	Current(ctx context.Context, staffID uuid.UUID) (*models.Shift, error)
	Close(ctx context.Context, shiftID uuid.UUID, actualCashCents int64) (*ShiftSummary, error)
	History(ctx context.Context, params HistoryParams) (*HistoryResult, error)
}

type service struct {
	tx       txRunner
	repo     Repository
	notifier DiscrepancyNotifier
	logg     *logger.Logger
	metrics  *metrics.TillMetrics
	now      func() time.Time
}

// NewService builds the shift service and validates its dependencies. The
// notifier may be nil when discrepancy alerts are not wired.
func NewService(tx txRunner, repo Repository, notifier DiscrepancyNotifier, logg *logger.Logger, tillMetrics *metrics.TillMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("shifts: tx runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("shifts: repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("shifts: logger is required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		notifier: notifier,
		logg:     logg,
		metrics:  tillMetrics,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Open(ctx context.Context, input OpenShiftInput) (*models.Shift, error) {
	if input.StaffID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "staff id is required")
	}
	if input.StaffName == "" {
		return nil, errors.New(errors.CodeValidation, "staff name is required")
	}
	if input.BusinessUnitID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "business unit id is required")
	}
	if input.OpeningCashCents < 0 {
		return nil, errors.New(errors.CodeValidation, "opening cash must not be negative")
	}

	now := s.now()
	shift := &models.Shift{
		ID:               uuid.New(),
		StaffID:          input.StaffID,
		StaffName:        input.StaffName,
		BusinessUnitID:   input.BusinessUnitID,
		Status:           enums.ShiftStatusOpen,
		OpeningCashCents: input.OpeningCashCents,
		OpenedAt:         now,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindOpenByStaff(ctx, input.StaffID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failed to check for an open shift")
		}
		if existing != nil {
			return errors.New(errors.CodeConflict, "staff member already has an open shift").WithDetails(map[string]any{
				"shift_id": existing.ID.String(),
			})
		}
		if err := repo.Create(ctx, shift); err != nil {
			// The partial unique index closes the check-then-insert race.
			if db.IsUniqueViolation(err, openShiftConstraint) {
				return errors.New(errors.CodeConflict, "staff member already has an open shift")
			}
			return errors.Wrap(errors.CodeInternal, err, "failed to open shift")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncShiftOpened()
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"shift_id": shift.ID.String(),
		"staff_id": shift.StaffID.String(),
	}), "shift opened")
	return shift, nil
}

// Current returns the caller's open shift, or nil when none is open.
func (s *service) Current(ctx context.Context, staffID uuid.UUID) (*models.Shift, error) {
	if staffID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "staff id is required")
	}
	shift, err := s.repo.FindOpenByStaff(ctx, staffID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to load open shift")
	}
	return shift, nil
}

func (s *service) Close(ctx context.Context, shiftID uuid.UUID, actualCashCents int64) (*ShiftSummary, error) {
	if shiftID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "shift id is required")
	}
	if actualCashCents < 0 {
		return nil, errors.New(errors.CodeValidation, "actual cash must not be negative")
	}

	closedAt := s.now()
	var summary ShiftSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shift, err := repo.FindByID(ctx, shiftID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "shift not found")
			}
			return errors.Wrap(errors.CodeInternal, err, "failed to load shift")
		}
		if shift.Status == enums.ShiftStatusClosed {
			return errors.New(errors.CodeStateConflict, "shift is already closed")
		}

		rows, err := repo.Close(ctx, shiftID, actualCashCents, closedAt)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failed to close shift")
		}
		if rows == 0 {
			return errors.New(errors.CodeStateConflict, "shift is already closed")
		}

		// Reload for the counters: a sale may have landed between the
		// read above and the guarded update.
		closed, err := repo.FindByID(ctx, shiftID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failed to reload closed shift")
		}
		summary = Summarize(*closed, actualCashCents, closedAt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveShiftClosed(summary.DiscrepancyCents)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"shift_id":          summary.ShiftID.String(),
		"discrepancy_cents": summary.DiscrepancyCents,
	})
	s.logg.Info(logCtx, "shift closed")

	if s.notifier != nil && !summary.Balanced() {
		if err := s.notifier.ShiftClosed(ctx, summary); err != nil {
			s.logg.Error(logCtx, "failed to emit discrepancy alert", err)
		}
	}
	return &summary, nil
}

func (s *service) History(ctx context.Context, params HistoryParams) (*HistoryResult, error) {
	if params.BusinessUnitID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "business unit id is required")
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, errors.New(errors.CodeValidation, "shift status is invalid")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	shifts, next, err := s.repo.ListByBusinessUnit(ctx, listShiftsParams{
		BusinessUnitID: params.BusinessUnitID,
		StaffID:        params.StaffID,
		Status:         params.Status,
		Limit:          params.Limit,
		Cursor:         cursor,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to list shifts")
	}

	result := &HistoryResult{Shifts: shifts}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
