package sales

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/creditledger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/shifts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
)

// errAlreadyAttributed aborts the transaction when the sale id has been seen
// before, so the duplicate insert is rolled back and the original sale is
// returned untouched.
var errAlreadyAttributed = stderrors.New("sale already attributed")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledgerPoster posts a credit entry inside the attribution transaction.
type ledgerPoster interface {
	PostEntryTx(ctx context.Context, tx *gorm.DB, input creditledger.PostEntryInput) (*models.CreditLedgerEntry, error)
}

// AttributeSaleInput is a completed sale as reported by the register. SaleID
// comes from the caller and doubles as the retry deduplication key.
type AttributeSaleInput struct {
	SaleID        uuid.UUID
	StaffID       uuid.UUID
	PaymentMethod enums.PaymentMethod
	TotalCents    int64
	CustomerID    *uuid.UUID
}

// Service attributes completed sales to open shifts.
type Service interface {
	Attribute(ctx context.Context, input AttributeSaleInput) (*models.Sale, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	shifts shifts.Repository
	ledger ledgerPoster
	logg   *logger.Logger
}

// NewService builds the sale attribution service and validates its
// dependencies.
func NewService(tx txRunner, repo Repository, shiftsRepo shifts.Repository, ledger ledgerPoster, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("sales: tx runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales: repository is required")
	}
	if shiftsRepo == nil {
		return nil, fmt.Errorf("sales: shifts repository is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("sales: ledger poster is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("sales: logger is required")
	}
	return &service{tx: tx, repo: repo, shifts: shiftsRepo, ledger: ledger, logg: logg}, nil
}

// Attribute records a sale against the staff member's open shift, advances
// the shift counters, and for credit sales posts the matching ledger entry,
// all in one transaction. Replaying the same sale id is a no-op that returns
// the original sale.
func (s *service) Attribute(ctx context.Context, input AttributeSaleInput) (*models.Sale, error) {
	if err := validateAttribute(input); err != nil {
		return nil, err
	}

	// Replays must return the original sale even if the shift has since
	// closed, so the dedup check runs before the open-shift lookup.
	if existing, err := s.repo.FindByID(ctx, input.SaleID); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to check for existing sale")
	} else if existing != nil {
		s.logg.Info(s.logg.WithField(ctx, "sale_id", input.SaleID.String()), "duplicate sale attribution ignored")
		return existing, nil
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shiftsRepo := s.shifts.WithTx(tx)
		shift, err := shiftsRepo.FindOpenByStaff(ctx, input.StaffID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failed to load open shift")
		}
		if shift == nil {
			return errors.New(errors.CodeStateConflict, "no open shift for staff member")
		}

		created := &models.Sale{
			ID:             input.SaleID,
			ShiftID:        shift.ID,
			StaffID:        input.StaffID,
			BusinessUnitID: shift.BusinessUnitID,
			PaymentMethod:  input.PaymentMethod,
			TotalCents:     input.TotalCents,
			CustomerID:     input.CustomerID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, created); err != nil {
			if db.IsUniqueViolation(err, "sales_pkey") {
				return errAlreadyAttributed
			}
			return errors.Wrap(errors.CodeInternal, err, "failed to record sale")
		}

		cashDelta := int64(0)
		if input.PaymentMethod == enums.PaymentMethodCash {
			cashDelta = input.TotalCents
		}
		rows, err := shiftsRepo.IncrementCounters(ctx, shift.ID, input.TotalCents, cashDelta)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failed to update shift totals")
		}
		if rows == 0 {
			// The shift closed between the lookup and the update; roll
			// the whole attribution back.
			return errors.New(errors.CodeStateConflict, "shift closed while attributing sale")
		}

		if input.PaymentMethod == enums.PaymentMethodCredit {
			saleID := input.SaleID
			if _, err := s.ledger.PostEntryTx(ctx, tx, creditledger.PostEntryInput{
				CustomerID:    *input.CustomerID,
				Type:          enums.LedgerEntryTypeSale,
				AmountCents:   input.TotalCents,
				RelatedSaleID: &saleID,
				CreatedBy:     input.StaffID,
			}); err != nil {
				return err
			}
		}

		sale = created
		return nil
	})
	if stderrors.Is(err, errAlreadyAttributed) {
		existing, findErr := s.repo.FindByID(ctx, input.SaleID)
		if findErr != nil {
			return nil, errors.Wrap(errors.CodeInternal, findErr, "failed to load attributed sale")
		}
		if existing == nil {
			return nil, errors.New(errors.CodeInternal, "attributed sale disappeared")
		}
		s.logg.Info(s.logg.WithField(ctx, "sale_id", input.SaleID.String()), "duplicate sale attribution ignored")
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func validateAttribute(input AttributeSaleInput) error {
	if input.SaleID == uuid.Nil {
		return errors.New(errors.CodeValidation, "sale id is required")
	}
	if input.StaffID == uuid.Nil {
		return errors.New(errors.CodeValidation, "staff id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return errors.New(errors.CodeValidation, "payment method is invalid")
	}
	if input.TotalCents <= 0 {
		return errors.New(errors.CodeValidation, "sale total must be greater than zero")
	}
	if input.PaymentMethod == enums.PaymentMethodCredit {
		if input.CustomerID == nil || *input.CustomerID == uuid.Nil {
			return errors.New(errors.CodeValidation, "customer id is required for credit sales")
		}
	} else if input.CustomerID != nil {
		return errors.New(errors.CodeValidation, "customer id is only allowed on credit sales")
	}
	return nil
}
