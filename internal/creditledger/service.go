package creditledger

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db/models"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/metrics"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

// txRunner abstracts db.Client.WithTx so tests can supply an in-memory client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PostEntryInput describes a single ledger posting.
type PostEntryInput struct {
	CustomerID    uuid.UUID
	Type          enums.LedgerEntryType
	AmountCents   int64
	RelatedSaleID *uuid.UUID
	CreatedBy     uuid.UUID
}

// LedgerParams selects a page of a customer's statement.
type LedgerParams struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     string
}

// LedgerResult is one statement page plus the customer's live balance.
type LedgerResult struct {
	Customer   *models.Customer
	Entries    []models.CreditLedgerEntry
	NextCursor string
}

// Service exposes credit ledger operations.
type Service interface {
	PostEntry(ctx context.Context, input PostEntryInput) (*models.CreditLedgerEntry, error)
	PostEntryTx(ctx context.Context, tx *gorm.DB, input PostEntryInput) (*models.CreditLedgerEntry, error)
	Repayment(ctx context.Context, customerID uuid.UUID, amountCents int64, createdBy uuid.UUID) (*models.CreditLedgerEntry, error)
	Ledger(ctx context.Context, params LedgerParams) (*LedgerResult, error)
	VerifyCustomer(ctx context.Context, customerID uuid.UUID) error
	VerifyAll(ctx context.Context, batchSize int) (*VerifyReport, error)
}

type service struct {
	tx      txRunner
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.TillMetrics
}

// NewService builds the ledger service and validates its dependencies.
func NewService(tx txRunner, repo Repository, logg *logger.Logger, tillMetrics *metrics.TillMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("creditledger: tx runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("creditledger: repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("creditledger: logger is required")
	}
	return &service{tx: tx, repo: repo, logg: logg, metrics: tillMetrics}, nil
}

func (s *service) PostEntry(ctx context.Context, input PostEntryInput) (*models.CreditLedgerEntry, error) {
	var entry *models.CreditLedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		posted, err := s.PostEntryTx(ctx, tx, input)
		if err != nil {
			return err
		}
		entry = posted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PostEntryTx posts a ledger entry inside a caller-owned transaction. The
// customer row is locked first so BalanceAfterCents and the denormalized
// balance advance together.
func (s *service) PostEntryTx(ctx context.Context, tx *gorm.DB, input PostEntryInput) (*models.CreditLedgerEntry, error) {
	if err := validatePostEntry(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	if input.RelatedSaleID != nil {
		existing, err := repo.FindEntryByRelatedSale(ctx, *input.RelatedSaleID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "failed to check for an existing ledger entry")
		}
		if existing != nil {
			return existing, nil
		}
	}

	customer, err := repo.FindCustomerForUpdate(ctx, input.CustomerID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "customer not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to load customer")
	}

	balanceAfter := customer.CurrentBalanceCents + input.Type.Sign()*input.AmountCents
	entry := &models.CreditLedgerEntry{
		ID:                uuid.New(),
		CustomerID:        customer.ID,
		BusinessUnitID:    customer.BusinessUnitID,
		Type:              input.Type,
		AmountCents:       input.AmountCents,
		BalanceAfterCents: balanceAfter,
		RelatedSaleID:     input.RelatedSaleID,
		CreatedBy:         input.CreatedBy,
	}
	inserted, err := repo.CreateEntry(ctx, entry)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to append ledger entry")
	}
	if !inserted {
		// Another register posted this sale between the dedup check and
		// the insert; repeat posts return the winning entry.
		if input.RelatedSaleID == nil {
			return nil, errors.New(errors.CodeInternal, "ledger entry insert affected no rows")
		}
		existing, findErr := repo.FindEntryByRelatedSale(ctx, *input.RelatedSaleID)
		if findErr != nil {
			return nil, errors.Wrap(errors.CodeInternal, findErr, "failed to load ledger entry for sale")
		}
		if existing == nil {
			return nil, errors.New(errors.CodeInternal, "ledger entry for sale disappeared")
		}
		return existing, nil
	}
	if err := repo.UpdateCustomerBalance(ctx, customer.ID, balanceAfter); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to update customer balance")
	}

	if input.Type == enums.LedgerEntryTypeSale &&
		customer.CreditLimitCents > 0 && balanceAfter > customer.CreditLimitCents {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"customer_id":        customer.ID.String(),
			"balance_cents":      balanceAfter,
			"credit_limit_cents": customer.CreditLimitCents,
		})
		s.logg.Warn(logCtx, "customer balance exceeds credit limit")
	}

	s.metrics.IncLedgerEntry(string(input.Type))
	return entry, nil
}

func (s *service) Repayment(ctx context.Context, customerID uuid.UUID, amountCents int64, createdBy uuid.UUID) (*models.CreditLedgerEntry, error) {
	return s.PostEntry(ctx, PostEntryInput{
		CustomerID:  customerID,
		Type:        enums.LedgerEntryTypeRepayment,
		AmountCents: amountCents,
		CreatedBy:   createdBy,
	})
}

func (s *service) Ledger(ctx context.Context, params LedgerParams) (*LedgerResult, error) {
	if params.CustomerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	customer, err := s.repo.FindCustomerByID(ctx, params.CustomerID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "customer not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to load customer")
	}

	entries, next, err := s.repo.ListEntries(ctx, listEntriesParams{
		CustomerID: params.CustomerID,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to list ledger entries")
	}

	result := &LedgerResult{Customer: customer, Entries: entries}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func validatePostEntry(input PostEntryInput) error {
	if input.CustomerID == uuid.Nil {
		return errors.New(errors.CodeValidation, "customer id is required")
	}
	if !input.Type.IsValid() {
		return errors.New(errors.CodeValidation, "ledger entry type is invalid")
	}
	if input.AmountCents <= 0 {
		return errors.New(errors.CodeValidation, "amount must be greater than zero")
	}
	if input.CreatedBy == uuid.Nil {
		return errors.New(errors.CodeValidation, "created by is required")
	}
	return nil
}
