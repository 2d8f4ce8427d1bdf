package creditledger

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
)

// VerifyReport summarizes a full ledger sweep.
type VerifyReport struct {
	CustomersChecked int
	CustomersFailed  int
	Err              error
}

// VerifyCustomer replays a customer's entries oldest-first and checks that
// every BalanceAfterCents matches the running total and that the final total
// matches the denormalized customer balance. Any mismatch is a consistency
// failure, never silently repaired.
func (s *service) VerifyCustomer(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return errors.New(errors.CodeValidation, "customer id is required")
	}

	customer, err := s.repo.FindCustomerByID(ctx, customerID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "customer not found")
		}
		return errors.Wrap(errors.CodeInternal, err, "failed to load customer")
	}

	entries, err := s.repo.ListAllEntries(ctx, customerID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to load ledger entries")
	}

	var running int64
	for _, entry := range entries {
		running += entry.Type.Sign() * entry.AmountCents
		if running != entry.BalanceAfterCents {
			s.metrics.IncConsistencyFailure()
			return errors.New(errors.CodeConsistency, "ledger replay mismatch").WithDetails(map[string]any{
				"customer_id":    customerID.String(),
				"entry_id":       entry.ID.String(),
				"expected_cents": running,
				"recorded_cents": entry.BalanceAfterCents,
			})
		}
	}

	if customer.CurrentBalanceCents != running {
		s.metrics.IncConsistencyFailure()
		return errors.New(errors.CodeConsistency, "customer balance diverges from ledger").WithDetails(map[string]any{
			"customer_id":   customerID.String(),
			"ledger_cents":  running,
			"balance_cents": customer.CurrentBalanceCents,
		})
	}
	return nil
}

// VerifyAll sweeps every customer in id-ordered batches. Failures are
// collected rather than aborting the sweep, so one corrupted account does not
// hide the rest.
func (s *service) VerifyAll(ctx context.Context, batchSize int) (*VerifyReport, error) {
	report := &VerifyReport{}
	var combined error

	afterID := uuid.Nil
	for {
		ids, err := s.repo.ListCustomerIDs(ctx, afterID, batchSize)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "failed to list customers")
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report.CustomersChecked++
			if err := s.VerifyCustomer(ctx, id); err != nil {
				report.CustomersFailed++
				combined = multierr.Append(combined, err)
				s.logg.Error(ctx, "ledger verification failed", err)
			}
		}
		afterID = ids[len(ids)-1]
	}

	report.Err = combined
	return report, nil
}
