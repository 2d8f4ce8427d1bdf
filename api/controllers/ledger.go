package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/responses"
	"github.com/thanmawoo39-creator/agart-pos-sub003/api/validators"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/creditledger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

type repaymentRequest struct {
	AmountCents *int64 `json:"amount_cents" validate:"required,min=1"`
}

// CustomerRepayment records cash received against a customer's store credit.
func CustomerRepayment(svc creditledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, _, err := staffFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := parsePathUUID(chi.URLParam(r, "customerId"), "customer id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req repaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Repayment(r.Context(), customerID, *req.AmountCents, staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// CustomerLedger returns a customer's statement page oldest-first, alongside
// the live balance.
func CustomerLedger(svc creditledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := parsePathUUID(chi.URLParam(r, "customerId"), "customer id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Ledger(r.Context(), creditledger.LedgerParams{
			CustomerID: customerID,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VerifyCustomerLedger replays a customer's ledger and checks it against the
// denormalized balance.
func VerifyCustomerLedger(svc creditledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := parsePathUUID(chi.URLParam(r, "customerId"), "customer id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VerifyCustomer(r.Context(), customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"customer_id": customerID, "consistent": true})
	}
}
