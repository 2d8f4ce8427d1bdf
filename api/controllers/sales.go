package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/responses"
	"github.com/thanmawoo39-creator/agart-pos-sub003/api/validators"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/sales"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
)

type attributeSaleRequest struct {
	SaleID        uuid.UUID  `json:"sale_id" validate:"required"`
	PaymentMethod string     `json:"payment_method" validate:"required"`
	TotalCents    *int64     `json:"total_cents" validate:"required,min=1"`
	CustomerID    *uuid.UUID `json:"customer_id"`
}

// AttributeSale records a completed sale against the caller's open shift.
func AttributeSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, _, err := staffFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req attributeSaleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Attribute(r.Context(), sales.AttributeSaleInput{
			SaleID:        req.SaleID,
			StaffID:       staffID,
			PaymentMethod: enums.PaymentMethod(req.PaymentMethod),
			TotalCents:    *req.TotalCents,
			CustomerID:    req.CustomerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}
