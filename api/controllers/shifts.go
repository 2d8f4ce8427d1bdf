package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/responses"
	"github.com/thanmawoo39-creator/agart-pos-sub003/api/validators"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/shifts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/pagination"
)

type openShiftRequest struct {
	OpeningCashCents *int64 `json:"opening_cash_cents" validate:"required,min=0"`
}

type closeShiftRequest struct {
	ActualCashCents *int64 `json:"actual_cash_cents" validate:"required,min=0"`
}

// OpenShift starts a drawer session for the authenticated staff member.
func OpenShift(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, staffName, err := staffFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitID, err := businessUnitFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req openShiftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.Open(r.Context(), shifts.OpenShiftInput{
			StaffID:          staffID,
			StaffName:        staffName,
			BusinessUnitID:   unitID,
			OpeningCashCents: *req.OpeningCashCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shift)
	}
}

// CurrentShift returns the caller's open shift, or null when none is open.
func CurrentShift(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, _, err := staffFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.Current(r.Context(), staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shift)
	}
}

// CloseShift reconciles the drawer count against expectations and returns
// the shift summary.
func CloseShift(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shiftID, err := parsePathUUID(chi.URLParam(r, "shiftId"), "shift id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req closeShiftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Close(r.Context(), shiftID, *req.ActualCashCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ShiftHistory lists past shifts for the caller's business unit.
func ShiftHistory(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := businessUnitFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := shifts.HistoryParams{
			BusinessUnitID: unitID,
			Limit:          limit,
			Cursor:         strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("staffId")); raw != "" {
			staffID, err := parsePathUUID(raw, "staff id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.StaffID = staffID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseShiftStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shift status"))
				return
			}
			params.Status = status
		}

		result, err := svc.History(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
