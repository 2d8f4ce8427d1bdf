package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/middleware"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
)

// staffFromRequest resolves the authenticated staff identity seeded by the
// auth middleware.
func staffFromRequest(r *http.Request) (uuid.UUID, string, error) {
	raw := middleware.StaffIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "staff context missing")
	}
	staffID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid staff id")
	}
	return staffID, middleware.StaffNameFromContext(r.Context()), nil
}

func businessUnitFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.BusinessUnitIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "business unit context missing")
	}
	unitID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid business unit id")
	}
	return unitID, nil
}

func parsePathUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}
