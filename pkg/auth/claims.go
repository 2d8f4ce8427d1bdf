package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. The
// identity provider owns login; this payload exists so tests and local
// tooling can produce the same token shape.
type AccessTokenPayload struct {
	StaffID        uuid.UUID
	StaffName      string
	BusinessUnitID uuid.UUID
	Role           enums.StaffRole
	JTI            string
}

// AccessTokenClaims represents the typed JWT presented by cashier terminals.
type AccessTokenClaims struct {
	StaffID        uuid.UUID       `json:"staff_id"`
	StaffName      string          `json:"staff_name"`
	BusinessUnitID uuid.UUID       `json:"business_unit_id"`
	Role           enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
