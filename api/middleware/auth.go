package middleware

import (
	"net/http"
	"strings"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/responses"
	pkgauth "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/auth"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/config"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the staff
// identity. Login itself belongs to the identity provider; the engine only
// consumes its tokens.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithStaff(r.Context(), claims.StaffID.String(), claims.StaffName)
			ctx = WithRole(ctx, string(claims.Role))
			ctx = WithBusinessUnitID(ctx, claims.BusinessUnitID.String())

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"staff_id":         claims.StaffID.String(),
					"actor_role":       string(claims.Role),
					"business_unit_id": claims.BusinessUnitID.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
