package middleware

import (
	"net/http"

	"fuelflow/backend/services/api-gateway/internal/policy"
)

// RequireCapability rejects callers whose role lacks capability.
// It must run after AuthMiddleware.
func RequireCapability(p policy.Policy, capability policy.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !p.Allows(id.Role, capability) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
