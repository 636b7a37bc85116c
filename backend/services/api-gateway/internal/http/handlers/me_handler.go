package handlers

import (
	"net/http"

	"fuelflow/backend/services/api-gateway/internal/http/middleware"
	"fuelflow/backend/services/api-gateway/internal/policy"
)

// NewCapabilitiesHandler returns GET /api/me/capabilities.
func NewCapabilitiesHandler(p policy.Policy) http.HandlerFunc {
	type response struct {
		UserID       int64               `json:"userId"`
		Role         policy.Role         `json:"role"`
		Capabilities []policy.Capability `json:"capabilities"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, response{
			UserID:       id.UserID,
			Role:         id.Role,
			Capabilities: p.Capabilities(id.Role),
		})
	}
}
