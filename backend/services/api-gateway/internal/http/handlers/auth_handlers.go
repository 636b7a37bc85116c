package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"fuelflow/backend/services/api-gateway/internal/clients"
)

// AuthHandlers proxies auth-service endpoints.
type AuthHandlers struct {
	client *clients.AuthClient
	logger *zap.Logger
}

// NewAuthHandlers returns handler struct.
func NewAuthHandlers(client *clients.AuthClient, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{client: client, logger: logger}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, "auth service", h.client.Signup)
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, "auth service", h.client.Login)
}
