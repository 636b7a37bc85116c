package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const (
	userIDHeader         = "X-User-ID"
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_, _ = w.Write(body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// decodeBody reads a JSON body into v, writing 413 or 400 and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid json")
	return false
}

// errorResponse maps service errors onto a status and body. 5xx bodies never carry the cause.
func errorResponse(err error) (int, errorBody) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: verr.Reason, Field: verr.Field}
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrPriceUnavailable):
		return http.StatusNotFound, errorBody{Error: strings.TrimPrefix(err.Error(), "ledger: ")}
	case errors.Is(err, service.ErrSaleFinal):
		return http.StatusConflict, errorBody{Error: "sale already final"}
	case errors.Is(err, service.ErrStorage):
		return http.StatusServiceUnavailable, errorBody{Error: "storage unavailable"}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}
}

func writeServiceError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, body)
}

// queryLimit parses ?limit=; zero means the repository default.
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, &service.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
	}
	return limit, nil
}
