package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fuelflow/backend/services/api-gateway/internal/clients"
	"fuelflow/backend/services/api-gateway/internal/http/middleware"
)

const maxBodyBytes = 1 << 20

// Passed through in both directions.
const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

type upstreamCall func(ctx context.Context, body []byte, headers map[string]string) (*clients.Response, error)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, resp *clients.Response) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	if v := resp.Header.Get(replayedHeader); v != "" {
		w.Header().Set(replayedHeader, v)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// forwardHeaders builds the identity and tracing headers sent upstream.
func forwardHeaders(r *http.Request) map[string]string {
	headers := map[string]string{
		clients.HeaderRequestID: chimw.GetReqID(r.Context()),
		idempotencyKeyHeader:    r.Header.Get(idempotencyKeyHeader),
	}
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		headers[clients.HeaderUserID] = strconv.FormatInt(id.UserID, 10)
		headers[clients.HeaderUserRole] = string(id.Role)
	}
	return headers
}

// proxy reads the request body, forwards it and relays the upstream reply.
// Transport failures become 502 without leaking upstream details.
func proxy(w http.ResponseWriter, r *http.Request, logger *zap.Logger, upstream string, call upstreamCall) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}

	resp, err := call(r.Context(), body, forwardHeaders(r))
	if err != nil {
		logger.Error("upstream request failed",
			zap.String("upstream", upstream),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, upstream+" unavailable")
		return
	}
	writeRaw(w, resp)
}
