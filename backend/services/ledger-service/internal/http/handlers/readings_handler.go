package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/idempotency"
	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/service"
)

// ReadingsHandler serves meter reading endpoints.
type ReadingsHandler struct {
	svc    *service.LedgerService
	idem   *idempotency.Store
	logger *zap.Logger
}

// NewReadingsHandler builds handler set. idem may be nil, which disables Idempotency-Key handling.
func NewReadingsHandler(svc *service.LedgerService, idem *idempotency.Store, logger *zap.Logger) *ReadingsHandler {
	return &ReadingsHandler{svc: svc, idem: idem, logger: logger}
}

type submitReadingRequest struct {
	NozzleID string `json:"nozzleId"`
	// Accepts both "1234.567" and 1234.567.
	CumulativeVolume *decimal.Decimal `json:"cumulativeVolume"`
	RecordedAt       time.Time        `json:"recordedAt"`
	Method           string           `json:"method"`
	SubmittedBy      string           `json:"submittedBy"`
}

// Submit handles POST /readings. An authenticated X-User-ID is the submitter and the
// idempotency scope; a body submittedBy is only accepted when it matches.
func (h *ReadingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitReadingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller := strings.TrimSpace(r.Header.Get(userIDHeader))
	submitter := strings.TrimSpace(req.SubmittedBy)
	if caller != "" {
		if submitter != "" && submitter != caller {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "must match authenticated user", Field: "submittedBy"})
			return
		}
		submitter = caller
	}
	in := service.SubmitReadingInput{
		NozzleID:         req.NozzleID,
		CumulativeVolume: req.CumulativeVolume,
		RecordedAt:       req.RecordedAt,
		Method:           models.ReadingMethod(req.Method),
		SubmittedBy:      submitter,
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" || h.idem == nil {
		resp := h.submit(r, in)
		writeRaw(w, resp.Status, resp.Body)
		return
	}

	resp, replayed, err := h.idem.Do(r.Context(), submitter, key, fingerprint(in), func() idempotency.Response {
		return h.submit(r, in)
	})
	switch {
	case errors.Is(err, idempotency.ErrInProgress):
		writeError(w, http.StatusConflict, "request already in progress")
		return
	case errors.Is(err, idempotency.ErrKeyReused):
		writeError(w, http.StatusUnprocessableEntity, "idempotency key reused with a different request")
		return
	case err != nil:
		h.logger.Warn("idempotency store unavailable, submitting without replay protection", zap.Error(err))
		resp = h.submit(r, in)
	}
	if replayed {
		w.Header().Set(replayedHeader, "true")
	}
	writeRaw(w, resp.Status, resp.Body)
}

// fingerprint identifies a submission independently of JSON formatting.
func fingerprint(in service.SubmitReadingInput) string {
	volume := ""
	if in.CumulativeVolume != nil {
		volume = decimalKey(*in.CumulativeVolume)
	}
	return idempotency.Fingerprint(
		strings.TrimSpace(in.NozzleID),
		volume,
		in.RecordedAt.UTC().Format(time.RFC3339Nano),
		strings.ToLower(strings.TrimSpace(string(in.Method))),
		in.SubmittedBy,
	)
}

// decimalKey renders d as coefficient and exponent. Unlike d.String() it never expands the
// exponent, so unvalidated input stays cheap to render.
func decimalKey(d decimal.Decimal) string {
	coef := d.Coefficient().String()
	exp := int64(d.Exponent())
	if coef == "0" {
		return "0"
	}
	if len(coef) <= 64 {
		for len(coef) > 1 && coef[len(coef)-1] == '0' {
			coef = coef[:len(coef)-1]
			exp++
		}
	}
	return coef + "e" + strconv.FormatInt(exp, 10)
}

func (h *ReadingsHandler) submit(r *http.Request, in service.SubmitReadingInput) idempotency.Response {
	res, err := h.svc.SubmitReading(r.Context(), in)
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("submit reading failed", zap.String("nozzle_id", in.NozzleID), zap.Error(err))
		}
		return encode(status, body)
	}
	return encode(http.StatusCreated, newSubmitReadingResponse(res))
}

func encode(status int, payload interface{}) idempotency.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return idempotency.Response{Status: http.StatusInternalServerError, Body: json.RawMessage(`{"error":"internal error"}`)}
	}
	return idempotency.Response{Status: status, Body: append(body, '\n')}
}

// List handles GET /readings?nozzleId=&limit=.
func (h *ReadingsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	readings, err := h.svc.ListReadings(r.Context(), strings.TrimSpace(r.URL.Query().Get("nozzleId")), limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"readings": mapSlice(readings, newReadingResponse),
	})
}

// ListFlagged handles GET /readings/flagged?stationId=&limit=.
func (h *ReadingsHandler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	reviews, err := h.svc.ListFlaggedReadings(r.Context(), strings.TrimSpace(r.URL.Query().Get("stationId")), limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flagged": mapSlice(reviews, newReviewResponse),
	})
}
