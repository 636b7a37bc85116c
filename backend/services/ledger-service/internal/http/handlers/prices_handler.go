package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/service"
)

// PricesHandler serves the price table.
type PricesHandler struct {
	prices *service.PriceTable
	logger *zap.Logger
	now    func() time.Time
}

// NewPricesHandler builds handler set.
func NewPricesHandler(prices *service.PriceTable, logger *zap.Logger) *PricesHandler {
	return &PricesHandler{prices: prices, logger: logger, now: time.Now}
}

type addPriceRequest struct {
	StationID     string           `json:"stationId"`
	FuelType      string           `json:"fuelType"`
	Price         *decimal.Decimal `json:"price"`
	EffectiveFrom time.Time        `json:"effectiveFrom"`
}

// Add handles POST /prices.
func (h *PricesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addPriceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.prices.AddPrice(r.Context(), service.AddPriceInput{
		StationID:     req.StationID,
		FuelType:      models.FuelType(req.FuelType),
		Price:         req.Price,
		EffectiveFrom: req.EffectiveFrom,
		CreatedBy:     r.Header.Get(userIDHeader),
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPriceResponse(*entry))
}

// List handles GET /prices?stationId=&fuelType=&limit=.
func (h *PricesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	q := r.URL.Query()
	fuel := models.FuelType(strings.ToLower(strings.TrimSpace(q.Get("fuelType"))))
	entries, err := h.prices.ListPrices(r.Context(), q.Get("stationId"), fuel, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prices": mapSlice(entries, newPriceResponse),
	})
}

// Effective handles GET /prices/effective?stationId=&fuelType=&at=. at defaults to now.
func (h *PricesHandler) Effective(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	at := h.now().UTC()
	if raw := strings.TrimSpace(q.Get("at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "must be RFC3339", Field: "at"})
			return
		}
		at = parsed
	}
	fuel := models.FuelType(strings.ToLower(strings.TrimSpace(q.Get("fuelType"))))
	entry, err := h.prices.EffectivePrice(r.Context(), q.Get("stationId"), fuel, at)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPriceResponse(*entry))
}
