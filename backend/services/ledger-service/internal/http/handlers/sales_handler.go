package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/service"
)

// SalesHandler serves derived sale endpoints.
type SalesHandler struct {
	svc    *service.LedgerService
	logger *zap.Logger
}

// NewSalesHandler builds handler set.
func NewSalesHandler(svc *service.LedgerService, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{svc: svc, logger: logger}
}

// List handles GET /sales?stationId=&nozzleId=&status=&limit=.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	q := r.URL.Query()
	sales, err := h.svc.ListSales(r.Context(), models.SaleFilter{
		StationID: strings.TrimSpace(q.Get("stationId")),
		NozzleID:  strings.TrimSpace(q.Get("nozzleId")),
		Status:    models.SaleStatus(strings.TrimSpace(q.Get("status"))),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sales": mapSlice(sales, newSaleResponse),
	})
}

// Finalize handles POST /sales/{id}/finalize.
func (h *SalesHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid sale id", Field: "id"})
		return
	}
	sale, err := h.svc.FinalizeSale(r.Context(), id, r.Header.Get(userIDHeader))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSaleResponse(*sale))
}
