package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fuelflow/backend/services/api-gateway/internal/clients"
)

const ledgerUpstream = "ledger service"

// LedgerHandlers proxies readings, sales and price endpoints.
type LedgerHandlers struct {
	client *clients.LedgerClient
	logger *zap.Logger
}

// NewLedgerHandlers returns handler.
func NewLedgerHandlers(client *clients.LedgerClient, logger *zap.Logger) *LedgerHandlers {
	return &LedgerHandlers{client: client, logger: logger}
}

// query adapts a GET call that forwards the caller's query string.
func query(r *http.Request, fn func(ctx context.Context, rawQuery string, headers map[string]string) (*clients.Response, error)) upstreamCall {
	return func(ctx context.Context, _ []byte, headers map[string]string) (*clients.Response, error) {
		return fn(ctx, r.URL.RawQuery, headers)
	}
}

// SubmitReading handles POST /api/readings.
func (h *LedgerHandlers) SubmitReading(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, h.client.SubmitReading)
}

// ListReadings handles GET /api/readings.
func (h *LedgerHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, query(r, h.client.ListReadings))
}

// ListFlagged handles GET /api/readings/flagged.
func (h *LedgerHandlers) ListFlagged(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, query(r, h.client.ListFlagged))
}

// ListSales handles GET /api/sales.
func (h *LedgerHandlers) ListSales(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, query(r, h.client.ListSales))
}

// FinalizeSale handles POST /api/sales/{id}/finalize.
func (h *LedgerHandlers) FinalizeSale(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "id")
	proxy(w, r, h.logger, ledgerUpstream, func(ctx context.Context, _ []byte, headers map[string]string) (*clients.Response, error) {
		return h.client.FinalizeSale(ctx, saleID, headers)
	})
}

// AddPrice handles POST /api/prices.
func (h *LedgerHandlers) AddPrice(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, h.client.AddPrice)
}

// ListPrices handles GET /api/prices.
func (h *LedgerHandlers) ListPrices(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, query(r, h.client.ListPrices))
}

// EffectivePrice handles GET /api/prices/effective.
func (h *LedgerHandlers) EffectivePrice(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, ledgerUpstream, query(r, h.client.EffectivePrice))
}
