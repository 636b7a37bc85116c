package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fuelflow/backend/services/api-gateway/internal/clients"
)

const stationsUpstream = "station service"

// StationsHandlers proxies station provisioning endpoints.
type StationsHandlers struct {
	client *clients.StationsClient
	logger *zap.Logger
}

// NewStationsHandlers returns handler.
func NewStationsHandlers(client *clients.StationsClient, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{client: client, logger: logger}
}

// List handles GET /api/stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, stationsUpstream, query(r, h.client.ListStations))
}

// Create handles POST /api/stations.
func (h *StationsHandlers) Create(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h.logger, stationsUpstream, h.client.CreateStation)
}

// AddPump handles POST /api/stations/{id}/pumps.
func (h *StationsHandlers) AddPump(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "id")
	proxy(w, r, h.logger, stationsUpstream, func(ctx context.Context, body []byte, headers map[string]string) (*clients.Response, error) {
		return h.client.AddPump(ctx, stationID, body, headers)
	})
}

// ListNozzles handles GET /api/stations/{id}/nozzles.
func (h *StationsHandlers) ListNozzles(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "id")
	proxy(w, r, h.logger, stationsUpstream, func(ctx context.Context, _ []byte, headers map[string]string) (*clients.Response, error) {
		return h.client.ListNozzles(ctx, stationID, headers)
	})
}

// AddNozzle handles POST /api/pumps/{id}/nozzles.
func (h *StationsHandlers) AddNozzle(w http.ResponseWriter, r *http.Request) {
	pumpID := chi.URLParam(r, "id")
	proxy(w, r, h.logger, stationsUpstream, func(ctx context.Context, body []byte, headers map[string]string) (*clients.Response, error) {
		return h.client.AddNozzle(ctx, pumpID, body, headers)
	})
}

// DeactivateNozzle handles POST /api/nozzles/{id}/deactivate.
func (h *StationsHandlers) DeactivateNozzle(w http.ResponseWriter, r *http.Request) {
	nozzleID := chi.URLParam(r, "id")
	proxy(w, r, h.logger, stationsUpstream, func(ctx context.Context, _ []byte, headers map[string]string) (*clients.Response, error) {
		return h.client.DeactivateNozzle(ctx, nozzleID, headers)
	})
}
