package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"fuelflow/backend/services/station-service/internal/models"
	"fuelflow/backend/services/station-service/internal/service"
)

// StationsHandler serves provisioning endpoints.
type StationsHandler struct {
	svc    *service.ProvisioningService
	logger *zap.Logger
}

// NewStationsHandler builds handler set.
func NewStationsHandler(svc *service.ProvisioningService, logger *zap.Logger) *StationsHandler {
	return &StationsHandler{svc: svc, logger: logger}
}

type createStationRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type createPumpRequest struct {
	Label string `json:"label"`
}

type createNozzleRequest struct {
	FuelType string `json:"fuelType"`
	Label    string `json:"label"`
}

// CreateStation handles POST /stations.
func (h *StationsHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req createStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	station, err := h.svc.CreateStation(r.Context(), service.CreateStationInput{Name: req.Name, Location: req.Location})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// ListStations handles GET /stations.
func (h *StationsHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.svc.ListStations(r.Context(), 0)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

// CreatePump handles POST /stations/{id}/pumps.
func (h *StationsHandler) CreatePump(w http.ResponseWriter, r *http.Request) {
	var req createPumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	pump, err := h.svc.AddPump(r.Context(), r.PathValue("id"), req.Label)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pump)
}

// CreateNozzle handles POST /pumps/{id}/nozzles.
func (h *StationsHandler) CreateNozzle(w http.ResponseWriter, r *http.Request) {
	var req createNozzleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	nozzle, err := h.svc.AddNozzle(r.Context(), service.AddNozzleInput{
		PumpID:   r.PathValue("id"),
		FuelType: models.FuelType(req.FuelType),
		Label:    req.Label,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, nozzle)
}

// ListNozzles handles GET /stations/{id}/nozzles.
func (h *StationsHandler) ListNozzles(w http.ResponseWriter, r *http.Request) {
	nozzles, err := h.svc.ListNozzles(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"nozzles": nozzles})
}

// DeactivateNozzle handles POST /nozzles/{id}/deactivate.
func (h *StationsHandler) DeactivateNozzle(w http.ResponseWriter, r *http.Request) {
	nozzle, err := h.svc.DeactivateNozzle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nozzle)
}
