package httpserver

import (
	"net/http"

	"fuelflow/backend/services/station-service/internal/http/handlers"
)

// Routes groups handlers.
type Routes struct {
	Stations *handlers.StationsHandler
	Health   http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if s := routes.Stations; s != nil {
		mux.HandleFunc("POST /stations", s.CreateStation)
		mux.HandleFunc("GET /stations", s.ListStations)
		mux.HandleFunc("POST /stations/{id}/pumps", s.CreatePump)
		mux.HandleFunc("GET /stations/{id}/nozzles", s.ListNozzles)
		mux.HandleFunc("POST /pumps/{id}/nozzles", s.CreateNozzle)
		mux.HandleFunc("POST /nozzles/{id}/deactivate", s.DeactivateNozzle)
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	return mux
}
