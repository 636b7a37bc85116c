package httpserver

import (
	"net/http"

	"fuelflow/backend/services/ledger-service/internal/http/handlers"
)

// Routes groups HTTP handlers.
type Routes struct {
	Readings *handlers.ReadingsHandler
	Sales    *handlers.SalesHandler
	Prices   *handlers.PricesHandler
	Health   http.HandlerFunc
	Metrics  http.Handler
}

// NewRouter registers service endpoints. Method mismatches get 405 from the mux.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if r := routes.Readings; r != nil {
		mux.HandleFunc("POST /readings", r.Submit)
		mux.HandleFunc("GET /readings", r.List)
		mux.HandleFunc("GET /readings/flagged", r.ListFlagged)
	}
	if s := routes.Sales; s != nil {
		mux.HandleFunc("GET /sales", s.List)
		mux.HandleFunc("POST /sales/{id}/finalize", s.Finalize)
	}
	if p := routes.Prices; p != nil {
		mux.HandleFunc("POST /prices", p.Add)
		mux.HandleFunc("GET /prices", p.List)
		mux.HandleFunc("GET /prices/effective", p.Effective)
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}
	return mux
}
