package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"fuelflow/backend/services/api-gateway/internal/http/handlers"
	"fuelflow/backend/services/api-gateway/internal/http/middleware"
	"fuelflow/backend/services/api-gateway/internal/policy"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers     *handlers.AuthHandlers
	LedgerHandlers   *handlers.LedgerHandlers
	StationsHandlers *handlers.StationsHandlers
	Policy           policy.Policy
	JWTSecret        string
	AllowedOrigins   []string
	Logger           *zap.Logger
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Idempotent-Replayed", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.NewHealthHandler())

	can := func(c policy.Capability) func(http.Handler) http.Handler {
		return middleware.RequireCapability(deps.Policy, c)
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", deps.AuthHandlers.Signup)
		api.Post("/auth/login", deps.AuthHandlers.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(middleware.AuthMiddleware(deps.JWTSecret))

			pr.Get("/me/capabilities", handlers.NewCapabilitiesHandler(deps.Policy))

			ledger := deps.LedgerHandlers
			pr.With(can(policy.ReadingsSubmit)).Post("/readings", ledger.SubmitReading)
			pr.With(can(policy.ReadingsRead)).Get("/readings", ledger.ListReadings)
			pr.With(can(policy.ReadingsRead)).Get("/readings/flagged", ledger.ListFlagged)
			pr.With(can(policy.SalesRead)).Get("/sales", ledger.ListSales)
			pr.With(can(policy.SalesFinalize)).Post("/sales/{id}/finalize", ledger.FinalizeSale)
			pr.With(can(policy.PricesWrite)).Post("/prices", ledger.AddPrice)
			pr.With(can(policy.PricesRead)).Get("/prices", ledger.ListPrices)
			pr.With(can(policy.PricesRead)).Get("/prices/effective", ledger.EffectivePrice)

			stations := deps.StationsHandlers
			pr.With(can(policy.StationsRead)).Get("/stations", stations.List)
			pr.With(can(policy.StationsRead)).Get("/stations/{id}/nozzles", stations.ListNozzles)
			pr.Group(func(prov chi.Router) {
				prov.Use(can(policy.StationsProvision))
				prov.Post("/stations", stations.Create)
				prov.Post("/stations/{id}/pumps", stations.AddPump)
				prov.Post("/pumps/{id}/nozzles", stations.AddNozzle)
				prov.Post("/nozzles/{id}/deactivate", stations.DeactivateNozzle)
			})
		})
	})

	return r
}
