package httpserver

import "net/http"

// Routes aggregates handlers for HTTP server.
type Routes struct {
	Signup http.HandlerFunc
	Login  http.HandlerFunc
	Health http.HandlerFunc
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Signup != nil {
		mux.Handle("POST /auth/signup", routes.Signup)
	}
	if routes.Login != nil {
		mux.Handle("POST /auth/login", routes.Login)
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	return mux
}
