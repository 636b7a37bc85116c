package httpserver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fuelflow/backend/services/api-gateway/internal/clients"
	gatewayhttp "fuelflow/backend/services/api-gateway/internal/http"
	"fuelflow/backend/services/api-gateway/internal/http/handlers"
	"fuelflow/backend/services/api-gateway/internal/http/middleware"
	"fuelflow/backend/services/api-gateway/internal/policy"
)

const secret = "gateway-secret"

type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type upstream struct {
	*httptest.Server
	mu   sync.Mutex
	reqs []recorded
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.reqs = append(u.reqs, recorded{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		u.mu.Unlock()
		if r.Header.Get("Idempotency-Key") != "" {
			w.Header().Set("Idempotent-Replayed", "true")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"upstream":"ok"}`))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) last(t *testing.T) recorded {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.reqs, "upstream was not called")
	return u.reqs[len(u.reqs)-1]
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.reqs)
}

type fixture struct {
	router   http.Handler
	auth     *upstream
	ledger   *upstream
	stations *upstream
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{auth: newUpstream(t), ledger: newUpstream(t), stations: newUpstream(t)}
	logger := zap.NewNop()
	httpClient := clients.NewDefaultHTTPClient(2 * time.Second)
	f.router = gatewayhttp.NewRouter(gatewayhttp.RouterDeps{
		AuthHandlers:     handlers.NewAuthHandlers(clients.NewAuthClient(f.auth.URL, httpClient), logger),
		LedgerHandlers:   handlers.NewLedgerHandlers(clients.NewLedgerClient(f.ledger.URL, httpClient), logger),
		StationsHandlers: handlers.NewStationsHandlers(clients.NewStationsClient(f.stations.URL, httpClient), logger),
		Policy:           policy.NewRolePolicy(),
		JWTSecret:        secret,
		AllowedOrigins:   []string{"http://localhost:5173"},
		Logger:           logger,
	})
	return f
}

func token(t *testing.T, userID int64, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := middleware.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (f *fixture) do(method, path, bearer, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestPublicAuthRoutesProxy(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"upstream":"ok"}`, rec.Body.String())

	got := f.auth.last(t)
	assert.Equal(t, "/auth/login", got.Path)
	assert.JSONEq(t, `{"email":"a@b.c","password":"x"}`, got.Body)
	assert.Empty(t, got.Header.Get(clients.HeaderUserID))
	assert.NotEmpty(t, got.Header.Get(clients.HeaderRequestID))

	rec = f.do(http.MethodPost, "/api/auth/signup", "", `{}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/auth/signup", f.auth.last(t).Path)
}

func TestAuthenticationRequired(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		auth string
	}{
		{"missing", ""},
		{"garbage", "not-a-token"},
		{"expired", token(t, 1, "owner", -time.Minute)},
		{"unknown role", token(t, 1, "cashier", time.Hour)},
		{"no user", token(t, 0, "owner", time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/sales", tc.auth, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID:           1,
		Role:             "owner",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("other"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/sales", wrongKey, "").Code)

	assert.Zero(t, f.ledger.count())
}

func TestCapabilityPolicy(t *testing.T) {
	f := newFixture(t)
	employee := token(t, 5, "employee", time.Hour)
	owner := token(t, 6, "owner", time.Hour)
	root := token(t, 1, "superadmin", time.Hour)

	cases := []struct {
		method string
		path   string
		bearer string
		status int
	}{
		{http.MethodPost, "/api/readings", employee, http.StatusAccepted},
		{http.MethodGet, "/api/readings/flagged", employee, http.StatusAccepted},
		{http.MethodGet, "/api/prices/effective", employee, http.StatusAccepted},
		{http.MethodPost, "/api/prices", employee, http.StatusForbidden},
		{http.MethodPost, "/api/sales/3/finalize", employee, http.StatusForbidden},
		{http.MethodPost, "/api/stations", employee, http.StatusForbidden},
		{http.MethodPost, "/api/nozzles/n1/deactivate", employee, http.StatusForbidden},
		{http.MethodGet, "/api/stations/st-1/nozzles", employee, http.StatusAccepted},
		{http.MethodPost, "/api/prices", owner, http.StatusAccepted},
		{http.MethodPost, "/api/sales/3/finalize", owner, http.StatusAccepted},
		{http.MethodPost, "/api/pumps/p1/nozzles", owner, http.StatusAccepted},
		{http.MethodPost, "/api/stations/st-1/pumps", root, http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := f.do(tc.method, tc.path, tc.bearer, `{}`)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestForwardsIdentityAndQuery(t *testing.T) {
	f := newFixture(t)
	employee := token(t, 42, "employee", time.Hour)

	rec := f.do(http.MethodGet, "/api/sales?stationId=st-1&status=pending", employee, "", "X-Request-ID", "trace-1")
	require.Equal(t, http.StatusAccepted, rec.Code)

	got := f.ledger.last(t)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/sales", got.Path)
	assert.Equal(t, "stationId=st-1&status=pending", got.Query)
	assert.Equal(t, "42", got.Header.Get(clients.HeaderUserID))
	assert.Equal(t, "employee", got.Header.Get(clients.HeaderUserRole))
	assert.Equal(t, "trace-1", got.Header.Get(clients.HeaderRequestID))

	owner := token(t, 6, "owner", time.Hour)
	rec = f.do(http.MethodPost, "/api/sales/17/finalize", owner, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/sales/17/finalize", f.ledger.last(t).Path)

	rec = f.do(http.MethodPost, "/api/nozzles/nz-9/deactivate", owner, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/nozzles/nz-9/deactivate", f.stations.last(t).Path)
	assert.Equal(t, "owner", f.stations.last(t).Header.Get(clients.HeaderUserRole))
}

func TestIdempotencyHeadersPassThrough(t *testing.T) {
	f := newFixture(t)
	employee := token(t, 5, "employee", time.Hour)

	rec := f.do(http.MethodPost, "/api/readings", employee, `{"nozzleId":"nz-1"}`, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))

	got := f.ledger.last(t)
	assert.Equal(t, "k-1", got.Header.Get("Idempotency-Key"))
	assert.JSONEq(t, `{"nozzleId":"nz-1"}`, got.Body)
}

func TestCapabilitiesEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/me/capabilities", token(t, 5, "employee", time.Hour), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID       int64    `json:"userId"`
		Role         string   `json:"role"`
		Capabilities []string `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.UserID)
	assert.Equal(t, "employee", body.Role)
	assert.Equal(t, []string{"prices:read", "readings:read", "readings:submit", "sales:read", "stations:read"}, body.Capabilities)
}

func TestUpstreamDownIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.ledger.Close()

	rec := f.do(http.MethodGet, "/api/readings", token(t, 5, "employee", time.Hour), "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"ledger service unavailable"}`, rec.Body.String())
}

func TestHealthAndCORS(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodOptions, "/api/readings", "", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST",
	)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, f.ledger.count())
}
