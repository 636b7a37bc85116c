package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fuelflow/backend/services/station-service/internal/http/handlers"
	"fuelflow/backend/services/station-service/internal/repository"
	"fuelflow/backend/services/station-service/internal/service"
)

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	logger := zap.NewNop()
	svc := service.NewProvisioningService(repository.NewStationRepository(db), repository.NewNozzleRepository(db), nil, logger)
	return NewRouter(Routes{
		Stations: handlers.NewStationsHandler(svc, logger),
		Health:   handlers.NewHealthHandler(),
	}), mock
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateStation(t *testing.T) {
	router, mock := newTestRouter(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO stations").
		WithArgs(sqlmock.AnyArg(), "Central", "Main St").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	rec := serve(router, http.MethodPost, "/stations", `{"name":"Central","location":"Main St"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Central", body["name"])
	assert.NotEmpty(t, body["id"])
}

func TestCreateStationValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/stations", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/stations", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePumpUnknownStation(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectQuery("INSERT INTO pumps").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	rec := serve(router, http.MethodPost, "/stations/st-404/pumps", `{"label":"P1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNozzleRejectsFuelType(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/pumps/p-1/nozzles", `{"fuelType":"hydrogen"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeactivateUnknownNozzle(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectQuery("UPDATE nozzles n").
		WithArgs("nz-404").
		WillReturnRows(sqlmock.NewRows([]string{"id", "pump_id", "station_id", "fuel_type", "label", "active", "created_at", "deactivated_at"}))

	rec := serve(router, http.MethodPost, "/nozzles/nz-404/deactivate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMethods(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(router, http.MethodDelete, "/stations", "").Code)
}
