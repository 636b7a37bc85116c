package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fuelflow/backend/services/station-service/internal/models"
	"fuelflow/backend/services/station-service/internal/repository"
)

var (
	// ErrInvalidInput marks rejected requests.
	ErrInvalidInput = errors.New("stations: invalid input")
	// ErrNotFound means a referenced station, pump or nozzle does not exist.
	ErrNotFound = errors.New("stations: not found")
)

// StationStore persists stations and pumps.
type StationStore interface {
	CreateStation(ctx context.Context, station *models.Station) error
	ListStations(ctx context.Context, limit int) ([]models.Station, error)
	StationExists(ctx context.Context, id string) (bool, error)
	CreatePump(ctx context.Context, pump *models.Pump) error
	PumpStation(ctx context.Context, pumpID string) (string, error)
}

// NozzleStore persists nozzles.
type NozzleStore interface {
	CreateNozzle(ctx context.Context, nozzle *models.Nozzle) error
	ListByStation(ctx context.Context, stationID string) ([]models.Nozzle, error)
	Deactivate(ctx context.Context, nozzleID string) (*models.Nozzle, error)
}

// CacheInvalidator drops cached nozzle lookups held by the ledger.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, nozzleID string) error
}

// ProvisioningService manages the station/pump/nozzle hierarchy.
type ProvisioningService struct {
	stations StationStore
	nozzles  NozzleStore
	cache    CacheInvalidator
	logger   *zap.Logger
	newID    func() string
}

// NewProvisioningService builds service. cache may be nil.
func NewProvisioningService(stations StationStore, nozzles NozzleStore, cache CacheInvalidator, logger *zap.Logger) *ProvisioningService {
	return &ProvisioningService{
		stations: stations,
		nozzles:  nozzles,
		cache:    cache,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// CreateStationInput describes a new station.
type CreateStationInput struct {
	Name     string
	Location string
}

// CreateStation registers a station.
func (s *ProvisioningService) CreateStation(ctx context.Context, in CreateStationInput) (*models.Station, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	station := &models.Station{
		ID:       s.newID(),
		Name:     name,
		Location: strings.TrimSpace(in.Location),
	}
	if err := s.stations.CreateStation(ctx, station); err != nil {
		return nil, fmt.Errorf("create station: %w", err)
	}
	s.logger.Info("station created", zap.String("station_id", station.ID))
	return station, nil
}

// ListStations returns known stations.
func (s *ProvisioningService) ListStations(ctx context.Context, limit int) ([]models.Station, error) {
	return s.stations.ListStations(ctx, limit)
}

// AddPump creates a pump at an existing station.
func (s *ProvisioningService) AddPump(ctx context.Context, stationID, label string) (*models.Pump, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil, invalid("station id is required")
	}
	pump := &models.Pump{
		ID:        s.newID(),
		StationID: stationID,
		Label:     strings.TrimSpace(label),
	}
	if err := s.stations.CreatePump(ctx, pump); err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			return nil, fmt.Errorf("%w: station %s", ErrNotFound, stationID)
		}
		return nil, fmt.Errorf("create pump: %w", err)
	}
	s.logger.Info("pump created", zap.String("station_id", stationID), zap.String("pump_id", pump.ID))
	return pump, nil
}

// AddNozzleInput describes a new nozzle.
type AddNozzleInput struct {
	PumpID   string
	FuelType models.FuelType
	Label    string
}

// AddNozzle creates an active nozzle on an existing pump.
func (s *ProvisioningService) AddNozzle(ctx context.Context, in AddNozzleInput) (*models.Nozzle, error) {
	pumpID := strings.TrimSpace(in.PumpID)
	if pumpID == "" {
		return nil, invalid("pump id is required")
	}
	fuel := models.FuelType(strings.ToLower(strings.TrimSpace(string(in.FuelType))))
	if !fuel.Valid() {
		return nil, invalid("fuelType must be petrol or diesel")
	}

	stationID, err := s.stations.PumpStation(ctx, pumpID)
	if err != nil {
		if errors.Is(err, repository.ErrPumpNotFound) {
			return nil, fmt.Errorf("%w: pump %s", ErrNotFound, pumpID)
		}
		return nil, fmt.Errorf("lookup pump: %w", err)
	}

	nozzle := &models.Nozzle{
		ID:        s.newID(),
		PumpID:    pumpID,
		StationID: stationID,
		FuelType:  fuel,
		Label:     strings.TrimSpace(in.Label),
	}
	if err := s.nozzles.CreateNozzle(ctx, nozzle); err != nil {
		if errors.Is(err, repository.ErrPumpNotFound) {
			return nil, fmt.Errorf("%w: pump %s", ErrNotFound, pumpID)
		}
		return nil, fmt.Errorf("create nozzle: %w", err)
	}
	s.logger.Info("nozzle created",
		zap.String("station_id", stationID),
		zap.String("pump_id", pumpID),
		zap.String("nozzle_id", nozzle.ID),
		zap.String("fuel_type", string(fuel)),
	)
	return nozzle, nil
}

// ListNozzles returns a station's nozzles.
func (s *ProvisioningService) ListNozzles(ctx context.Context, stationID string) ([]models.Nozzle, error) {
	stationID = strings.TrimSpace(stationID)
	exists, err := s.stations.StationExists(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("lookup station: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: station %s", ErrNotFound, stationID)
	}
	return s.nozzles.ListByStation(ctx, stationID)
}

// DeactivateNozzle soft deletes a nozzle and tombstones it in the ledger's cache. Calling it again
// is a no-op that returns the same nozzle.
func (s *ProvisioningService) DeactivateNozzle(ctx context.Context, nozzleID string) (*models.Nozzle, error) {
	nozzleID = strings.TrimSpace(nozzleID)
	nozzle, err := s.nozzles.Deactivate(ctx, nozzleID)
	if err != nil {
		if errors.Is(err, repository.ErrNozzleNotFound) {
			return nil, fmt.Errorf("%w: nozzle %s", ErrNotFound, nozzleID)
		}
		return nil, fmt.Errorf("deactivate nozzle: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, nozzleID); err != nil {
			s.logger.Warn("failed to invalidate nozzle cache", zap.String("nozzle_id", nozzleID), zap.Error(err))
		}
	}
	s.logger.Info("nozzle deactivated", zap.String("nozzle_id", nozzleID))
	return nozzle, nil
}
