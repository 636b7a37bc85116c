package repository

import (
	"context"
	"database/sql"
	"errors"

	libdb "fuelflow/backend/libs/db"
	"fuelflow/backend/services/station-service/internal/models"
)

// StationRepository stores stations and their pumps.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// CreateStation inserts station; ID is set by the caller.
func (r *StationRepository) CreateStation(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (id, name, location, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, station.ID, station.Name, station.Location).
		Scan(&station.CreatedAt, &station.UpdatedAt)
}

// ListStations returns stations ordered by name.
func (r *StationRepository) ListStations(ctx context.Context, limit int) ([]models.Station, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	const query = `
		SELECT id, name, location, created_at, updated_at
		FROM stations
		ORDER BY name, id
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]models.Station, 0)
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// StationExists reports whether id is a known station.
func (r *StationRepository) StationExists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM stations WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreatePump inserts pump under an existing station.
func (r *StationRepository) CreatePump(ctx context.Context, pump *models.Pump) error {
	const query = `
		INSERT INTO pumps (id, station_id, label, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, pump.ID, pump.StationID, pump.Label).Scan(&pump.CreatedAt)
	if libdb.IsForeignKeyViolation(err) {
		return ErrStationNotFound
	}
	return err
}

// PumpStation returns the station a pump belongs to.
func (r *StationRepository) PumpStation(ctx context.Context, pumpID string) (string, error) {
	const query = `SELECT station_id FROM pumps WHERE id = $1`
	var stationID string
	if err := r.db.QueryRowContext(ctx, query, pumpID).Scan(&stationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPumpNotFound
		}
		return "", err
	}
	return stationID, nil
}
