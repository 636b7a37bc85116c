package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

// NozzleRepository resolves nozzles against the provisioning tables.
type NozzleRepository struct {
	db *sql.DB
}

// NewNozzleRepository returns repository.
func NewNozzleRepository(db *sql.DB) *NozzleRepository {
	return &NozzleRepository{db: db}
}

// ResolveNozzle returns the pump, station and fuel type of an active nozzle.
func (r *NozzleRepository) ResolveNozzle(ctx context.Context, nozzleID string) (*models.NozzleRef, error) {
	const query = `
		SELECT n.id, n.pump_id, p.station_id, n.fuel_type
		FROM nozzles n
		JOIN pumps p ON p.id = n.pump_id
		WHERE n.id = $1 AND n.active
		LIMIT 1
	`
	var ref models.NozzleRef
	if err := r.db.QueryRowContext(ctx, query, nozzleID).Scan(
		&ref.NozzleID,
		&ref.PumpID,
		&ref.StationID,
		&ref.FuelType,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNozzleNotFound
		}
		return nil, err
	}
	return &ref, nil
}
