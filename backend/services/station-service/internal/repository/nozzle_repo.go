package repository

import (
	"context"
	"database/sql"
	"errors"

	libdb "fuelflow/backend/libs/db"
	"fuelflow/backend/services/station-service/internal/models"
)

// NozzleRepository stores nozzles.
type NozzleRepository struct {
	db *sql.DB
}

// NewNozzleRepository returns repository.
func NewNozzleRepository(db *sql.DB) *NozzleRepository {
	return &NozzleRepository{db: db}
}

// CreateNozzle inserts an active nozzle under an existing pump.
func (r *NozzleRepository) CreateNozzle(ctx context.Context, nozzle *models.Nozzle) error {
	const query = `
		INSERT INTO nozzles (id, pump_id, fuel_type, label, active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, nozzle.ID, nozzle.PumpID, string(nozzle.FuelType), nozzle.Label).
		Scan(&nozzle.CreatedAt)
	if libdb.IsForeignKeyViolation(err) {
		return ErrPumpNotFound
	}
	if err != nil {
		return err
	}
	nozzle.Active = true
	return nil
}

// ListByStation returns every nozzle of a station, deactivated ones included.
func (r *NozzleRepository) ListByStation(ctx context.Context, stationID string) ([]models.Nozzle, error) {
	const query = `
		SELECT n.id, n.pump_id, p.station_id, n.fuel_type, n.label, n.active, n.created_at, n.deactivated_at
		FROM nozzles n
		JOIN pumps p ON p.id = n.pump_id
		WHERE p.station_id = $1
		ORDER BY p.label, n.label, n.id
	`
	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nozzles := make([]models.Nozzle, 0)
	for rows.Next() {
		n, err := scanNozzle(rows)
		if err != nil {
			return nil, err
		}
		nozzles = append(nozzles, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nozzles, nil
}

// Deactivate soft deletes a nozzle. Repeated calls keep the first deactivation time.
func (r *NozzleRepository) Deactivate(ctx context.Context, nozzleID string) (*models.Nozzle, error) {
	const query = `
		UPDATE nozzles n
		SET active = FALSE,
		    deactivated_at = COALESCE(n.deactivated_at, NOW())
		FROM pumps p
		WHERE n.id = $1 AND p.id = n.pump_id
		RETURNING n.id, n.pump_id, p.station_id, n.fuel_type, n.label, n.active, n.created_at, n.deactivated_at
	`
	n, err := scanNozzle(r.db.QueryRowContext(ctx, query, nozzleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNozzleNotFound
	}
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNozzle(row scanner) (*models.Nozzle, error) {
	var (
		n           models.Nozzle
		fuel        string
		deactivated sql.NullTime
	)
	if err := row.Scan(&n.ID, &n.PumpID, &n.StationID, &fuel, &n.Label, &n.Active, &n.CreatedAt, &deactivated); err != nil {
		return nil, err
	}
	n.FuelType = models.FuelType(fuel)
	if deactivated.Valid {
		at := deactivated.Time
		n.DeactivatedAt = &at
	}
	return &n, nil
}
