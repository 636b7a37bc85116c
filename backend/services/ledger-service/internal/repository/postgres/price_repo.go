package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	libdb "fuelflow/backend/libs/db"
	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

const priceColumns = `id, station_id, fuel_type, price, effective_from, created_by, created_at`

// PriceRepository persists the fuel price table.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository returns repository.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// EffectivePrice returns the latest entry effective at or before at.
func (r *PriceRepository) EffectivePrice(ctx context.Context, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error) {
	return effectivePrice(ctx, r.db, stationID, fuelType, at)
}

// CreatePrice inserts a new immutable price entry.
func (r *PriceRepository) CreatePrice(ctx context.Context, entry *models.PriceEntry) error {
	const query = `
		INSERT INTO fuel_prices (station_id, fuel_type, price, effective_from, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		entry.StationID,
		string(entry.FuelType),
		entry.Price,
		entry.EffectiveFrom,
		entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListPrices returns price history newest first. An empty fuelType lists every fuel.
func (r *PriceRepository) ListPrices(ctx context.Context, stationID string, fuelType models.FuelType, limit int) ([]models.PriceEntry, error) {
	const query = `
		SELECT ` + priceColumns + `
		FROM fuel_prices
		WHERE station_id = $1 AND ($2 = '' OR fuel_type = $2)
		ORDER BY effective_from DESC, id DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, stationID, string(fuelType), repository.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PriceEntry
	for rows.Next() {
		entry, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Equal effective_from values resolve to the most recently inserted row.
func effectivePrice(ctx context.Context, q libdb.Querier, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error) {
	const query = `
		SELECT ` + priceColumns + `
		FROM fuel_prices
		WHERE station_id = $1 AND fuel_type = $2 AND effective_from <= $3
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`
	entry, err := scanPrice(q.QueryRowContext(ctx, query, stationID, string(fuelType), at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrPriceNotFound
		}
		return nil, err
	}
	return entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrice(row scanner) (*models.PriceEntry, error) {
	var p models.PriceEntry
	if err := row.Scan(
		&p.ID,
		&p.StationID,
		&p.FuelType,
		&p.Price,
		&p.EffectiveFrom,
		&p.CreatedBy,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
