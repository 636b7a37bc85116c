package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	libdb "fuelflow/backend/libs/db"
	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

const (
	readingColumns = `id, nozzle_id, station_id, cumulative_volume, recorded_at, method, submitted_by, created_at`
	saleColumns    = `id, nozzle_id, station_id, user_id, reading_id, previous_reading, cumulative_reading,
		sale_volume, fuel_price, amount, recorded_at, status, created_at, finalized_at, finalized_by`
	reviewColumns = `id, reading_id, nozzle_id, station_id, reason, previous_reading, cumulative_reading, created_at`
)

var (
	_ repository.NozzleResolver   = (*NozzleRepository)(nil)
	_ repository.PriceRepository  = (*PriceRepository)(nil)
	_ repository.LedgerRepository = (*LedgerRepository)(nil)
)

// LedgerRepository stores readings, sales and reading reviews.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository returns repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithNozzle runs fn in a transaction holding the nozzle's advisory lock. The lock is scoped to
// the transaction and released by commit or rollback.
func (r *LedgerRepository) WithNozzle(ctx context.Context, nozzleID string, fn func(tx repository.LedgerTx) error) error {
	return libdb.WithTx(ctx, r.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, nozzleID); err != nil {
			return fmt.Errorf("lock nozzle: %w", err)
		}
		return fn(&ledgerTx{tx: tx})
	})
}

// ListReadings returns the nozzle's readings newest first.
func (r *LedgerRepository) ListReadings(ctx context.Context, nozzleID string, limit int) ([]models.Reading, error) {
	const query = `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE nozzle_id = $1
		ORDER BY recorded_at DESC, created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, nozzleID, repository.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// ListSales returns sales matching filter, most recent reading time first.
func (r *LedgerRepository) ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.StationID != "" {
		add("station_id = $%d", filter.StationID)
	}
	if filter.NozzleID != "" {
		add("nozzle_id = $%d", filter.NozzleID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, repository.ClampLimit(filter.Limit))
	query += fmt.Sprintf(` ORDER BY recorded_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

// FinalizeSale moves a draft sale to final.
func (r *LedgerRepository) FinalizeSale(ctx context.Context, saleID int64, finalizedBy string, at time.Time) (*models.Sale, error) {
	const update = `
		UPDATE sales
		SET status = 'final', finalized_at = $2, finalized_by = $3
		WHERE id = $1 AND status = 'draft'
		RETURNING ` + saleColumns
	sale, err := scanSale(r.db.QueryRowContext(ctx, update, saleID, at, finalizedBy))
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var status string
	if err := r.db.QueryRowContext(ctx, `SELECT status FROM sales WHERE id = $1`, saleID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSaleNotFound
		}
		return nil, err
	}
	return nil, repository.ErrSaleAlreadyFinal
}

// ListReviews returns flagged readings newest first. An empty stationID lists all stations.
func (r *LedgerRepository) ListReviews(ctx context.Context, stationID string, limit int) ([]models.ReadingReview, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reading_reviews
		WHERE $1 = '' OR station_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, stationID, repository.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.ReadingReview
	for rows.Next() {
		var rv models.ReadingReview
		if err := rows.Scan(
			&rv.ID,
			&rv.ReadingID,
			&rv.NozzleID,
			&rv.StationID,
			&rv.Reason,
			&rv.PreviousReading,
			&rv.CumulativeReading,
			&rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) LatestReading(ctx context.Context, nozzleID string) (*models.Reading, error) {
	const query = `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE nozzle_id = $1
		ORDER BY recorded_at DESC, created_at DESC, id DESC
		LIMIT 1
	`
	reading, err := scanReading(t.tx.QueryRowContext(ctx, query, nozzleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reading, nil
}

func (t *ledgerTx) AppendReading(ctx context.Context, reading *models.Reading) error {
	const query = `
		INSERT INTO readings (nozzle_id, station_id, cumulative_volume, recorded_at, method, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return t.tx.QueryRowContext(ctx, query,
		reading.NozzleID,
		reading.StationID,
		reading.CumulativeVolume,
		reading.RecordedAt,
		string(reading.Method),
		reading.SubmittedBy,
	).Scan(&reading.ID, &reading.CreatedAt)
}

func (t *ledgerTx) EffectivePrice(ctx context.Context, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error) {
	var entry *models.PriceEntry
	err := t.savepoint(ctx, "price_lookup", func() error {
		var err error
		entry, err = effectivePrice(ctx, t.tx, stationID, fuelType, at)
		return err
	})
	return entry, err
}

func (t *ledgerTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	const query = `
		INSERT INTO sales (nozzle_id, station_id, user_id, reading_id, previous_reading, cumulative_reading,
			sale_volume, fuel_price, amount, recorded_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	return t.savepoint(ctx, "derived_sale", func() error {
		amount := sale.RoundedAmount()
		if err := t.tx.QueryRowContext(ctx, query,
			sale.NozzleID,
			sale.StationID,
			sale.UserID,
			sale.ReadingID,
			sale.PreviousReading,
			sale.CumulativeReading,
			sale.SaleVolume,
			sale.FuelPrice,
			amount,
			sale.RecordedAt,
			string(sale.Status),
		).Scan(&sale.ID, &sale.CreatedAt); err != nil {
			return err
		}
		sale.Amount = amount
		return nil
	})
}

func (t *ledgerTx) InsertReview(ctx context.Context, review *models.ReadingReview) error {
	const query = `
		INSERT INTO reading_reviews (reading_id, nozzle_id, station_id, reason, previous_reading, cumulative_reading)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return t.savepoint(ctx, "reading_review", func() error {
		return t.tx.QueryRowContext(ctx, query,
			review.ReadingID,
			review.NozzleID,
			review.StationID,
			string(review.Reason),
			review.PreviousReading,
			review.CumulativeReading,
		).Scan(&review.ID, &review.CreatedAt)
	})
}

// savepoint isolates fn so its failure does not abort the surrounding transaction.
func (t *ledgerTx) savepoint(ctx context.Context, name string, fn func() error) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	_, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}

func scanReading(row scanner) (*models.Reading, error) {
	var r models.Reading
	if err := row.Scan(
		&r.ID,
		&r.NozzleID,
		&r.StationID,
		&r.CumulativeVolume,
		&r.RecordedAt,
		&r.Method,
		&r.SubmittedBy,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSale(row scanner) (*models.Sale, error) {
	var (
		s           models.Sale
		finalizedAt sql.NullTime
	)
	if err := row.Scan(
		&s.ID,
		&s.NozzleID,
		&s.StationID,
		&s.UserID,
		&s.ReadingID,
		&s.PreviousReading,
		&s.CumulativeReading,
		&s.SaleVolume,
		&s.FuelPrice,
		&s.Amount,
		&s.RecordedAt,
		&s.Status,
		&s.CreatedAt,
		&finalizedAt,
		&s.FinalizedBy,
	); err != nil {
		return nil, err
	}
	if finalizedAt.Valid {
		at := finalizedAt.Time
		s.FinalizedAt = &at
	}
	return &s, nil
}
