// Package repository declares the persistence contracts of the ledger. Implementations live in
// the postgres and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"fuelflow/backend/services/ledger-service/internal/models"
)

var (
	// ErrNozzleNotFound is returned for unknown or deactivated nozzles.
	ErrNozzleNotFound = errors.New("repository: nozzle not found")
	// ErrPriceNotFound means no price entry is in force at the requested time.
	ErrPriceNotFound = errors.New("repository: price not found")
	// ErrSaleNotFound represents a missing sale row.
	ErrSaleNotFound = errors.New("repository: sale not found")
	// ErrSaleAlreadyFinal is returned when finalizing a sale that is no longer a draft.
	ErrSaleAlreadyFinal = errors.New("repository: sale already final")
)

// NozzleResolver reads the nozzle registry.
type NozzleResolver interface {
	ResolveNozzle(ctx context.Context, nozzleID string) (*models.NozzleRef, error)
}

// PriceReader answers effective price lookups.
type PriceReader interface {
	EffectivePrice(ctx context.Context, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error)
}

// PriceRepository stores the time-versioned price table.
type PriceRepository interface {
	PriceReader
	CreatePrice(ctx context.Context, entry *models.PriceEntry) error
	ListPrices(ctx context.Context, stationID string, fuelType models.FuelType, limit int) ([]models.PriceEntry, error)
}

// LedgerTx is the unit of work for one nozzle. Everything written through it commits or rolls
// back together.
type LedgerTx interface {
	// EffectivePrice failures leave the unit of work usable.
	PriceReader
	// LatestReading returns nil without error when the nozzle has no readings.
	LatestReading(ctx context.Context, nozzleID string) (*models.Reading, error)
	AppendReading(ctx context.Context, reading *models.Reading) error
	// InsertSale and InsertReview leave the unit of work usable when they fail, so the reading
	// appended before them can still commit.
	InsertSale(ctx context.Context, sale *models.Sale) error
	InsertReview(ctx context.Context, review *models.ReadingReview) error
}

// LedgerRepository owns readings, sales and reviews.
type LedgerRepository interface {
	// WithNozzle runs fn with exclusive access to the nozzle's ledger. Calls for different
	// nozzles do not block each other.
	WithNozzle(ctx context.Context, nozzleID string, fn func(tx LedgerTx) error) error
	ListReadings(ctx context.Context, nozzleID string, limit int) ([]models.Reading, error)
	ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, error)
	FinalizeSale(ctx context.Context, saleID int64, finalizedBy string, at time.Time) (*models.Sale, error)
	ListReviews(ctx context.Context, stationID string, limit int) ([]models.ReadingReview, error)
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ClampLimit normalizes caller supplied page sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
