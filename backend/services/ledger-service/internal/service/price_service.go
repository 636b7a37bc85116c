package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

// PriceTable manages time-versioned fuel prices.
type PriceTable struct {
	repo   repository.PriceRepository
	logger *zap.Logger
}

// NewPriceTable returns service instance.
func NewPriceTable(repo repository.PriceRepository, logger *zap.Logger) *PriceTable {
	return &PriceTable{repo: repo, logger: logger}
}

// EffectivePrice returns the entry in force at at. Entries sharing an effectiveFrom resolve to
// the one inserted last.
func (p *PriceTable) EffectivePrice(ctx context.Context, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil, invalid("stationId", "required")
	}
	if !fuelType.Valid() {
		return nil, invalid("fuelType", "must be petrol or diesel")
	}
	if at.IsZero() {
		return nil, invalid("at", "required")
	}

	entry, err := p.repo.EffectivePrice(ctx, stationID, fuelType, at)
	if err != nil {
		if errors.Is(err, repository.ErrPriceNotFound) {
			return nil, fmt.Errorf("%w: %s/%s at %s", ErrPriceUnavailable, stationID, fuelType, at.Format(time.RFC3339))
		}
		return nil, storageErr("effective price", err)
	}
	return entry, nil
}

// AddPrice appends a price entry.
func (p *PriceTable) AddPrice(ctx context.Context, in AddPriceInput) (*models.PriceEntry, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry := &models.PriceEntry{
		StationID:     in.StationID,
		FuelType:      in.FuelType,
		Price:         *in.Price,
		EffectiveFrom: in.EffectiveFrom.UTC(),
		CreatedBy:     in.CreatedBy,
	}
	if err := p.repo.CreatePrice(ctx, entry); err != nil {
		return nil, storageErr("create price", err)
	}

	p.logger.Info("fuel price added",
		zap.Int64("price_id", entry.ID),
		zap.String("station_id", entry.StationID),
		zap.String("fuel_type", string(entry.FuelType)),
		zap.String("price", entry.Price.StringFixed(models.CurrencyScale)),
		zap.Time("effective_from", entry.EffectiveFrom),
	)
	return entry, nil
}

// ListPrices returns a station's price history. An empty fuelType lists all fuels.
func (p *PriceTable) ListPrices(ctx context.Context, stationID string, fuelType models.FuelType, limit int) ([]models.PriceEntry, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil, invalid("stationId", "required")
	}
	if fuelType != "" && !fuelType.Valid() {
		return nil, invalid("fuelType", "must be petrol or diesel")
	}
	entries, err := p.repo.ListPrices(ctx, stationID, fuelType, limit)
	if err != nil {
		return nil, storageErr("list prices", err)
	}
	return entries, nil
}
