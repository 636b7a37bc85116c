package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of decimal places kept for prices and amounts.
const CurrencyScale = 2

// Integer part widths of the NUMERIC(12,2) price and NUMERIC(14,2) amount columns.
const (
	PriceIntegerDigits  = 10
	AmountIntegerDigits = 12
)

// PriceEntry is one row of the time-versioned price table. Entries are never updated.
type PriceEntry struct {
	ID            int64           `db:"id" json:"id"`
	StationID     string          `db:"station_id" json:"stationId"`
	FuelType      FuelType        `db:"fuel_type" json:"fuelType"`
	Price         decimal.Decimal `db:"price" json:"price"`
	EffectiveFrom time.Time       `db:"effective_from" json:"effectiveFrom"`
	CreatedBy     string          `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}
