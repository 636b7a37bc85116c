package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus tracks reconciliation state.
type SaleStatus string

const (
	SaleDraft SaleStatus = "draft"
	SaleFinal SaleStatus = "final"
)

// Valid reports whether s is a known status.
func (s SaleStatus) Valid() bool {
	return s == SaleDraft || s == SaleFinal
}

// Sale is the revenue derived from one reading.
type Sale struct {
	ID                int64           `db:"id"`
	NozzleID          string          `db:"nozzle_id"`
	StationID         string          `db:"station_id"`
	UserID            string          `db:"user_id"`
	ReadingID         int64           `db:"reading_id"`
	PreviousReading   decimal.Decimal `db:"previous_reading"`
	CumulativeReading decimal.Decimal `db:"cumulative_reading"`
	SaleVolume        decimal.Decimal `db:"sale_volume"`
	FuelPrice         decimal.Decimal `db:"fuel_price"`
	Amount            decimal.Decimal `db:"amount"`
	RecordedAt        time.Time       `db:"recorded_at"`
	Status            SaleStatus      `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	FinalizedAt       *time.Time      `db:"finalized_at"`
	FinalizedBy       string          `db:"finalized_by"`
}

// RoundedAmount is the persisted amount: half-up at currency scale.
func (s Sale) RoundedAmount() decimal.Decimal {
	return s.Amount.Round(CurrencyScale)
}

// SaleFilter narrows sale listings. Empty fields match everything.
type SaleFilter struct {
	StationID string
	NozzleID  string
	Status    SaleStatus
	Limit     int
}
