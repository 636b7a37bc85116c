package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VolumeScale is the number of decimal places kept for cumulative volumes.
const VolumeScale = 3

// VolumeIntegerDigits is the integer part width of NUMERIC(18,3) volume columns.
const VolumeIntegerDigits = 15

// ReadingMethod records how a meter value was captured.
type ReadingMethod string

const (
	MethodManual ReadingMethod = "manual"
	MethodOCR    ReadingMethod = "ocr"
)

// Valid reports whether m is a known capture method.
func (m ReadingMethod) Valid() bool {
	return m == MethodManual || m == MethodOCR
}

// Reading is an append-only cumulative meter value for a nozzle.
type Reading struct {
	ID               int64           `db:"id"`
	NozzleID         string          `db:"nozzle_id"`
	StationID        string          `db:"station_id"`
	CumulativeVolume decimal.Decimal `db:"cumulative_volume"`
	RecordedAt       time.Time       `db:"recorded_at"`
	Method           ReadingMethod   `db:"method"`
	SubmittedBy      string          `db:"submitted_by"`
	CreatedAt        time.Time       `db:"created_at"`
}

// After reports whether r sorts after other in ledger order: recordedAt, then createdAt, then id.
func (r Reading) After(other Reading) bool {
	if !r.RecordedAt.Equal(other.RecordedAt) {
		return r.RecordedAt.After(other.RecordedAt)
	}
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.After(other.CreatedAt)
	}
	return r.ID > other.ID
}

// ReviewReason explains why a reading needs operator attention.
type ReviewReason string

const ReviewMeterReset ReviewReason = "meter_reset"

// ReadingReview flags a persisted reading for operator review.
type ReadingReview struct {
	ID                int64           `db:"id"`
	ReadingID         int64           `db:"reading_id"`
	NozzleID          string          `db:"nozzle_id"`
	StationID         string          `db:"station_id"`
	Reason            ReviewReason    `db:"reason"`
	PreviousReading   decimal.Decimal `db:"previous_reading"`
	CumulativeReading decimal.Decimal `db:"cumulative_reading"`
	CreatedAt         time.Time       `db:"created_at"`
}
