package service

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fuelflow/backend/services/ledger-service/internal/models"
)

// SubmitReadingInput is the payload of a meter reading submission.
type SubmitReadingInput struct {
	NozzleID string
	// CumulativeVolume is a pointer so an omitted value can be told apart from zero.
	CumulativeVolume *decimal.Decimal
	RecordedAt       time.Time
	Method           models.ReadingMethod
	SubmittedBy      string
}

func (in *SubmitReadingInput) normalize() {
	in.NozzleID = strings.TrimSpace(in.NozzleID)
	in.SubmittedBy = strings.TrimSpace(in.SubmittedBy)
	in.Method = models.ReadingMethod(strings.ToLower(strings.TrimSpace(string(in.Method))))
}

// validate checks in and, on success, replaces CumulativeVolume with its canonical form.
func (in *SubmitReadingInput) validate(now time.Time, maxSkew time.Duration) error {
	if in.NozzleID == "" {
		return invalid("nozzleId", "required")
	}
	if in.CumulativeVolume == nil {
		return invalid("cumulativeVolume", "required")
	}
	if in.CumulativeVolume.Sign() < 0 {
		return invalid("cumulativeVolume", "must not be negative")
	}
	if reason := checkDecimal(*in.CumulativeVolume, models.VolumeScale, models.VolumeIntegerDigits); reason != "" {
		return invalid("cumulativeVolume", reason)
	}
	if in.RecordedAt.IsZero() {
		return invalid("recordedAt", "required")
	}
	if in.RecordedAt.After(now.Add(maxSkew)) {
		return invalid("recordedAt", "in the future")
	}
	if in.Method == "" {
		return invalid("method", "required")
	}
	if !in.Method.Valid() {
		return invalid("method", "must be manual or ocr")
	}
	if in.SubmittedBy == "" {
		return invalid("submittedBy", "required")
	}
	volume := canonical(*in.CumulativeVolume, models.VolumeScale)
	in.CumulativeVolume = &volume
	return nil
}

// AddPriceInput creates a price table entry.
type AddPriceInput struct {
	StationID     string
	FuelType      models.FuelType
	Price         *decimal.Decimal
	EffectiveFrom time.Time
	CreatedBy     string
}

func (in *AddPriceInput) normalize() {
	in.StationID = strings.TrimSpace(in.StationID)
	in.FuelType = models.FuelType(strings.ToLower(strings.TrimSpace(string(in.FuelType))))
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
}

// validate checks in and, on success, replaces Price with its canonical form.
func (in *AddPriceInput) validate() error {
	if in.StationID == "" {
		return invalid("stationId", "required")
	}
	if !in.FuelType.Valid() {
		return invalid("fuelType", "must be petrol or diesel")
	}
	if in.Price == nil {
		return invalid("price", "required")
	}
	if in.Price.Sign() <= 0 {
		return invalid("price", "must be positive")
	}
	if reason := checkDecimal(*in.Price, models.CurrencyScale, models.PriceIntegerDigits); reason != "" {
		return invalid("price", reason)
	}
	if in.EffectiveFrom.IsZero() {
		return invalid("effectiveFrom", "required")
	}
	price := canonical(*in.Price, models.CurrencyScale)
	in.Price = &price
	return nil
}

// maxDecimalDigits bounds the coefficient of any accepted decimal.
const maxDecimalDigits = 38

var bigTen = big.NewInt(10)

// checkDecimal returns a rejection reason when d has more than places fractional digits or more
// than integerDigits integer digits. It inspects the coefficient and exponent only: rescaling a
// value such as 1e-20000000 would cost millions of digits of arithmetic.
func checkDecimal(d decimal.Decimal, places int32, integerDigits int) string {
	coef := new(big.Int).Abs(d.Coefficient())
	if coef.Sign() == 0 {
		return ""
	}
	digits := int64(len(coef.Text(10)))
	if digits > maxDecimalDigits {
		return "too many digits"
	}

	exp := int64(d.Exponent())
	if excess := -int64(places) - exp; excess > 0 {
		// A coefficient with n digits has at most n-1 trailing zeros.
		if excess >= digits {
			return fmt.Sprintf("at most %d decimal places", places)
		}
		divisor := new(big.Int).Exp(bigTen, big.NewInt(excess), nil)
		if new(big.Int).Rem(coef, divisor).Sign() != 0 {
			return fmt.Sprintf("at most %d decimal places", places)
		}
	}
	if digits+exp > int64(integerDigits) {
		return "too large"
	}
	return ""
}

// canonical drops zero digits beyond places. d must have passed checkDecimal.
func canonical(d decimal.Decimal, places int32) decimal.Decimal {
	if d.Sign() == 0 {
		return decimal.Zero
	}
	if d.Exponent() < -places {
		return d.Truncate(places)
	}
	return d
}
