// Package derivation turns consecutive cumulative meter readings into sale drafts.
package derivation

import (
	"github.com/shopspring/decimal"

	"fuelflow/backend/services/ledger-service/internal/models"
)

// SkipReason says why no sale was derived. The zero value means a draft was produced.
type SkipReason string

const (
	SkipNoBaseline       SkipReason = "no_baseline"
	SkipNoChange         SkipReason = "no_change"
	SkipMeterReset       SkipReason = "meter_reset"
	SkipPriceUnavailable SkipReason = "price_unavailable"
	// SkipAmountOutOfRange means delta × price does not fit the amount column.
	SkipAmountOutOfRange SkipReason = "amount_out_of_range"
)

var maxAmount = decimal.New(1, models.AmountIntegerDigits)

// SaleDraft is a computed but not yet persisted sale. Amount keeps full precision.
type SaleDraft struct {
	SaleVolume decimal.Decimal
	FuelPrice  decimal.Decimal
	Amount     decimal.Decimal
	Status     models.SaleStatus
}

// Result is either a Draft or a Skip reason, never both.
type Result struct {
	Draft *SaleDraft
	Skip  SkipReason
	// Delta is current minus previous volume; zero without a baseline.
	Delta decimal.Decimal
}

// Skipped reports whether no sale should be written.
func (r Result) Skipped() bool {
	return r.Draft == nil
}

// Derive computes the sale implied by current given the previous latest reading and the price
// in force at current.RecordedAt. It has no side effects.
func Derive(previous *models.Reading, current models.Reading, price *decimal.Decimal) Result {
	if previous == nil {
		return Result{Skip: SkipNoBaseline}
	}

	delta := current.CumulativeVolume.Sub(previous.CumulativeVolume)
	switch delta.Sign() {
	case 0:
		return Result{Skip: SkipNoChange, Delta: delta}
	case -1:
		return Result{Skip: SkipMeterReset, Delta: delta}
	}

	if price == nil || price.Sign() <= 0 {
		return Result{Skip: SkipPriceUnavailable, Delta: delta}
	}

	amount := delta.Mul(*price)
	if amount.Round(models.CurrencyScale).Cmp(maxAmount) >= 0 {
		return Result{Skip: SkipAmountOutOfRange, Delta: delta}
	}

	return Result{
		Delta: delta,
		Draft: &SaleDraft{
			SaleVolume: delta,
			FuelPrice:  *price,
			Amount:     amount,
			Status:     models.SaleDraft,
		},
	}
}
