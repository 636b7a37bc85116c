package handlers

import (
	"time"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/service"
)

type readingResponse struct {
	ID               int64     `json:"id"`
	NozzleID         string    `json:"nozzleId"`
	StationID        string    `json:"stationId"`
	CumulativeVolume string    `json:"cumulativeVolume"`
	RecordedAt       time.Time `json:"recordedAt"`
	Method           string    `json:"method"`
	SubmittedBy      string    `json:"submittedBy"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newReadingResponse(r models.Reading) readingResponse {
	return readingResponse{
		ID:               r.ID,
		NozzleID:         r.NozzleID,
		StationID:        r.StationID,
		CumulativeVolume: r.CumulativeVolume.StringFixed(models.VolumeScale),
		RecordedAt:       r.RecordedAt,
		Method:           string(r.Method),
		SubmittedBy:      r.SubmittedBy,
		CreatedAt:        r.CreatedAt,
	}
}

type saleSummary struct {
	ID         int64  `json:"id"`
	SaleVolume string `json:"saleVolume"`
	FuelPrice  string `json:"fuelPrice"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
}

type submitReadingResponse struct {
	Reading          readingResponse `json:"reading"`
	Sale             *saleSummary    `json:"sale"`
	SkipReason       string          `json:"skipReason,omitempty"`
	FlaggedForReview bool            `json:"flaggedForReview,omitempty"`
}

func newSubmitReadingResponse(res *service.SubmitResult) submitReadingResponse {
	out := submitReadingResponse{
		Reading:          newReadingResponse(res.Reading),
		SkipReason:       string(res.SkipReason),
		FlaggedForReview: res.FlaggedForReview,
	}
	if s := res.Sale; s != nil {
		out.Sale = &saleSummary{
			ID:         s.ID,
			SaleVolume: s.SaleVolume.StringFixed(models.VolumeScale),
			FuelPrice:  s.FuelPrice.StringFixed(models.CurrencyScale),
			Amount:     s.RoundedAmount().StringFixed(models.CurrencyScale),
			Status:     string(s.Status),
		}
	}
	return out
}

type saleResponse struct {
	ID                int64      `json:"id"`
	NozzleID          string     `json:"nozzleId"`
	StationID         string     `json:"stationId"`
	UserID            string     `json:"userId"`
	ReadingID         int64      `json:"readingId"`
	PreviousReading   string     `json:"previousReading"`
	CumulativeReading string     `json:"cumulativeReading"`
	SaleVolume        string     `json:"saleVolume"`
	FuelPrice         string     `json:"fuelPrice"`
	Amount            string     `json:"amount"`
	RecordedAt        time.Time  `json:"recordedAt"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	FinalizedAt       *time.Time `json:"finalizedAt,omitempty"`
	FinalizedBy       string     `json:"finalizedBy,omitempty"`
}

func newSaleResponse(s models.Sale) saleResponse {
	return saleResponse{
		ID:                s.ID,
		NozzleID:          s.NozzleID,
		StationID:         s.StationID,
		UserID:            s.UserID,
		ReadingID:         s.ReadingID,
		PreviousReading:   s.PreviousReading.StringFixed(models.VolumeScale),
		CumulativeReading: s.CumulativeReading.StringFixed(models.VolumeScale),
		SaleVolume:        s.SaleVolume.StringFixed(models.VolumeScale),
		FuelPrice:         s.FuelPrice.StringFixed(models.CurrencyScale),
		Amount:            s.RoundedAmount().StringFixed(models.CurrencyScale),
		RecordedAt:        s.RecordedAt,
		Status:            string(s.Status),
		CreatedAt:         s.CreatedAt,
		FinalizedAt:       s.FinalizedAt,
		FinalizedBy:       s.FinalizedBy,
	}
}

type reviewResponse struct {
	ID                int64     `json:"id"`
	ReadingID         int64     `json:"readingId"`
	NozzleID          string    `json:"nozzleId"`
	StationID         string    `json:"stationId"`
	Reason            string    `json:"reason"`
	PreviousReading   string    `json:"previousReading"`
	CumulativeReading string    `json:"cumulativeReading"`
	CreatedAt         time.Time `json:"createdAt"`
}

func newReviewResponse(rv models.ReadingReview) reviewResponse {
	return reviewResponse{
		ID:                rv.ID,
		ReadingID:         rv.ReadingID,
		NozzleID:          rv.NozzleID,
		StationID:         rv.StationID,
		Reason:            string(rv.Reason),
		PreviousReading:   rv.PreviousReading.StringFixed(models.VolumeScale),
		CumulativeReading: rv.CumulativeReading.StringFixed(models.VolumeScale),
		CreatedAt:         rv.CreatedAt,
	}
}

type priceResponse struct {
	ID            int64     `json:"id"`
	StationID     string    `json:"stationId"`
	FuelType      string    `json:"fuelType"`
	Price         string    `json:"price"`
	EffectiveFrom time.Time `json:"effectiveFrom"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newPriceResponse(p models.PriceEntry) priceResponse {
	return priceResponse{
		ID:            p.ID,
		StationID:     p.StationID,
		FuelType:      string(p.FuelType),
		Price:         p.Price.StringFixed(models.CurrencyScale),
		EffectiveFrom: p.EffectiveFrom,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
