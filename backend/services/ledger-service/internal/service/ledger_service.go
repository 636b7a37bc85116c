package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	libdb "fuelflow/backend/libs/db"
	"fuelflow/backend/services/ledger-service/internal/derivation"
	"fuelflow/backend/services/ledger-service/internal/metrics"
	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

// SkipSaleWriteFailed is reported when a sale was derived but could not be stored. The reading
// is still recorded.
const SkipSaleWriteFailed derivation.SkipReason = "sale_write_failed"

const (
	defaultMaxClockSkew = 5 * time.Minute
	maxSubmitAttempts   = 3
)

// Options tunes LedgerService.
type Options struct {
	// MaxClockSkew bounds how far in the future recordedAt may be.
	MaxClockSkew time.Duration
	Now          func() time.Time
}

// SubmitResult is the outcome of SubmitReading. Sale is nil when SkipReason is set.
type SubmitResult struct {
	Reading          models.Reading
	Sale             *models.Sale
	SkipReason       derivation.SkipReason
	FlaggedForReview bool
}

// LedgerService records meter readings and derives sales from them.
type LedgerService struct {
	nozzles repository.NozzleResolver
	ledger  repository.LedgerRepository
	metrics *metrics.Ledger
	logger  *zap.Logger
	maxSkew time.Duration
	now     func() time.Time
}

// NewLedgerService builds service.
func NewLedgerService(nozzles repository.NozzleResolver, ledger repository.LedgerRepository, m *metrics.Ledger, logger *zap.Logger, opts Options) *LedgerService {
	if opts.MaxClockSkew <= 0 {
		opts.MaxClockSkew = defaultMaxClockSkew
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &LedgerService{
		nozzles: nozzles,
		ledger:  ledger,
		metrics: m,
		logger:  logger,
		maxSkew: opts.MaxClockSkew,
		now:     opts.Now,
	}
}

// SubmitReading validates and appends a reading, then derives and stores its sale when one
// applies. Reading capture never depends on pricing: a missing price or a failed sale write
// still returns the stored reading.
func (s *LedgerService) SubmitReading(ctx context.Context, in SubmitReadingInput) (*SubmitResult, error) {
	started := time.Now()
	result, outcome, err := s.submit(ctx, in)
	s.metrics.ObserveSubmission(outcome, time.Since(started))
	return result, err
}

func (s *LedgerService) submit(ctx context.Context, in SubmitReadingInput) (*SubmitResult, string, error) {
	in.normalize()
	if err := in.validate(s.now(), s.maxSkew); err != nil {
		return nil, metrics.OutcomeInvalidInput, err
	}

	ref, err := s.nozzles.ResolveNozzle(ctx, in.NozzleID)
	if err != nil {
		if errors.Is(err, repository.ErrNozzleNotFound) {
			return nil, metrics.OutcomeNotFound, fmt.Errorf("%w: nozzle %s", ErrNotFound, in.NozzleID)
		}
		s.logger.Error("nozzle lookup failed", zap.String("nozzle_id", in.NozzleID), zap.Error(err))
		return nil, metrics.OutcomeStorageError, storageErr("resolve nozzle", err)
	}

	var result SubmitResult
	for attempt := 1; ; attempt++ {
		err = s.ledger.WithNozzle(ctx, ref.NozzleID, func(tx repository.LedgerTx) error {
			result = SubmitResult{}
			return s.record(ctx, tx, ref, in, &result)
		})
		if err == nil || attempt == maxSubmitAttempts || !libdb.IsRetryable(err) {
			break
		}
		s.logger.Warn("retrying reading submission", zap.String("nozzle_id", ref.NozzleID), zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		s.logger.Error("reading submission failed", zap.String("nozzle_id", ref.NozzleID), zap.Error(err))
		if !errors.Is(err, ErrStorage) {
			err = storageErr("commit reading", err)
		}
		return nil, metrics.OutcomeStorageError, err
	}

	if result.Sale != nil {
		s.metrics.AddDerivedVolume(result.Sale.SaleVolume.InexactFloat64())
	}

	s.logger.Info("meter reading recorded",
		zap.String("nozzle_id", ref.NozzleID),
		zap.Int64("reading_id", result.Reading.ID),
		zap.String("cumulative_volume", result.Reading.CumulativeVolume.String()),
		zap.String("skip_reason", string(result.SkipReason)),
	)
	return &result, outcomeOf(result), nil
}

func (s *LedgerService) record(ctx context.Context, tx repository.LedgerTx, ref *models.NozzleRef, in SubmitReadingInput, result *SubmitResult) error {
	previous, err := tx.LatestReading(ctx, ref.NozzleID)
	if err != nil {
		return storageErr("read latest reading", err)
	}

	current := models.Reading{
		NozzleID:         ref.NozzleID,
		StationID:        ref.StationID,
		CumulativeVolume: *in.CumulativeVolume,
		RecordedAt:       in.RecordedAt.UTC(),
		Method:           in.Method,
		SubmittedBy:      in.SubmittedBy,
	}
	if err := tx.AppendReading(ctx, &current); err != nil {
		return storageErr("append reading", err)
	}
	result.Reading = current

	price := s.priceFor(ctx, tx, ref, current.RecordedAt)
	derived := derivation.Derive(previous, current, price)
	result.SkipReason = derived.Skip

	switch {
	case derived.Draft != nil:
		sale := &models.Sale{
			NozzleID:          ref.NozzleID,
			StationID:         ref.StationID,
			UserID:            in.SubmittedBy,
			ReadingID:         current.ID,
			PreviousReading:   previous.CumulativeVolume,
			CumulativeReading: current.CumulativeVolume,
			SaleVolume:        derived.Draft.SaleVolume,
			FuelPrice:         derived.Draft.FuelPrice,
			Amount:            derived.Draft.Amount,
			RecordedAt:        current.RecordedAt,
			Status:            derived.Draft.Status,
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			s.logger.Error("sale write failed, keeping reading",
				zap.String("nozzle_id", ref.NozzleID), zap.Int64("reading_id", current.ID), zap.Error(err))
			s.metrics.DegradedWrite("sale")
			result.SkipReason = SkipSaleWriteFailed
			return nil
		}
		result.Sale = sale

	case derived.Skip == derivation.SkipAmountOutOfRange:
		s.logger.Warn("sale amount out of range, sale skipped",
			zap.String("nozzle_id", ref.NozzleID),
			zap.Int64("reading_id", current.ID),
			zap.String("delta", derived.Delta.String()),
			zap.String("price", price.String()),
		)

	case derived.Skip == derivation.SkipMeterReset:
		s.logger.Warn("meter reset detected",
			zap.String("nozzle_id", ref.NozzleID),
			zap.Int64("reading_id", current.ID),
			zap.String("previous_volume", previous.CumulativeVolume.String()),
			zap.String("current_volume", current.CumulativeVolume.String()),
		)
		review := &models.ReadingReview{
			ReadingID:         current.ID,
			NozzleID:          ref.NozzleID,
			StationID:         ref.StationID,
			Reason:            models.ReviewMeterReset,
			PreviousReading:   previous.CumulativeVolume,
			CumulativeReading: current.CumulativeVolume,
		}
		if err := tx.InsertReview(ctx, review); err != nil {
			s.logger.Error("review write failed, keeping reading",
				zap.String("nozzle_id", ref.NozzleID), zap.Int64("reading_id", current.ID), zap.Error(err))
			s.metrics.DegradedWrite("review")
			return nil
		}
		result.FlaggedForReview = true
	}
	return nil
}

// priceFor returns nil when no usable price is in force; lookup errors are not fatal.
func (s *LedgerService) priceFor(ctx context.Context, tx repository.LedgerTx, ref *models.NozzleRef, at time.Time) *decimal.Decimal {
	entry, err := tx.EffectivePrice(ctx, ref.StationID, ref.FuelType, at)
	if err != nil {
		fields := []zap.Field{
			zap.String("station_id", ref.StationID),
			zap.String("fuel_type", string(ref.FuelType)),
			zap.Time("at", at),
		}
		if errors.Is(err, repository.ErrPriceNotFound) {
			s.logger.Warn("no fuel price in force, sale skipped", fields...)
		} else {
			s.logger.Warn("fuel price lookup failed, sale skipped", append(fields, zap.Error(err))...)
		}
		return nil
	}
	return &entry.Price
}

func outcomeOf(result SubmitResult) string {
	switch result.SkipReason {
	case "":
		return metrics.OutcomeSale
	case derivation.SkipNoBaseline:
		return metrics.OutcomeNoBaseline
	case derivation.SkipNoChange:
		return metrics.OutcomeNoChange
	case derivation.SkipMeterReset:
		return metrics.OutcomeMeterReset
	case derivation.SkipPriceUnavailable:
		return metrics.OutcomePriceUnavailable
	case derivation.SkipAmountOutOfRange:
		return metrics.OutcomeAmountOutOfRange
	}
	return string(result.SkipReason)
}

// ListReadings returns a nozzle's readings, newest first.
func (s *LedgerService) ListReadings(ctx context.Context, nozzleID string, limit int) ([]models.Reading, error) {
	if nozzleID == "" {
		return nil, invalid("nozzleId", "required")
	}
	readings, err := s.ledger.ListReadings(ctx, nozzleID, limit)
	if err != nil {
		return nil, storageErr("list readings", err)
	}
	return readings, nil
}

// ListFlaggedReadings returns readings awaiting operator review.
func (s *LedgerService) ListFlaggedReadings(ctx context.Context, stationID string, limit int) ([]models.ReadingReview, error) {
	reviews, err := s.ledger.ListReviews(ctx, stationID, limit)
	if err != nil {
		return nil, storageErr("list reviews", err)
	}
	return reviews, nil
}

// ListSales returns sales matching filter.
func (s *LedgerService) ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "must be draft or final")
	}
	sales, err := s.ledger.ListSales(ctx, filter)
	if err != nil {
		return nil, storageErr("list sales", err)
	}
	return sales, nil
}

// FinalizeSale locks a draft sale after review.
func (s *LedgerService) FinalizeSale(ctx context.Context, saleID int64, finalizedBy string) (*models.Sale, error) {
	if saleID <= 0 {
		return nil, invalid("id", "must be positive")
	}
	if finalizedBy == "" {
		return nil, invalid("finalizedBy", "required")
	}

	sale, err := s.ledger.FinalizeSale(ctx, saleID, finalizedBy, s.now())
	switch {
	case errors.Is(err, repository.ErrSaleNotFound):
		return nil, fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
	case errors.Is(err, repository.ErrSaleAlreadyFinal):
		return nil, ErrSaleFinal
	case err != nil:
		return nil, storageErr("finalize sale", err)
	}

	s.logger.Info("sale finalized", zap.Int64("sale_id", sale.ID), zap.String("finalized_by", finalizedBy))
	return sale, nil
}
