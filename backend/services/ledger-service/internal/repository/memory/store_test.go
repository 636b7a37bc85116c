package memory

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

var base = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func appendReading(t *testing.T, s *Store, nozzleID string, volume int64, recordedAt time.Time) models.Reading {
	t.Helper()
	r := models.Reading{
		NozzleID:         nozzleID,
		StationID:        "st-1",
		CumulativeVolume: decimal.NewFromInt(volume),
		RecordedAt:       recordedAt,
		Method:           models.MethodManual,
		SubmittedBy:      "7",
	}
	err := s.WithNozzle(context.Background(), nozzleID, func(tx repository.LedgerTx) error {
		return tx.AppendReading(context.Background(), &r)
	})
	require.NoError(t, err)
	return r
}

func latest(t *testing.T, s *Store, nozzleID string) *models.Reading {
	t.Helper()
	var out *models.Reading
	err := s.WithNozzle(context.Background(), nozzleID, func(tx repository.LedgerTx) error {
		var err error
		out, err = tx.LatestReading(context.Background(), nozzleID)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestLatestReadingIgnoresInsertionOrder(t *testing.T) {
	offsets := []int{5, 1, 9, 3, 7, 2, 8}
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		rnd.Shuffle(len(offsets), func(i, j int) { offsets[i], offsets[j] = offsets[j], offsets[i] })

		s := New()
		for _, off := range offsets {
			appendReading(t, s, "nz-1", int64(off*10), base.Add(time.Duration(off)*time.Minute))
		}
		got := latest(t, s, "nz-1")
		require.NotNil(t, got)
		assert.Equal(t, base.Add(9*time.Minute), got.RecordedAt)
		assert.True(t, got.CumulativeVolume.Equal(decimal.NewFromInt(90)))
	}
}

func TestLatestReadingTieBreaksOnCreatedAt(t *testing.T) {
	clock := base
	s := New(WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	appendReading(t, s, "nz-1", 100, base)
	second := appendReading(t, s, "nz-1", 110, base)

	got := latest(t, s, "nz-1")
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Nil(t, latest(t, s, "nz-other"))
}

func TestWithNozzleDiscardsFailedWork(t *testing.T) {
	s := New()
	boom := errors.New("boom")

	err := s.WithNozzle(context.Background(), "nz-1", func(tx repository.LedgerTx) error {
		r := models.Reading{NozzleID: "nz-1", CumulativeVolume: decimal.NewFromInt(5), RecordedAt: base}
		require.NoError(t, tx.AppendReading(context.Background(), &r))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s.FailOn(OpCommit, boom)
	err = s.WithNozzle(context.Background(), "nz-1", func(tx repository.LedgerTx) error {
		r := models.Reading{NozzleID: "nz-1", CumulativeVolume: decimal.NewFromInt(6), RecordedAt: base}
		return tx.AppendReading(context.Background(), &r)
	})
	assert.ErrorIs(t, err, boom)

	readings, err := s.ListReadings(context.Background(), "nz-1", 0)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestEffectivePriceTieBreak(t *testing.T) {
	s := New()
	ctx := context.Background()
	add := func(price string, from time.Time) models.PriceEntry {
		entry := models.PriceEntry{StationID: "st-1", FuelType: models.FuelPetrol, Price: decimal.RequireFromString(price), EffectiveFrom: from}
		require.NoError(t, s.CreatePrice(ctx, &entry))
		return entry
	}
	add("90.00", base)
	add("95.00", base.Add(time.Hour))
	winner := add("96.00", base.Add(time.Hour))
	add("99.00", base.Add(3*time.Hour))

	got, err := s.EffectivePrice(ctx, "st-1", models.FuelPetrol, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)

	again, err := s.EffectivePrice(ctx, "st-1", models.FuelPetrol, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = s.EffectivePrice(ctx, "st-1", models.FuelPetrol, base.Add(-time.Minute))
	assert.ErrorIs(t, err, repository.ErrPriceNotFound)
	_, err = s.EffectivePrice(ctx, "st-1", models.FuelDiesel, base.Add(time.Hour))
	assert.ErrorIs(t, err, repository.ErrPriceNotFound)

	list, err := s.ListPrices(ctx, "st-1", "", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "99", list[0].Price.String())
	assert.Equal(t, winner.ID, list[1].ID)
}

func TestResolveNozzleHonoursDeactivation(t *testing.T) {
	s := New()
	s.AddNozzle(models.NozzleRef{NozzleID: "nz-1", PumpID: "p-1", StationID: "st-1", FuelType: models.FuelDiesel})

	ref, err := s.ResolveNozzle(context.Background(), "nz-1")
	require.NoError(t, err)
	assert.Equal(t, "st-1", ref.StationID)

	s.DeactivateNozzle("nz-1")
	_, err = s.ResolveNozzle(context.Background(), "nz-1")
	assert.ErrorIs(t, err, repository.ErrNozzleNotFound)
}

func TestFinalizeSale(t *testing.T) {
	s := New()
	ctx := context.Background()
	sale := models.Sale{ReadingID: 1, StationID: "st-1", Status: models.SaleDraft, Amount: decimal.RequireFromString("10.005")}
	require.NoError(t, s.WithNozzle(ctx, "nz-1", func(tx repository.LedgerTx) error {
		return tx.InsertSale(ctx, &sale)
	}))
	assert.Equal(t, "10.01", sale.Amount.String())

	dup := models.Sale{ReadingID: 1, Status: models.SaleDraft}
	err := s.WithNozzle(ctx, "nz-1", func(tx repository.LedgerTx) error { return tx.InsertSale(ctx, &dup) })
	assert.Error(t, err)

	final, err := s.FinalizeSale(ctx, sale.ID, "owner-1", base)
	require.NoError(t, err)
	assert.Equal(t, models.SaleFinal, final.Status)

	_, err = s.FinalizeSale(ctx, sale.ID, "owner-1", base)
	assert.ErrorIs(t, err, repository.ErrSaleAlreadyFinal)
	_, err = s.FinalizeSale(ctx, 999, "owner-1", base)
	assert.ErrorIs(t, err, repository.ErrSaleNotFound)
}
