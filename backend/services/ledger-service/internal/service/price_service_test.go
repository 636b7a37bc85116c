package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
	"fuelflow/backend/services/ledger-service/internal/repository/memory"
)

func priceInput(price string, from time.Time) AddPriceInput {
	p := decimal.RequireFromString(price)
	return AddPriceInput{
		StationID:     "st-1",
		FuelType:      models.FuelPetrol,
		Price:         &p,
		EffectiveFrom: from,
		CreatedBy:     "owner-1",
	}
}

func TestPriceTableEffectivePrice(t *testing.T) {
	table := NewPriceTable(memory.New(), zap.NewNop())
	ctx := context.Background()

	_, err := table.AddPrice(ctx, priceInput("90.00", t0))
	require.NoError(t, err)
	_, err = table.AddPrice(ctx, priceInput("95.50", t0.Add(time.Hour)))
	require.NoError(t, err)
	last, err := table.AddPrice(ctx, priceInput("96.00", t0.Add(time.Hour)))
	require.NoError(t, err)

	entry, err := table.EffectivePrice(ctx, "st-1", models.FuelPetrol, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "90.00", entry.Price.StringFixed(2))

	entry, err = table.EffectivePrice(ctx, "st-1", models.FuelPetrol, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, last.ID, entry.ID, "latest insert wins on equal effectiveFrom")

	_, err = table.EffectivePrice(ctx, "st-1", models.FuelPetrol, t0.Add(-time.Second))
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	_, err = table.EffectivePrice(ctx, "st-1", models.FuelDiesel, t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	_, err = table.EffectivePrice(ctx, "st-1", "lpg", t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPriceTableAddPriceValidation(t *testing.T) {
	table := NewPriceTable(memory.New(), zap.NewNop())

	cases := []struct {
		name   string
		mutate func(in *AddPriceInput)
		field  string
	}{
		{name: "station", mutate: func(in *AddPriceInput) { in.StationID = "" }, field: "stationId"},
		{name: "fuel", mutate: func(in *AddPriceInput) { in.FuelType = "kerosene" }, field: "fuelType"},
		{name: "missing price", mutate: func(in *AddPriceInput) { in.Price = nil }, field: "price"},
		{name: "zero price", mutate: func(in *AddPriceInput) { z := decimal.Zero; in.Price = &z }, field: "price"},
		{name: "price scale", mutate: func(in *AddPriceInput) { p := decimal.RequireFromString("95.505"); in.Price = &p }, field: "price"},
		{name: "price too large", mutate: func(in *AddPriceInput) { p := decimal.RequireFromString("1e11"); in.Price = &p }, field: "price"},
		{name: "price extreme exponent", mutate: func(in *AddPriceInput) { p := decimal.RequireFromString("1e-20000000"); in.Price = &p }, field: "price"},
		{name: "effective from", mutate: func(in *AddPriceInput) { in.EffectiveFrom = time.Time{} }, field: "effectiveFrom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := priceInput("95.50", t0)
			tc.mutate(&in)
			_, err := table.AddPrice(context.Background(), in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPriceTableListPrices(t *testing.T) {
	table := NewPriceTable(memory.New(), zap.NewNop())
	ctx := context.Background()

	for i, price := range []string{"90.00", "91.00", "92.00"} {
		_, err := table.AddPrice(ctx, priceInput(price, t0.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	diesel := priceInput("80.00", t0)
	diesel.FuelType = " Diesel "
	_, err := table.AddPrice(ctx, diesel)
	require.NoError(t, err)

	all, err := table.ListPrices(ctx, "st-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	petrol, err := table.ListPrices(ctx, "st-1", models.FuelPetrol, 2)
	require.NoError(t, err)
	require.Len(t, petrol, 2)
	assert.Equal(t, "92.00", petrol[0].Price.StringFixed(2))

	_, err = table.ListPrices(ctx, "", "", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type failingPrices struct{ repository.PriceRepository }

func (failingPrices) CreatePrice(context.Context, *models.PriceEntry) error {
	return errors.New("disk full")
}

func TestPriceTableStorageError(t *testing.T) {
	table := NewPriceTable(failingPrices{memory.New()}, zap.NewNop())
	_, err := table.AddPrice(context.Background(), priceInput("95.50", t0))
	assert.ErrorIs(t, err, ErrStorage)
}
