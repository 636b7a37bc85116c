package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return sqlDB, mock
}

func TestResolveNozzle(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewNozzleRepository(sqlDB)

	mock.ExpectQuery(regexp.QuoteMeta("FROM nozzles n")).
		WithArgs("nz-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "pump_id", "station_id", "fuel_type"}).
			AddRow("nz-1", "pump-1", "st-1", "diesel"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM nozzles n")).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	ref, err := repo.ResolveNozzle(context.Background(), "nz-1")
	require.NoError(t, err)
	assert.Equal(t, models.NozzleRef{NozzleID: "nz-1", PumpID: "pump-1", StationID: "st-1", FuelType: models.FuelDiesel}, *ref)

	_, err = repo.ResolveNozzle(context.Background(), "gone")
	assert.ErrorIs(t, err, repository.ErrNozzleNotFound)
}

func priceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "station_id", "fuel_type", "price", "effective_from", "created_by", "created_at"})
}

func TestEffectivePrice(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewPriceRepository(sqlDB)

	mock.ExpectQuery("FROM fuel_prices").
		WithArgs("st-1", "petrol", t0).
		WillReturnRows(priceRows().AddRow(int64(7), "st-1", "petrol", "95.50", t0.Add(-time.Hour), "7", t0))
	mock.ExpectQuery("FROM fuel_prices").
		WithArgs("st-1", "diesel", t0).
		WillReturnError(sql.ErrNoRows)

	entry, err := repo.EffectivePrice(context.Background(), "st-1", models.FuelPetrol, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.ID)
	assert.True(t, entry.Price.Equal(decimal.RequireFromString("95.5")))

	_, err = repo.EffectivePrice(context.Background(), "st-1", models.FuelDiesel, t0)
	assert.ErrorIs(t, err, repository.ErrPriceNotFound)
}

func TestCreatePrice(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewPriceRepository(sqlDB)

	mock.ExpectQuery("INSERT INTO fuel_prices").
		WithArgs("st-1", "petrol", decimal.RequireFromString("101.25"), t0, "9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), t0))

	entry := &models.PriceEntry{
		StationID:     "st-1",
		FuelType:      models.FuelPetrol,
		Price:         decimal.RequireFromString("101.25"),
		EffectiveFrom: t0,
		CreatedBy:     "9",
	}
	require.NoError(t, repo.CreatePrice(context.Background(), entry))
	assert.Equal(t, int64(3), entry.ID)
	assert.Equal(t, t0, entry.CreatedAt)
}

func readingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nozzle_id", "station_id", "cumulative_volume", "recorded_at", "method", "submitted_by", "created_at"})
}

func TestWithNozzleSubmitsInsideLockedTransaction(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewLedgerRepository(sqlDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtextextended($1, 0))")).
		WithArgs("nz-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM readings").
		WithArgs("nz-1").
		WillReturnRows(readingRows().AddRow(int64(1), "nz-1", "st-1", "100.000", t0, "manual", "7", t0))
	mock.ExpectQuery("INSERT INTO readings").
		WithArgs("nz-1", "st-1", decimal.RequireFromString("150"), t0.Add(time.Hour), "manual", "7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(2), t0.Add(time.Hour)))
	mock.ExpectExec("SAVEPOINT derived_sale").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO sales").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), t0.Add(time.Hour)))
	mock.ExpectExec("RELEASE SAVEPOINT derived_sale").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.WithNozzle(context.Background(), "nz-1", func(tx repository.LedgerTx) error {
		prev, err := tx.LatestReading(context.Background(), "nz-1")
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.True(t, prev.CumulativeVolume.Equal(decimal.NewFromInt(100)))

		cur := &models.Reading{
			NozzleID:         "nz-1",
			StationID:        "st-1",
			CumulativeVolume: decimal.NewFromInt(150),
			RecordedAt:       t0.Add(time.Hour),
			Method:           models.MethodManual,
			SubmittedBy:      "7",
		}
		require.NoError(t, tx.AppendReading(context.Background(), cur))
		assert.Equal(t, int64(2), cur.ID)

		sale := &models.Sale{
			NozzleID:   "nz-1",
			StationID:  "st-1",
			ReadingID:  cur.ID,
			SaleVolume: decimal.NewFromInt(50),
			FuelPrice:  decimal.RequireFromString("95.50"),
			Amount:     decimal.RequireFromString("4775.0049"),
			Status:     models.SaleDraft,
		}
		require.NoError(t, tx.InsertSale(context.Background(), sale))
		assert.Equal(t, int64(5), sale.ID)
		assert.Equal(t, "4775.00", sale.Amount.StringFixed(2))
		return nil
	})
	require.NoError(t, err)
}

func TestLatestReadingEmpty(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewLedgerRepository(sqlDB)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM readings").WillReturnRows(readingRows())
	mock.ExpectCommit()

	err := repo.WithNozzle(context.Background(), "nz-new", func(tx repository.LedgerTx) error {
		prev, err := tx.LatestReading(context.Background(), "nz-new")
		assert.Nil(t, prev)
		return err
	})
	require.NoError(t, err)
}

func TestInsertSaleFailureKeepsTransactionUsable(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewLedgerRepository(sqlDB)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT derived_sale").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO sales").WillReturnError(errors.New("check constraint"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT derived_sale").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.WithNozzle(context.Background(), "nz-1", func(tx repository.LedgerTx) error {
		insertErr := tx.InsertSale(context.Background(), &models.Sale{Status: models.SaleDraft})
		assert.Error(t, insertErr)
		return nil
	})
	require.NoError(t, err)
}

func TestWithNozzleRollsBackOnFailure(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewLedgerRepository(sqlDB)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO readings").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.WithNozzle(context.Background(), "nz-1", func(tx repository.LedgerTx) error {
		return tx.AppendReading(context.Background(), &models.Reading{Method: models.MethodManual})
	})
	assert.Error(t, err)
}

func saleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nozzle_id", "station_id", "user_id", "reading_id", "previous_reading",
		"cumulative_reading", "sale_volume", "fuel_price", "amount", "recorded_at", "status", "created_at",
		"finalized_at", "finalized_by"})
}

func TestListSalesFilters(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewLedgerRepository(sqlDB)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales WHERE station_id = $1 AND status = $2 ORDER BY recorded_at DESC, id DESC LIMIT $3")).
		WithArgs("st-1", "draft", 10).
		WillReturnRows(saleRows().AddRow(int64(1), "nz-1", "st-1", "7", int64(2), "100.000", "150.000",
			"50.000", "95.50", "4775.00", t0, "draft", t0, nil, ""))

	sales, err := repo.ListSales(context.Background(), models.SaleFilter{StationID: "st-1", Status: models.SaleDraft, Limit: 10})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Nil(t, sales[0].FinalizedAt)
	assert.Equal(t, "4775.00", sales[0].Amount.StringFixed(2))
}

func TestFinalizeSale(t *testing.T) {
	sqlDB, mock := newMock(t)
	repo := NewLedgerRepository(sqlDB)
	at := t0.Add(24 * time.Hour)

	mock.ExpectQuery("UPDATE sales").
		WithArgs(int64(1), at, "owner-1").
		WillReturnRows(saleRows().AddRow(int64(1), "nz-1", "st-1", "7", int64(2), "100", "150",
			"50", "95.50", "4775.00", t0, "final", t0, at, "owner-1"))
	mock.ExpectQuery("UPDATE sales").WithArgs(int64(1), at, "owner-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM sales").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("final"))
	mock.ExpectQuery("UPDATE sales").WithArgs(int64(99), at, "owner-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM sales").WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	sale, err := repo.FinalizeSale(context.Background(), 1, "owner-1", at)
	require.NoError(t, err)
	assert.Equal(t, models.SaleFinal, sale.Status)
	require.NotNil(t, sale.FinalizedAt)
	assert.Equal(t, at, *sale.FinalizedAt)

	_, err = repo.FinalizeSale(context.Background(), 1, "owner-1", at)
	assert.ErrorIs(t, err, repository.ErrSaleAlreadyFinal)

	_, err = repo.FinalizeSale(context.Background(), 99, "owner-1", at)
	assert.ErrorIs(t, err, repository.ErrSaleNotFound)
}
