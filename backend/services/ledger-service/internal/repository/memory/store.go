// Package memory is an in-process implementation of the ledger repositories. Each Store owns
// its state; it backs tests and local experiments.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

// Op names an injectable failure point.
type Op string

const (
	OpLatestReading  Op = "latest_reading"
	OpAppendReading  Op = "append_reading"
	OpEffectivePrice Op = "effective_price"
	OpInsertSale     Op = "insert_sale"
	OpInsertReview   Op = "insert_review"
	OpCommit         Op = "commit"
)

var (
	_ repository.NozzleResolver   = (*Store)(nil)
	_ repository.PriceRepository  = (*Store)(nil)
	_ repository.LedgerRepository = (*Store)(nil)
)

var errDuplicateSale = errors.New("memory: sale already exists for reading")

type nozzleRow struct {
	ref    models.NozzleRef
	active bool
}

// Store keeps ledger data in maps guarded by a RWMutex. Per-nozzle mutexes serialize
// WithNozzle calls the way the advisory lock does in Postgres.
type Store struct {
	mu       sync.RWMutex
	nozzles  map[string]nozzleRow
	prices   []models.PriceEntry
	readings map[string][]models.Reading
	sales    []models.Sale
	reviews  []models.ReadingReview
	seq      int64
	faults   map[Op]error

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nozzles:  make(map[string]nozzleRow),
		readings: make(map[string][]models.Reading),
		faults:   make(map[Op]error),
		locks:    make(map[string]*sync.Mutex),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddNozzle registers an active nozzle.
func (s *Store) AddNozzle(ref models.NozzleRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nozzles[ref.NozzleID] = nozzleRow{ref: ref, active: true}
}

// DeactivateNozzle soft deletes a nozzle.
func (s *Store) DeactivateNozzle(nozzleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.nozzles[nozzleID]; ok {
		row.active = false
		s.nozzles[nozzleID] = row
	}
}

// FailOn makes op return err until FailOn(op, nil) is called.
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op Op) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults[op]
}

func (s *Store) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// ResolveNozzle implements repository.NozzleResolver.
func (s *Store) ResolveNozzle(ctx context.Context, nozzleID string) (*models.NozzleRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.nozzles[nozzleID]
	if !ok || !row.active {
		return nil, repository.ErrNozzleNotFound
	}
	ref := row.ref
	return &ref, nil
}

// CreatePrice implements repository.PriceRepository.
func (s *Store) CreatePrice(ctx context.Context, entry *models.PriceEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry.ID = s.nextID()
	entry.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = append(s.prices, *entry)
	return nil
}

// EffectivePrice implements repository.PriceReader.
func (s *Store) EffectivePrice(ctx context.Context, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fault(OpEffectivePrice); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.PriceEntry
	for i := range s.prices {
		p := &s.prices[i]
		if p.StationID != stationID || p.FuelType != fuelType || p.EffectiveFrom.After(at) {
			continue
		}
		if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) ||
			(p.EffectiveFrom.Equal(best.EffectiveFrom) && p.ID > best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, repository.ErrPriceNotFound
	}
	out := *best
	return &out, nil
}

// ListPrices implements repository.PriceRepository.
func (s *Store) ListPrices(ctx context.Context, stationID string, fuelType models.FuelType, limit int) ([]models.PriceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []models.PriceEntry
	for _, p := range s.prices {
		if p.StationID == stationID && (fuelType == "" || p.FuelType == fuelType) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
		}
		return out[i].ID > out[j].ID
	})
	return truncate(out, limit), nil
}

func (s *Store) nozzleLock(nozzleID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[nozzleID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[nozzleID] = l
	}
	return l
}

// WithNozzle implements repository.LedgerRepository. Writes are staged and applied only when
// fn succeeds.
func (s *Store) WithNozzle(ctx context.Context, nozzleID string, fn func(tx repository.LedgerTx) error) error {
	l := s.nozzleLock(nozzleID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &ledgerTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault(OpCommit); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range tx.readings {
		s.readings[r.NozzleID] = append(s.readings[r.NozzleID], r)
	}
	s.sales = append(s.sales, tx.sales...)
	s.reviews = append(s.reviews, tx.reviews...)
	return nil
}

// ListReadings implements repository.LedgerRepository.
func (s *Store) ListReadings(ctx context.Context, nozzleID string, limit int) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := append([]models.Reading(nil), s.readings[nozzleID]...)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return truncate(out, limit), nil
}

// ListSales implements repository.LedgerRepository.
func (s *Store) ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []models.Sale
	for _, sale := range s.sales {
		if filter.StationID != "" && sale.StationID != filter.StationID {
			continue
		}
		if filter.NozzleID != "" && sale.NozzleID != filter.NozzleID {
			continue
		}
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		out = append(out, sale)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	return truncate(out, filter.Limit), nil
}

// FinalizeSale implements repository.LedgerRepository.
func (s *Store) FinalizeSale(ctx context.Context, saleID int64, finalizedBy string, at time.Time) (*models.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sales {
		if s.sales[i].ID != saleID {
			continue
		}
		if s.sales[i].Status != models.SaleDraft {
			return nil, repository.ErrSaleAlreadyFinal
		}
		finalizedAt := at
		s.sales[i].Status = models.SaleFinal
		s.sales[i].FinalizedAt = &finalizedAt
		s.sales[i].FinalizedBy = finalizedBy
		out := s.sales[i]
		return &out, nil
	}
	return nil, repository.ErrSaleNotFound
}

// ListReviews implements repository.LedgerRepository.
func (s *Store) ListReviews(ctx context.Context, stationID string, limit int) ([]models.ReadingReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []models.ReadingReview
	for _, rv := range s.reviews {
		if stationID == "" || rv.StationID == stationID {
			out = append(out, rv)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return truncate(out, limit), nil
}

type ledgerTx struct {
	store    *Store
	readings []models.Reading
	sales    []models.Sale
	reviews  []models.ReadingReview
}

func (t *ledgerTx) LatestReading(ctx context.Context, nozzleID string) (*models.Reading, error) {
	if err := t.store.fault(OpLatestReading); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	candidates := append([]models.Reading(nil), t.store.readings[nozzleID]...)
	t.store.mu.RUnlock()
	for _, r := range t.readings {
		if r.NozzleID == nozzleID {
			candidates = append(candidates, r)
		}
	}

	var latest *models.Reading
	for i := range candidates {
		if latest == nil || candidates[i].After(*latest) {
			latest = &candidates[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (t *ledgerTx) AppendReading(ctx context.Context, reading *models.Reading) error {
	if err := t.store.fault(OpAppendReading); err != nil {
		return err
	}
	reading.ID = t.store.nextID()
	reading.CreatedAt = t.store.now()
	t.readings = append(t.readings, *reading)
	return nil
}

func (t *ledgerTx) EffectivePrice(ctx context.Context, stationID string, fuelType models.FuelType, at time.Time) (*models.PriceEntry, error) {
	return t.store.EffectivePrice(ctx, stationID, fuelType, at)
}

func (t *ledgerTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	if err := t.store.fault(OpInsertSale); err != nil {
		return err
	}
	t.store.mu.RLock()
	for _, existing := range t.store.sales {
		if existing.ReadingID == sale.ReadingID {
			t.store.mu.RUnlock()
			return errDuplicateSale
		}
	}
	t.store.mu.RUnlock()

	sale.ID = t.store.nextID()
	sale.CreatedAt = t.store.now()
	sale.Amount = sale.RoundedAmount()
	t.sales = append(t.sales, *sale)
	return nil
}

func (t *ledgerTx) InsertReview(ctx context.Context, review *models.ReadingReview) error {
	if err := t.store.fault(OpInsertReview); err != nil {
		return err
	}
	review.ID = t.store.nextID()
	review.CreatedAt = t.store.now()
	t.reviews = append(t.reviews, *review)
	return nil
}

func truncate[T any](items []T, limit int) []T {
	limit = repository.ClampLimit(limit)
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
