package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
)

type entryKey struct {
	productID string
	day       Date
}

// MemoryStore adalah implementasi Store in-memory untuk test & demo lokal.
// Mutex tunggal menserialisasi reserve/release sehingga jaminan atomiknya
// sama dengan conditional UPDATE di PGStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[entryKey]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryKey]*Entry)}
}

func (s *MemoryStore) SetEntries(_ context.Context, productID string, entries []EntryInput) ([]SetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]SetResult, 0, len(entries))
	for _, in := range entries {
		res := SetResult{Date: in.Date}
		switch {
		case in.Date.IsZero():
			res.Err = errx.E(errx.KindValidation, "missing date")
		case in.TotalStock < 0:
			res.Err = errx.E(errx.KindValidation, "total_stock must be >= 0 for %s", in.Date)
		case in.PriceCents < 0:
			res.Err = errx.E(errx.KindValidation, "price_cents must be >= 0 for %s", in.Date)
		}
		if res.Err != nil {
			results = append(results, res)
			continue
		}

		key := entryKey{productID, in.Date}
		if cur, ok := s.entries[key]; ok {
			reserved := cur.TotalStock - cur.AvailableStock
			if in.TotalStock < reserved {
				res.Err = errx.E(errx.KindInsufficientStock,
					"total_stock %d below already reserved quantity for %s", in.TotalStock, in.Date)
				results = append(results, res)
				continue
			}
			cur.PriceCents = in.PriceCents
			cur.TotalStock = in.TotalStock
			cur.AvailableStock = in.TotalStock - reserved
			cur.UpdatedAt = time.Now()
		} else {
			s.entries[key] = &Entry{
				ProductID:      productID,
				Date:           in.Date,
				PriceCents:     in.PriceCents,
				TotalStock:     in.TotalStock,
				AvailableStock: in.TotalStock,
				UpdatedAt:      time.Now(),
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *MemoryStore) ListEntries(_ context.Context, productID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for k, e := range s.entries {
		if k.productID == productID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) GetEntry(_ context.Context, productID string, day Date) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryKey{productID, day}]
	if !ok {
		return Entry{}, errx.E(errx.KindNotFound, "no calendar entry for product %s on %s", productID, day)
	}
	return *e, nil
}

func (s *MemoryStore) Reserve(_ context.Context, productID string, day Date, qty int) error {
	if qty <= 0 {
		return errx.E(errx.KindValidation, "reserve quantity must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryKey{productID, day}]
	if !ok {
		return errx.E(errx.KindNotFound, "no calendar entry for product %s on %s", productID, day)
	}
	if e.AvailableStock < qty {
		return errx.E(errx.KindInsufficientStock, "insufficient stock for product %s on %s", productID, day)
	}
	e.AvailableStock -= qty
	e.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Release(_ context.Context, productID string, day Date, qty int) error {
	if qty <= 0 {
		return errx.E(errx.KindValidation, "release quantity must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryKey{productID, day}]
	if !ok {
		return errx.E(errx.KindNotFound, "no calendar entry for product %s on %s", productID, day)
	}
	e.AvailableStock += qty
	if e.AvailableStock > e.TotalStock {
		e.AvailableStock = e.TotalStock
	}
	e.UpdatedAt = time.Now()
	return nil
}
