package calendar

import (
	"context"
	"time"
)

// Entry: harga & stok satu produk untuk satu hari kalender.
// Invariant: 0 <= AvailableStock <= TotalStock.
type Entry struct {
	ProductID      string    `json:"product_id"`
	Date           Date      `json:"date"`
	PriceCents     int64     `json:"price_cents"`
	TotalStock     int       `json:"total_stock"`
	AvailableStock int       `json:"available_stock"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EntryInput adalah satu baris batch upsert dari merchant.
type EntryInput struct {
	Date       Date  `json:"date"`
	PriceCents int64 `json:"price_cents"`
	TotalStock int   `json:"total_stock"`
}

// SetResult melaporkan hasil per tanggal; satu tanggal gagal tidak
// membatalkan tanggal lain dalam batch.
type SetResult struct {
	Date Date  `json:"date"`
	Err  error `json:"-"`
}

// Store is the ground truth for "is this date sellable, at what price, how many".
//
// Reserve must be a single atomic compare-and-decrement, never a read-then-write
// pair: two concurrent callers for the same (product, date) may not both succeed
// past the last unit. Release and Reserve on the same entry are serialized by
// the implementation.
type Store interface {
	SetEntries(ctx context.Context, productID string, entries []EntryInput) ([]SetResult, error)
	ListEntries(ctx context.Context, productID string) ([]Entry, error)
	GetEntry(ctx context.Context, productID string, day Date) (Entry, error)
	Reserve(ctx context.Context, productID string, day Date, qty int) error
	Release(ctx context.Context, productID string, day Date, qty int) error
}
