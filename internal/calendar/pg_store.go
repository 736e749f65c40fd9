package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
)

// PGStore menyimpan calendar_entries di Postgres.
// Kolom day bertipe DATE sehingga komponen jam tidak pernah ikut tersimpan.
type PGStore struct{ DB *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{DB: db} }

// SetEntries: upsert per tanggal dalam satu tx.
// Stok yang sudah ter-reserve (total lama - available lama) dipertahankan:
// available baru = total baru - reserved. Kalau total baru < reserved,
// tanggal itu gagal sendiri (WHERE menolak, RowsAffected 0) dan tanggal lain
// tetap jalan.
func (s *PGStore) SetEntries(ctx context.Context, productID string, entries []EntryInput) ([]SetResult, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := make([]SetResult, 0, len(entries))
	for _, e := range entries {
		res := SetResult{Date: e.Date}
		switch {
		case e.Date.IsZero():
			res.Err = errx.E(errx.KindValidation, "missing date")
		case e.TotalStock < 0:
			res.Err = errx.E(errx.KindValidation, "total_stock must be >= 0 for %s", e.Date)
		case e.PriceCents < 0:
			res.Err = errx.E(errx.KindValidation, "price_cents must be >= 0 for %s", e.Date)
		}
		if res.Err != nil {
			results = append(results, res)
			continue
		}

		ct, err := tx.Exec(ctx, `
			INSERT INTO calendar_entries(product_id, day, price_cents, total_stock, available_stock, updated_at)
			VALUES ($1, $2, $3, $4, $4, now())
			ON CONFLICT (product_id, day) DO UPDATE
			SET price_cents     = EXCLUDED.price_cents,
			    total_stock     = EXCLUDED.total_stock,
			    available_stock = EXCLUDED.total_stock - (calendar_entries.total_stock - calendar_entries.available_stock),
			    updated_at      = now()
			WHERE EXCLUDED.total_stock >= calendar_entries.total_stock - calendar_entries.available_stock
		`, productID, e.Date.Time(), e.PriceCents, e.TotalStock)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() == 0 {
			res.Err = errx.E(errx.KindInsufficientStock,
				"total_stock %d below already reserved quantity for %s", e.TotalStock, e.Date)
		}
		results = append(results, res)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PGStore) ListEntries(ctx context.Context, productID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, day, price_cents, total_stock, available_stock, updated_at
		FROM calendar_entries WHERE product_id = $1 ORDER BY day
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) GetEntry(ctx context.Context, productID string, day Date) (Entry, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT product_id, day, price_cents, total_stock, available_stock, updated_at
		FROM calendar_entries WHERE product_id = $1 AND day = $2
	`, productID, day.Time())
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, errx.E(errx.KindNotFound, "no calendar entry for product %s on %s", productID, day)
	}
	return e, err
}

// Reserve: satu conditional UPDATE, bukan read-then-write.
// RowsAffected 0 berarti stok kurang (atau entry tidak ada).
func (s *PGStore) Reserve(ctx context.Context, productID string, day Date, qty int) error {
	if qty <= 0 {
		return errx.E(errx.KindValidation, "reserve quantity must be > 0")
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE calendar_entries
		SET available_stock = available_stock - $3, updated_at = now()
		WHERE product_id = $1 AND day = $2 AND available_stock >= $3
	`, productID, day.Time(), qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	// bedakan entry hilang vs stok kurang
	if _, err := s.GetEntry(ctx, productID, day); err != nil {
		return err
	}
	return errx.E(errx.KindInsufficientStock, "insufficient stock for product %s on %s", productID, day)
}

// Release mengembalikan stok, di-clamp supaya tidak melewati total_stock.
func (s *PGStore) Release(ctx context.Context, productID string, day Date, qty int) error {
	if qty <= 0 {
		return errx.E(errx.KindValidation, "release quantity must be > 0")
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE calendar_entries
		SET available_stock = LEAST(available_stock + $3, total_stock), updated_at = now()
		WHERE product_id = $1 AND day = $2
	`, productID, day.Time(), qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errx.E(errx.KindNotFound, "no calendar entry for product %s on %s", productID, day)
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e   Entry
		day time.Time
	)
	if err := row.Scan(&e.ProductID, &day, &e.PriceCents, &e.TotalStock, &e.AvailableStock, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}
	e.Date = FromTime(day)
	return e, nil
}
