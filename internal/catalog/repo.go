package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = StatusDraft
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, merchant_id, title, title_en, description, description_en,
		                     price_cents, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
	`, p.ID, p.MerchantID, p.Title, p.TitleEN, p.Description, p.DescriptionEN,
		p.PriceCents, p.Status, now)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id string) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, merchant_id, title, title_en, description, description_en,
		       price_cents, status, reject_reason, view_count, order_count, created_at, updated_at
		FROM products WHERE id = $1
	`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, errx.E(errx.KindNotFound, "product not found: %s", id)
	}
	return p, err
}

// List mengembalikan produk sesuai scope: publik hanya melihat yang approved.
func (r *Repo) List(ctx context.Context, scope users.Scope) ([]Product, error) {
	where, args := scope.ProductPredicate()
	rows, err := r.DB.Query(ctx, `
		SELECT id, merchant_id, title, title_en, description, description_en,
		       price_cents, status, reject_reason, view_count, order_count, created_at, updated_at
		FROM products WHERE `+where+` ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateContent: hanya konten, hanya saat draft/rejected, hanya pemilik.
func (r *Repo) UpdateContent(ctx context.Context, actor users.User, p Product) error {
	cur, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if actor.Role != users.RoleMerchant || actor.ID != cur.MerchantID {
		return errx.E(errx.KindAuthorization, "only the owning merchant may edit product %s", p.ID)
	}
	if !cur.Editable() {
		return errx.E(errx.KindStateTransition, "product %s is not editable in status %s", p.ID, cur.Status)
	}
	_, err = r.DB.Exec(ctx, `
		UPDATE products
		SET title=$2, title_en=$3, description=$4, description_en=$5, price_cents=$6, updated_at=now()
		WHERE id=$1
	`, p.ID, p.Title, p.TitleEN, p.Description, p.DescriptionEN, p.PriceCents)
	return err
}

// SetStatus: conditional update dengan status asal sebagai guard.
// RowsAffected 0 berarti ada transisi lain yang menang duluan.
func (r *Repo) SetStatus(ctx context.Context, id string, from, to Status, reason string) error {
	// resubmit menghapus alasan penolakan lama
	if to == StatusPending {
		reason = ""
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET status=$3, reject_reason=$4, updated_at=now()
		WHERE id=$1 AND status=$2
	`, id, from, to, reason)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errx.E(errx.KindConflict, "product %s changed concurrently, retry", id)
	}
	return nil
}

func (r *Repo) IncrViewCount(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `UPDATE products SET view_count = view_count + 1 WHERE id=$1`, id)
	return err
}

func (r *Repo) IncrOrderCount(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `UPDATE products SET order_count = order_count + 1 WHERE id=$1`, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.MerchantID, &p.Title, &p.TitleEN, &p.Description, &p.DescriptionEN,
		&p.PriceCents, &p.Status, &p.RejectReason, &p.ViewCount, &p.OrderCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
