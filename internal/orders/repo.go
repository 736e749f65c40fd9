package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, order_no, external_id, product_id, merchant_id, agent_id, customer_id,
		                   travel_date, adults, children_no_bed, children_with_bed, infants, total_people,
		                   unit_price_cents, total_cents, agent_markup_cents, status, payment_status,
		                   contact_name, contact_phone, created_at, updated_at)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,NULLIF($6,''),NULLIF($7,''),
		        $8,$9,$10,$11,$12,$13,
		        $14,$15,$16,$17,$18,
		        $19,$20,$21,$21)
	`, o.ID, o.OrderNo, o.ExternalID, o.ProductID, o.MerchantID, o.AgentID, o.CustomerID,
		o.TravelDate.Time(), o.Party.Adults, o.Party.ChildrenNoBed, o.Party.ChildrenWithBed, o.Party.Infants, o.TotalPeople,
		o.UnitPriceCents, o.TotalCents, o.AgentMarkup, o.Status, o.PaymentStatus,
		o.ContactName, o.ContactPhone, now)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, errx.E(errx.KindNotFound, "order not found: %s", id)
	}
	return o, err
}

// GetByExternalID dipakai jalur idempotensi create (external_id dari client).
func (r *Repo) GetByExternalID(ctx context.Context, externalID string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, selectOrder+` WHERE external_id = $1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, errx.E(errx.KindNotFound, "order not found: external_id=%s", externalID)
	}
	return o, err
}

// List menerapkan scope di sisi server SEBELUM data keluar dari core.
func (r *Repo) List(ctx context.Context, scope users.Scope) ([]Order, error) {
	where, args := scope.OrderPredicate()
	rows, err := r.DB.Query(ctx, selectOrder+` WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus: conditional update dengan status asal sebagai guard;
// kalah balapan -> ConcurrencyConflict, caller yang memutuskan retry.
func (r *Repo) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2
	`, id, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errx.E(errx.KindConflict, "order %s changed concurrently, retry", id)
	}
	return nil
}

// UpdatePayment: payment boleh berubah pada order non-archived mana pun.
func (r *Repo) UpdatePayment(ctx context.Context, id string, from, to PaymentStatus) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_status=$3, updated_at=now()
		WHERE id=$1 AND payment_status=$2 AND status <> 'archived'
	`, id, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errx.E(errx.KindConflict, "order %s payment changed concurrently, retry", id)
	}
	return nil
}

const selectOrder = `
	SELECT id, order_no, COALESCE(external_id,''), product_id, merchant_id,
	       COALESCE(agent_id,''), COALESCE(customer_id,''),
	       travel_date, adults, children_no_bed, children_with_bed, infants, total_people,
	       unit_price_cents, total_cents, agent_markup_cents, status, payment_status,
	       contact_name, contact_phone, created_at, updated_at
	FROM orders`

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (Order, error) {
	var (
		o          Order
		travelDate time.Time
	)
	err := row.Scan(&o.ID, &o.OrderNo, &o.ExternalID, &o.ProductID, &o.MerchantID,
		&o.AgentID, &o.CustomerID,
		&travelDate, &o.Party.Adults, &o.Party.ChildrenNoBed, &o.Party.ChildrenWithBed, &o.Party.Infants, &o.TotalPeople,
		&o.UnitPriceCents, &o.TotalCents, &o.AgentMarkup, &o.Status, &o.PaymentStatus,
		&o.ContactName, &o.ContactPhone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.TravelDate = calendar.FromTime(travelDate)
	return o, nil
}
