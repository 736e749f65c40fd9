package booking

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	"github.com/ariefcatur/go-tour-booking.git/internal/catalog"
	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	"github.com/ariefcatur/go-tour-booking.git/internal/orders"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type ProductStore interface {
	GetByID(ctx context.Context, id string) (catalog.Product, error)
	IncrOrderCount(ctx context.Context, id string) error
}

type OrderStore interface {
	Create(ctx context.Context, o *orders.Order) error
	GetByID(ctx context.Context, id string) (orders.Order, error)
	GetByExternalID(ctx context.Context, externalID string) (orders.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to orders.Status) error
	UpdatePayment(ctx context.Context, id string, from, to orders.PaymentStatus) error
}

// Service adalah reservation engine: validasi -> lookup kalender -> hitung
// harga -> reserve stok atomik -> persist order (+ release kompensasi).
type Service struct {
	Products      ProductStore
	Calendar      calendar.Store
	Orders        OrderStore
	CommissionPct float64
	Log           *zap.Logger
}

type CreateOrderRequest struct {
	ExternalID   string        `json:"external_id,omitempty"`
	ProductID    string        `json:"product_id"`
	TravelDate   calendar.Date `json:"travel_date"`
	Party        orders.Party  `json:"party"`
	CustomerID   string        `json:"customer_id,omitempty"` // diisi agent saat booking atas nama customer
	ContactName  string        `json:"contact_name"`
	ContactPhone string        `json:"contact_phone"`
}

func (r CreateOrderRequest) validate() error {
	switch {
	case r.ProductID == "":
		return errx.E(errx.KindValidation, "missing product_id")
	case r.TravelDate.IsZero():
		return errx.E(errx.KindValidation, "missing travel_date")
	case !r.Party.Valid():
		return errx.E(errx.KindValidation, "party must have at least one billable person and no negative counts")
	case strings.TrimSpace(r.ContactName) == "" || strings.TrimSpace(r.ContactPhone) == "":
		return errx.E(errx.KindValidation, "contact name and phone are required")
	}
	return nil
}

// CreateOrder membuat order baru atas nama actor (customer, atau agent untuk
// customer-nya). Return idempotent=true kalau external_id sudah pernah dipakai.
func (s *Service) CreateOrder(ctx context.Context, actor users.User, req CreateOrderRequest) (orders.Order, bool, error) {
	if !actor.CanAct() {
		return orders.Order{}, false, errx.E(errx.KindAuthorization, "account %s is not approved", actor.ID)
	}
	if actor.Role != users.RoleCustomer && actor.Role != users.RoleAgent {
		return orders.Order{}, false, errx.E(errx.KindAuthorization, "role %s may not place orders", actor.Role)
	}
	if err := req.validate(); err != nil {
		return orders.Order{}, false, err
	}

	// idempotensi via external_id; DB tetap sumber kebenaran
	if req.ExternalID != "" {
		existing, err := s.Orders.GetByExternalID(ctx, req.ExternalID)
		switch {
		case err == nil:
			// external_id orang lain tidak boleh dipakai untuk mengintip order
			if existing.CustomerID != actor.ID && existing.AgentID != actor.ID {
				return orders.Order{}, false, errx.E(errx.KindConflict, "external_id %s already used", req.ExternalID)
			}
			return existing, true, nil
		case !errx.HasKind(err, errx.KindNotFound):
			return orders.Order{}, false, err
		}
	}

	product, err := s.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		return orders.Order{}, false, err
	}
	if product.Status != catalog.StatusApproved {
		return orders.Order{}, false, errx.E(errx.KindNotFound, "product %s is not open for booking", product.ID)
	}

	entry, err := s.Calendar.GetEntry(ctx, product.ID, req.TravelDate)
	if err != nil {
		return orders.Order{}, false, err
	}

	// infant menempati kursi tapi tidak ikut harga
	totalPeople := req.Party.TotalPeople()
	billable := req.Party.Billable()
	unitPrice := entry.PriceCents
	total := unitPrice * int64(billable)

	if err := s.Calendar.Reserve(ctx, product.ID, req.TravelDate, totalPeople); err != nil {
		return orders.Order{}, false, err
	}

	o := orders.Order{
		ID:             uuid.NewString(),
		ExternalID:     req.ExternalID,
		ProductID:      product.ID,
		MerchantID:     product.MerchantID,
		TravelDate:     req.TravelDate,
		Party:          req.Party,
		TotalPeople:    totalPeople,
		UnitPriceCents: unitPrice,
		TotalCents:     total,
		Status:         orders.StatusPending,
		PaymentStatus:  orders.PayUnpaid,
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactPhone:   strings.TrimSpace(req.ContactPhone),
	}
	o.OrderNo = newOrderNo(o.ID, req.TravelDate)

	switch actor.Role {
	case users.RoleAgent:
		o.AgentID = actor.ID
		o.CustomerID = req.CustomerID
		o.AgentMarkup = ComputeMarkup(total, s.CommissionPct)
		o.TotalCents += o.AgentMarkup
	case users.RoleCustomer:
		o.CustomerID = actor.ID
	}

	if err := s.Orders.Create(ctx, &o); err != nil {
		// stok sudah terlanjur turun; wajib dikembalikan, jangan hilang diam-diam
		if relErr := s.Calendar.Release(ctx, product.ID, req.TravelDate, totalPeople); relErr != nil {
			s.Log.Error("compensating release failed",
				zap.String("product_id", product.ID),
				zap.String("travel_date", req.TravelDate.String()),
				zap.Int("qty", totalPeople),
				zap.Error(relErr))
		}
		return orders.Order{}, false, err
	}

	if err := s.Products.IncrOrderCount(ctx, product.ID); err != nil {
		s.Log.Warn("order counter bump failed", zap.String("product_id", product.ID), zap.Error(err))
	}
	return o, false, nil
}

// UpdateOrderStatus menjalankan state machine order; rejected/returned
// mengembalikan stok ke kalender.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor users.User, orderID string, to orders.Status) (orders.Order, error) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if err := s.authorizeMutation(actor, o); err != nil {
		return orders.Order{}, err
	}
	if err := orders.CheckTransition(o.Status, to); err != nil {
		return orders.Order{}, err
	}
	if err := s.Orders.UpdateStatus(ctx, o.ID, o.Status, to); err != nil {
		return orders.Order{}, err
	}

	from := o.Status
	o.Status = to
	if orders.ReleasesStock(to) {
		if err := s.Calendar.Release(ctx, o.ProductID, o.TravelDate, o.TotalPeople); err != nil {
			s.Log.Error("stock release failed",
				zap.String("order_id", o.ID),
				zap.String("from", string(from)),
				zap.String("to", string(to)),
				zap.Error(err))
			return o, err
		}
	}
	return o, nil
}

// UpdatePayment menggerakkan sumbu pembayaran; tidak pernah menyentuh stok.
func (s *Service) UpdatePayment(ctx context.Context, actor users.User, orderID string, to orders.PaymentStatus) (orders.Order, error) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if err := s.authorizeMutation(actor, o); err != nil {
		return orders.Order{}, err
	}
	if o.Status == orders.StatusArchived {
		return orders.Order{}, errx.E(errx.KindStateTransition, "order %s is archived", o.ID)
	}
	if err := orders.CheckPaymentTransition(o.PaymentStatus, to); err != nil {
		return orders.Order{}, err
	}
	if err := s.Orders.UpdatePayment(ctx, o.ID, o.PaymentStatus, to); err != nil {
		return orders.Order{}, err
	}
	o.PaymentStatus = to
	return o, nil
}

// hanya merchant pemilik atau admin yang boleh memutasi order
func (s *Service) authorizeMutation(actor users.User, o orders.Order) error {
	if !actor.CanAct() {
		return errx.E(errx.KindAuthorization, "account %s is not approved", actor.ID)
	}
	if actor.Role == users.RoleAdmin {
		return nil
	}
	if actor.Role == users.RoleMerchant && actor.ID == o.MerchantID {
		return nil
	}
	return errx.E(errx.KindAuthorization, "role %s may not mutate order %s", actor.Role, o.ID)
}

// Nomor order manusiawi: tanggal jalan + potongan uuid.
func newOrderNo(id string, d calendar.Date) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:8]
	return "TB" + strings.ReplaceAll(d.String(), "-", "") + "-" + short
}
