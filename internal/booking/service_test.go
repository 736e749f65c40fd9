package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	"github.com/ariefcatur/go-tour-booking.git/internal/catalog"
	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	"github.com/ariefcatur/go-tour-booking.git/internal/orders"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

var (
	travelDay = calendar.NewDate(2026, time.September, 10)

	customer = users.User{ID: "c1", Role: users.RoleCustomer, Status: users.AccountApproved}
	agent    = users.User{ID: "ag1", Role: users.RoleAgent, Status: users.AccountApproved}
	merchant = users.User{ID: "m1", Role: users.RoleMerchant, Status: users.AccountApproved}
	admin    = users.User{ID: "a1", Role: users.RoleAdmin, Status: users.AccountApproved}
)

func newService(t *testing.T, stock int, priceCents int64) (*Service, *fakeOrders, *calendar.MemoryStore) {
	t.Helper()
	cal := calendar.NewMemoryStore()
	res, err := cal.SetEntries(context.Background(), "p1", []calendar.EntryInput{
		{Date: travelDay, PriceCents: priceCents, TotalStock: stock},
	})
	require.NoError(t, err)
	require.NoError(t, res[0].Err)

	ord := newFakeOrders()
	svc := &Service{
		Products: newFakeProducts(catalog.Product{
			ID: "p1", MerchantID: "m1", Title: "Tur Kawah Ijen", Status: catalog.StatusApproved,
		}),
		Calendar:      cal,
		Orders:        ord,
		CommissionPct: 10,
		Log:           zap.NewNop(),
	}
	return svc, ord, cal
}

func validReq() CreateOrderRequest {
	return CreateOrderRequest{
		ProductID:    "p1",
		TravelDate:   travelDay,
		Party:        orders.Party{Adults: 2, Infants: 1},
		ContactName:  "Budi",
		ContactPhone: "+62-812-0000-0000",
	}
}

// Skenario ujung-ke-ujung: stok 10, harga 100. 2 dewasa + 1 infant =>
// total_people 3, billable 2, total 200, stok sisa 7 (infant tetap makan
// kursi, hanya gratis harganya). Reject mengembalikan 10.
func TestCreateOrder_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _, cal := newService(t, 10, 10000)

	o, idem, err := svc.CreateOrder(ctx, customer, validReq())
	require.NoError(t, err)
	assert.False(t, idem)

	assert.Equal(t, 3, o.TotalPeople)
	assert.Equal(t, int64(10000), o.UnitPriceCents)
	assert.Equal(t, int64(20000), o.TotalCents) // infant gratis
	assert.Equal(t, int64(0), o.AgentMarkup)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.PayUnpaid, o.PaymentStatus)
	assert.Equal(t, "c1", o.CustomerID)
	assert.Empty(t, o.AgentID)
	assert.Equal(t, "m1", o.MerchantID)
	assert.NotEmpty(t, o.OrderNo)

	e, _ := cal.GetEntry(ctx, "p1", travelDay)
	assert.Equal(t, 7, e.AvailableStock)

	// reject mengembalikan stok penuh
	_, err = svc.UpdateOrderStatus(ctx, merchant, o.ID, orders.StatusRejected)
	require.NoError(t, err)
	e, _ = cal.GetEntry(ctx, "p1", travelDay)
	assert.Equal(t, 10, e.AvailableStock)
}

func TestCreateOrder_AgentMarkup(t *testing.T) {
	svc, _, _ := newService(t, 10, 10000)
	req := validReq()
	req.CustomerID = "c9"

	o, _, err := svc.CreateOrder(context.Background(), agent, req)
	require.NoError(t, err)

	assert.Equal(t, "ag1", o.AgentID)
	assert.Equal(t, "c9", o.CustomerID)
	assert.Equal(t, int64(2000), o.AgentMarkup) // 10% dari 20000
	assert.Equal(t, int64(22000), o.TotalCents)
	assert.Equal(t, int64(10000), o.UnitPriceCents) // harga kalender tidak berubah
}

// Harga order disalin by value: edit kalender belakangan tidak mengubah
// order yang sudah ada.
func TestCreateOrder_PriceImmutableAfterBooking(t *testing.T) {
	ctx := context.Background()
	svc, ord, cal := newService(t, 10, 10000)

	o, _, err := svc.CreateOrder(ctx, customer, validReq())
	require.NoError(t, err)

	res, err := cal.SetEntries(ctx, "p1", []calendar.EntryInput{
		{Date: travelDay, PriceCents: 99999, TotalStock: 10},
	})
	require.NoError(t, err)
	require.NoError(t, res[0].Err)

	stored, err := ord.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), stored.UnitPriceCents)
	assert.Equal(t, int64(20000), stored.TotalCents)
}

func TestCreateOrder_Rejections(t *testing.T) {
	svc, _, _ := newService(t, 2, 10000)
	ctx := context.Background()

	t.Run("product not approved", func(t *testing.T) {
		s, _, _ := newService(t, 10, 10000)
		s.Products = newFakeProducts(catalog.Product{ID: "p1", MerchantID: "m1", Status: catalog.StatusPending})
		_, _, err := s.CreateOrder(ctx, customer, validReq())
		assert.True(t, errx.HasKind(err, errx.KindNotFound))
	})

	t.Run("unknown product", func(t *testing.T) {
		req := validReq()
		req.ProductID = "ghost"
		_, _, err := svc.CreateOrder(ctx, customer, req)
		assert.True(t, errx.HasKind(err, errx.KindNotFound))
	})

	t.Run("date without entry", func(t *testing.T) {
		req := validReq()
		req.TravelDate = calendar.NewDate(2026, time.September, 11)
		_, _, err := svc.CreateOrder(ctx, customer, req)
		assert.True(t, errx.HasKind(err, errx.KindNotFound))
	})

	t.Run("insufficient stock", func(t *testing.T) {
		// stok 2, rombongan 3 kepala (infant ikut makan kursi)
		_, _, err := svc.CreateOrder(ctx, customer, validReq())
		assert.True(t, errx.HasKind(err, errx.KindInsufficientStock))
	})

	t.Run("merchant may not order", func(t *testing.T) {
		_, _, err := svc.CreateOrder(ctx, merchant, validReq())
		assert.True(t, errx.HasKind(err, errx.KindAuthorization))
	})

	t.Run("unapproved account", func(t *testing.T) {
		pending := users.User{ID: "c2", Role: users.RoleCustomer, Status: users.AccountPending}
		_, _, err := svc.CreateOrder(ctx, pending, validReq())
		assert.True(t, errx.HasKind(err, errx.KindAuthorization))
	})

	t.Run("validation", func(t *testing.T) {
		req := validReq()
		req.Party = orders.Party{Infants: 2} // tidak ada kepala billable
		_, _, err := svc.CreateOrder(ctx, customer, req)
		assert.True(t, errx.HasKind(err, errx.KindValidation))

		req = validReq()
		req.ContactPhone = "  "
		_, _, err = svc.CreateOrder(ctx, customer, req)
		assert.True(t, errx.HasKind(err, errx.KindValidation))
	})
}

// Persist gagal setelah stok turun: release kompensasi wajib jalan,
// tidak ada stok yang hilang diam-diam.
func TestCreateOrder_CompensatingRelease(t *testing.T) {
	ctx := context.Background()
	svc, ord, cal := newService(t, 10, 10000)
	ord.failCreate = errDBDown

	_, _, err := svc.CreateOrder(ctx, customer, validReq())
	require.Error(t, err)

	e, _ := cal.GetEntry(ctx, "p1", travelDay)
	assert.Equal(t, 10, e.AvailableStock)
}

func TestCreateOrder_IdempotentByExternalID(t *testing.T) {
	ctx := context.Background()
	svc, _, cal := newService(t, 10, 10000)

	req := validReq()
	req.ExternalID = "ext-1"

	first, idem, err := svc.CreateOrder(ctx, customer, req)
	require.NoError(t, err)
	assert.False(t, idem)

	second, idem, err := svc.CreateOrder(ctx, customer, req)
	require.NoError(t, err)
	assert.True(t, idem)
	assert.Equal(t, first.ID, second.ID)

	// stok hanya turun sekali
	e, _ := cal.GetEntry(ctx, "p1", travelDay)
	assert.Equal(t, 7, e.AvailableStock)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, cal := newService(t, 10, 10000)

	o, _, err := svc.CreateOrder(ctx, customer, validReq())
	require.NoError(t, err)

	t.Run("authorization", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, customer, o.ID, orders.StatusConfirmed)
		assert.True(t, errx.HasKind(err, errx.KindAuthorization))

		other := users.User{ID: "m2", Role: users.RoleMerchant, Status: users.AccountApproved}
		_, err = svc.UpdateOrderStatus(ctx, other, o.ID, orders.StatusConfirmed)
		assert.True(t, errx.HasKind(err, errx.KindAuthorization))
	})

	t.Run("confirm does not touch stock", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, merchant, o.ID, orders.StatusConfirmed)
		require.NoError(t, err)
		e, _ := cal.GetEntry(ctx, "p1", travelDay)
		assert.Equal(t, 7, e.AvailableStock)
	})

	t.Run("illegal transition", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, admin, o.ID, orders.StatusPending)
		assert.True(t, errx.HasKind(err, errx.KindStateTransition))
	})

	t.Run("return releases stock", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, admin, o.ID, orders.StatusReturned)
		require.NoError(t, err)
		e, _ := cal.GetEntry(ctx, "p1", travelDay)
		assert.Equal(t, 10, e.AvailableStock)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, admin, "ghost", orders.StatusConfirmed)
		assert.True(t, errx.HasKind(err, errx.KindNotFound))
	})
}

func TestUpdatePayment(t *testing.T) {
	ctx := context.Background()
	svc, ord, cal := newService(t, 10, 10000)

	o, _, err := svc.CreateOrder(ctx, customer, validReq())
	require.NoError(t, err)

	got, err := svc.UpdatePayment(ctx, merchant, o.ID, orders.PayPaid)
	require.NoError(t, err)
	assert.Equal(t, orders.PayPaid, got.PaymentStatus)

	got, err = svc.UpdatePayment(ctx, admin, o.ID, orders.PayConfirmed)
	require.NoError(t, err)
	assert.Equal(t, orders.PayConfirmed, got.PaymentStatus)

	// sumbu pembayaran tidak menyentuh stok
	e, _ := cal.GetEntry(ctx, "p1", travelDay)
	assert.Equal(t, 7, e.AvailableStock)

	_, err = svc.UpdatePayment(ctx, admin, o.ID, orders.PayPaid)
	assert.True(t, errx.HasKind(err, errx.KindStateTransition))

	// order archived: payment beku
	stored, _ := ord.GetByID(ctx, o.ID)
	stored.Status = orders.StatusArchived
	ord.put(stored)
	_, err = svc.UpdatePayment(ctx, admin, o.ID, orders.PayRefunded)
	assert.True(t, errx.HasKind(err, errx.KindStateTransition))
}

// Banyak order paralel memperebutkan stok terbatas lewat Service:
// jumlah yang sukses pas dengan kapasitas, sisanya insufficient stock.
func TestCreateOrder_ConcurrentNoOversell(t *testing.T) {
	ctx := context.Background()
	svc, _, cal := newService(t, 9, 10000) // kapasitas 9 = 3 rombongan isi 3

	const attempts = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		okN  int
		lowN int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.CreateOrder(ctx, customer, validReq())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okN++
			case errx.HasKind(err, errx.KindInsufficientStock):
				lowN++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, okN)
	assert.Equal(t, attempts-3, lowN)
	e, _ := cal.GetEntry(ctx, "p1", travelDay)
	assert.Equal(t, 0, e.AvailableStock)
}

func TestComputeMarkup(t *testing.T) {
	assert.Equal(t, int64(2000), ComputeMarkup(20000, 10))
	assert.Equal(t, int64(1500), ComputeMarkup(10000, 15))
	assert.Equal(t, int64(13), ComputeMarkup(250, 5)) // 12.5 dibulatkan
	assert.Equal(t, int64(0), ComputeMarkup(20000, 0))
	assert.Equal(t, int64(0), ComputeMarkup(0, 10))
	assert.Equal(t, int64(0), ComputeMarkup(-100, 10))
}
