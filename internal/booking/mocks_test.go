package booking

import (
	"context"
	"errors"
	"sync"

	"github.com/ariefcatur/go-tour-booking.git/internal/catalog"
	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	"github.com/ariefcatur/go-tour-booking.git/internal/orders"
)

type fakeProducts struct {
	mu          sync.Mutex
	byID        map[string]catalog.Product
	orderCounts map[string]int
}

func newFakeProducts(ps ...catalog.Product) *fakeProducts {
	f := &fakeProducts{byID: map[string]catalog.Product{}, orderCounts: map[string]int{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return catalog.Product{}, errx.E(errx.KindNotFound, "product not found: %s", id)
	}
	return p, nil
}

func (f *fakeProducts) IncrOrderCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCounts[id]++
	return nil
}

type fakeOrders struct {
	mu         sync.Mutex
	byID       map[string]orders.Order
	failCreate error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: map[string]orders.Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *orders.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return orders.Order{}, errx.E(errx.KindNotFound, "order not found: %s", id)
	}
	return o, nil
}

func (f *fakeOrders) GetByExternalID(_ context.Context, externalID string) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		if o.ExternalID == externalID {
			return o, nil
		}
	}
	return orders.Order{}, errx.E(errx.KindNotFound, "order not found: external_id=%s", externalID)
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, from, to orders.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok || o.Status != from {
		return errx.E(errx.KindConflict, "order %s changed concurrently, retry", id)
	}
	o.Status = to
	f.byID[id] = o
	return nil
}

func (f *fakeOrders) UpdatePayment(_ context.Context, id string, from, to orders.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok || o.PaymentStatus != from || o.Status == orders.StatusArchived {
		return errx.E(errx.KindConflict, "order %s payment changed concurrently, retry", id)
	}
	o.PaymentStatus = to
	f.byID[id] = o
	return nil
}

// put menimpa order langsung, untuk menyiapkan state tertentu di test.
func (f *fakeOrders) put(o orders.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[o.ID] = o
}

var errDBDown = errors.New("connection refused")
