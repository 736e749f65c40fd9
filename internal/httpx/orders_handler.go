package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-tour-booking.git/internal/booking"
	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	kafkax "github.com/ariefcatur/go-tour-booking.git/internal/kafka"
	"github.com/ariefcatur/go-tour-booking.git/internal/orders"
	"github.com/ariefcatur/go-tour-booking.git/internal/redisx"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type OrdersHandler struct {
	Booking        *booking.Service
	Orders         *orders.Repo
	Redis          *redis.Client
	Producer       *kafkax.Producer // booking.order.created
	StatusProducer *kafkax.Producer // booking.order.status
	Log            *zap.Logger
	Service        string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Put("/orders/{id}/status", h.updateStatus)
	r.Put("/orders/{id}/payment", h.updatePayment)
}

type createOrderReq struct {
	ExternalID   string       `json:"external_id"`
	ProductID    string       `json:"product_id"`
	TravelDate   string       `json:"travel_date"` // ISO date, tanpa komponen jam
	Party        orders.Party `json:"party"`
	CustomerID   string       `json:"customer_id"`
	ContactName  string       `json:"contact_name"`
	ContactPhone string       `json:"contact_phone"`
}

type createOrderResp struct {
	OrderID    string        `json:"order_id"`
	OrderNo    string        `json:"order_no"`
	Status     orders.Status `json:"status"`
	TotalCents int64         `json:"total_cents"`
	Idempotent bool          `json:"idempotent"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	day, err := calendar.ParseDate(req.TravelDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, idempotent, err := h.Booking.CreateOrder(ctx, actor, booking.CreateOrderRequest{
		ExternalID:   req.ExternalID,
		ProductID:    req.ProductID,
		TravelDate:   day,
		Party:        req.Party,
		CustomerID:   req.CustomerID,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	if !idempotent {
		h.cacheStatus(ctx, o)
		if o.ExternalID != "" {
			idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, o.ExternalID)
			_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
		}
		h.publishCreated(r, o)
	}

	code := http.StatusCreated
	if idempotent {
		code = http.StatusOK
	}
	writeJSON(w, code, createOrderResp{
		OrderID: o.ID, OrderNo: o.OrderNo, Status: o.Status,
		TotalCents: o.TotalCents, Idempotent: idempotent,
	})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Orders.List(ctx, users.ScopeFor(actor))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	// jangan bocorkan keberadaan order milik orang lain
	if !users.ScopeFor(actor).CanSeeOrder(o.MerchantID, o.AgentID, o.CustomerID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getStatus: fast path via redis, fallback DB (tetap scoped).
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// admin boleh langsung dari cache; role lain tetap cek kepemilikan dulu
	if actor.Role == users.RoleAdmin {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !users.ScopeFor(actor).CanSeeOrder(o.MerchantID, o.AgentID, o.CustomerID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, statusBody(o))
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	before, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	o, err := h.Booking.UpdateOrderStatus(ctx, actor, orderID, orders.Status(req.Status))
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publishStatusChanged(r, o, before.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	before, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	o, err := h.Booking.UpdatePayment(ctx, actor, orderID, orders.PaymentStatus(req.Status))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	h.publishPaymentChanged(r, o, before.PaymentStatus)
	writeJSON(w, http.StatusOK, o)
}

func statusBody(o orders.Order) map[string]any {
	return map[string]any{
		"order_id":       o.ID,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
	}
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(statusBody(o)), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publishCreated(r *http.Request, o orders.Order) {
	ev := booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     booking.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(booking.OrderCreatedPayload{
			OrderID: o.ID, OrderNo: o.OrderNo, ProductID: o.ProductID, MerchantID: o.MerchantID,
			TravelDate: o.TravelDate, TotalPeople: o.TotalPeople, TotalCents: o.TotalCents, Status: o.Status,
		}),
	}
	h.Producer.Publish(booking.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(booking.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) publishStatusChanged(r *http.Request, o orders.Order, from orders.Status) {
	ev := booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     booking.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(booking.OrderStatusChangedPayload{
			OrderID: o.ID, From: from, To: o.Status,
			PaymentStatus: o.PaymentStatus, StockReleased: orders.ReleasesStock(o.Status) && from != o.Status,
		}),
	}
	h.StatusProducer.Publish(booking.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(booking.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) publishPaymentChanged(r *http.Request, o orders.Order, from orders.PaymentStatus) {
	ev := booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     booking.EventOrderPaymentChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(booking.OrderPaymentChangedPayload{
			OrderID: o.ID, Status: o.Status, From: from, To: o.PaymentStatus,
		}),
	}
	h.StatusProducer.Publish(booking.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(booking.EventOrderPaymentChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
