package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-tour-booking.git/internal/booking"
	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	"github.com/ariefcatur/go-tour-booking.git/internal/catalog"
	"github.com/ariefcatur/go-tour-booking.git/internal/errx"
	kafkax "github.com/ariefcatur/go-tour-booking.git/internal/kafka"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type ProductsHandler struct {
	Products *catalog.Repo
	Calendar calendar.Store
	Producer *kafkax.Producer // booking.product.status
	Log      *zap.Logger
	Service  string
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Post("/products", h.create)
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.updateContent)
	r.Put("/products/{id}/status", h.updateStatus)
	r.Post("/products/{id}/schedule", h.setSchedule)
	r.Get("/products/{id}/schedule", h.listSchedule)
}

type productContentReq struct {
	Title         string `json:"title"`
	TitleEN       string `json:"title_en"`
	Description   string `json:"description"`
	DescriptionEN string `json:"description_en"`
	PriceCents    int64  `json:"price_cents"`
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	if actor.Role != users.RoleMerchant || !actor.CanAct() {
		writeErr(w, errx.E(errx.KindAuthorization, "only an approved merchant may create products"))
		return
	}
	var req productContentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Title == "" || req.PriceCents < 0 {
		writeErr(w, errx.E(errx.KindValidation, "title is required and price must be >= 0"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := catalog.Product{
		MerchantID:    actor.ID,
		Title:         req.Title,
		TitleEN:       req.TitleEN,
		Description:   req.Description,
		DescriptionEN: req.DescriptionEN,
		PriceCents:    req.PriceCents,
	}
	if err := h.Products.Create(ctx, &p); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Products.List(ctx, users.ScopeFor(actor))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if !users.ScopeFor(actor).CanSeeProduct(p.MerchantID, p.Status == catalog.StatusApproved) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if p.Status == catalog.StatusApproved {
		if err := h.Products.IncrViewCount(ctx, p.ID); err != nil {
			h.Log.Warn("view counter bump failed", zap.String("product_id", p.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) updateContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var req productContentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := catalog.Product{
		ID:            chi.URLParam(r, "id"),
		Title:         req.Title,
		TitleEN:       req.TitleEN,
		Description:   req.Description,
		DescriptionEN: req.DescriptionEN,
		PriceCents:    req.PriceCents,
	}
	if err := h.Products.UpdateContent(ctx, actor, p); err != nil {
		writeErr(w, err)
		return
	}
	updated, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type productStatusReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *ProductsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var req productStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	to := catalog.Status(req.Status)
	if err := catalog.Transition(actor, p, to); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Products.SetStatus(ctx, p.ID, p.Status, to, req.Reason); err != nil {
		writeErr(w, err)
		return
	}
	h.publishStatusChanged(r, p, to, req.Reason)

	updated, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type scheduleResp struct {
	Date  calendar.Date `json:"date"`
	OK    bool          `json:"ok"`
	Error string        `json:"error,omitempty"`
}

// setSchedule: batch upsert kalender; hasil dilaporkan per tanggal.
func (h *ProductsHandler) setSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var entries []calendar.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(entries) == 0 {
		writeErr(w, errx.E(errx.KindValidation, "empty schedule batch"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if actor.Role != users.RoleMerchant || actor.ID != p.MerchantID || !actor.CanAct() {
		writeErr(w, errx.E(errx.KindAuthorization, "only the owning merchant may set the schedule of product %s", p.ID))
		return
	}

	results, err := h.Calendar.SetEntries(ctx, p.ID, entries)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]scheduleResp, 0, len(results))
	failed := 0
	for _, res := range results {
		item := scheduleResp{Date: res.Date, OK: res.Err == nil}
		if res.Err != nil {
			item.Error = res.Err.Error()
			failed++
		}
		out = append(out, item)
	}
	code := http.StatusOK
	if failed > 0 {
		code = http.StatusMultiStatus
	}
	writeJSON(w, code, out)
}

func (h *ProductsHandler) listSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if !users.ScopeFor(actor).CanSeeProduct(p.MerchantID, p.Status == catalog.StatusApproved) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	entries, err := h.Calendar.ListEntries(ctx, p.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ProductsHandler) publishStatusChanged(r *http.Request, p catalog.Product, to catalog.Status, reason string) {
	ev := booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     booking.EventProductStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: p.ID,
		Payload: kafkax.MustMarshal(booking.ProductStatusChangedPayload{
			ProductID: p.ID, From: string(p.Status), To: string(to), RejectReason: reason,
		}),
	}
	h.Producer.Publish(booking.PartitionKey(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(booking.EventProductStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
