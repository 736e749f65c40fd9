package booking

import (
	"encoding/json"
	"time"

	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	"github.com/ariefcatur/go-tour-booking.git/internal/orders"
)

const (
	EventOrderCreated         = "OrderCreated"
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventOrderPaymentChanged  = "OrderPaymentChanged"
	EventProductStatusChanged = "ProductStatusChanged"
)

const (
	TopicOrderCreated  = "booking.order.created"
	TopicOrderStatus   = "booking.order.status"
	TopicProductStatus = "booking.product.status"
)

// Partition key = order_id supaya semua event satu order terjaga urutannya.
func PartitionKey(id string) []byte { return []byte(id) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string        `json:"order_id"`
	OrderNo     string        `json:"order_no"`
	ProductID   string        `json:"product_id"`
	MerchantID  string        `json:"merchant_id"`
	TravelDate  calendar.Date `json:"travel_date"`
	TotalPeople int           `json:"total_people"`
	TotalCents  int64         `json:"total_cents"`
	Status      orders.Status `json:"status"`
}

type OrderStatusChangedPayload struct {
	OrderID       string               `json:"order_id"`
	From          orders.Status        `json:"from"`
	To            orders.Status        `json:"to"`
	PaymentStatus orders.PaymentStatus `json:"payment_status"`
	StockReleased bool                 `json:"stock_released"`
}

// Dipublish di topic status yang sama, tapi event type sendiri supaya
// consumer tidak mengira ada perubahan status order.
type OrderPaymentChangedPayload struct {
	OrderID string               `json:"order_id"`
	Status  orders.Status        `json:"status"`
	From    orders.PaymentStatus `json:"from"`
	To      orders.PaymentStatus `json:"to"`
}

type ProductStatusChangedPayload struct {
	ProductID    string `json:"product_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	RejectReason string `json:"reject_reason,omitempty"`
}
