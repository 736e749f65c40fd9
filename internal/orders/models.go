package orders

import (
	"time"

	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
)

// Party: komposisi rombongan satu order.
// Infant ikut menempati kapasitas tetapi tidak ikut dihitung harga.
type Party struct {
	Adults          int `json:"adults"`
	ChildrenNoBed   int `json:"children_no_bed"`
	ChildrenWithBed int `json:"children_with_bed"`
	Infants         int `json:"infants"`
}

// TotalPeople: semua kepala, dipakai untuk konsumsi stok.
func (p Party) TotalPeople() int {
	return p.Adults + p.ChildrenNoBed + p.ChildrenWithBed + p.Infants
}

// Billable: kepala yang ikut harga (tanpa infant).
func (p Party) Billable() int {
	return p.Adults + p.ChildrenNoBed + p.ChildrenWithBed
}

func (p Party) Valid() bool {
	if p.Adults < 0 || p.ChildrenNoBed < 0 || p.ChildrenWithBed < 0 || p.Infants < 0 {
		return false
	}
	return p.TotalPeople() > 0 && p.Billable() > 0
}

// Order menyalin harga satuan by value saat booking; edit kalender belakangan
// tidak pernah mengubah harga order yang sudah ada.
type Order struct {
	ID             string        `json:"id"`
	OrderNo        string        `json:"order_no"`
	ExternalID     string        `json:"external_id,omitempty"`
	ProductID      string        `json:"product_id"`
	MerchantID     string        `json:"merchant_id"` // denormalized dari product saat create
	AgentID        string        `json:"agent_id,omitempty"`
	CustomerID     string        `json:"customer_id,omitempty"`
	TravelDate     calendar.Date `json:"travel_date"`
	Party          Party         `json:"party"`
	TotalPeople    int           `json:"total_people"`
	UnitPriceCents int64         `json:"unit_price_cents"`
	TotalCents     int64         `json:"total_cents"`
	AgentMarkup    int64         `json:"agent_markup_cents,omitempty"`
	Status         Status        `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	ContactName    string        `json:"contact_name"`
	ContactPhone   string        `json:"contact_phone"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
