package catalog

import "time"

// Product tidak pernah dihapus fisik; archived adalah akhir hidupnya.
type Product struct {
	ID            string    `json:"id"`
	MerchantID    string    `json:"merchant_id"`
	Title         string    `json:"title"`
	TitleEN       string    `json:"title_en,omitempty"`
	Description   string    `json:"description,omitempty"`
	DescriptionEN string    `json:"description_en,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	Status        Status    `json:"status"`
	RejectReason  string    `json:"reject_reason,omitempty"`
	ViewCount     int       `json:"view_count"`
	OrderCount    int       `json:"order_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Editable: konten hanya boleh diubah merchant selama draf atau setelah ditolak.
func (p Product) Editable() bool {
	return p.Status == StatusDraft || p.Status == StatusRejected
}
