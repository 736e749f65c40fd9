package redisx

import "time"

const (
	// Idempotency create order: idem:booking:create:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:booking:create:%s"

	// Cache status order: booking:order_status:{order_id} -> json ringkas
	KeyOrderStatus = "booking:order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
