package redisx

import "time"

const (
	// Session lookup: session:{session_id} -> user_id
	KeySession = "session:%s"

	// Machine API fixed-window counter: ratelimit:token:{token_id}
	KeyRateLimit = "ratelimit:token:%s"

	// Cache order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{id}
	KeyDedup = "dedup:%s:%s"

	// Dedup per-recipient delivery attempt: delivery:{communication_id}:{record_id}:{retry}
	KeyDelivery = "delivery:%s:%s:%d"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLDelivery    = 48 * time.Hour
)
