package redisx

import "time"

const (
	// Coupon chosen for the in-progress checkout: checkout:discount:{owner} -> Selection JSON
	KeySelection = "checkout:discount:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSelection = 24 * time.Hour
	TTLDedup     = 48 * time.Hour
)
