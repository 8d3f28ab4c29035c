package redisx

import "time"

const (
	// Cart lines: cart:{owner_id} hash, field product_id -> quantity
	KeyCart = "cart:%s"

	// Order status read cache: order_status:{order_id} -> JSON summary
	KeyOrderStatus = "order_status:%s"
)

var (
	// Anonymous carts carry no durability promise; the TTL is housekeeping.
	TTLCart        = 30 * 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
)
