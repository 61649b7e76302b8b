package redisx

import "time"

const (
	// Cached product list views: cache:products and cache:products:active.
	// Dropped whenever inventory changes.
	KeyProductList       = "cache:products"
	KeyProductListActive = "cache:products:active"

	// Cached sales-history day view: cache:sales:{YYYY-MM-DD}.
	// Dropped when orders change.
	KeySalesDay = "cache:sales:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLProductCache = 5 * time.Minute
	TTLSalesCache   = time.Minute
	TTLDedup        = 48 * time.Hour
)
