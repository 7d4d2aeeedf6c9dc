package report

import "go.uber.org/atomic"

type MarketErrors struct {
	DbErrors               atomic.Uint64 `json:"db_errors"`
	PaymentFailures        atomic.Uint64 `json:"payment_failures"`
	PaymentReuseRejections atomic.Uint64 `json:"payment_reuse_rejections"`
	VerificationTimeouts   atomic.Uint64 `json:"verification_timeouts"`
	RaceLost               atomic.Uint64 `json:"race_lost"`
	GenerationFailures     atomic.Uint64 `json:"generation_failures"`
	EventPublishFailures   atomic.Uint64 `json:"event_publish_failures"`
}

type MarketState struct {
	ListingsCreated         atomic.Uint64  `json:"listings_created"`
	ListingsSold            atomic.Uint64  `json:"listings_sold"`
	ListingsCancelled       atomic.Uint64  `json:"listings_cancelled"`
	ListingsExpired         atomic.Uint64  `json:"listings_expired"`
	BoxesOpened             atomic.Uint64  `json:"boxes_opened"`
	PaymentsSettled         atomic.Uint64  `json:"payments_settled"`
	EventsPublished         atomic.Uint64  `json:"events_published"`
	AverageSalesPerMinute   atomic.Float64 `json:"average_sales_per_minute"`
	LastSweepExpiredCount   atomic.Int64   `json:"last_sweep_expired_count"`
	LastSweepTimestamp      atomic.Int64   `json:"last_sweep_timestamp"`
}

type MarketReport struct {
	State  MarketState  `json:"state"`
	Errors MarketErrors `json:"errors"`
}
