package model

import "encoding/json"

type MarketEventKind string

const (
	MarketEventListingCreated   MarketEventKind = "listing_created"
	MarketEventListingSold      MarketEventKind = "listing_sold"
	MarketEventListingCancelled MarketEventKind = "listing_cancelled"
	MarketEventListingExpired   MarketEventKind = "listing_expired"
	MarketEventBoxOpened        MarketEventKind = "box_opened"

	// Payment was captured but the purchased good could not be granted,
	// compensation has to be handled outside the core
	MarketEventRefundRequired MarketEventKind = "refund_required"
)

// Notification published to Redis for downstream consumers
type MarketEvent struct {
	Kind      MarketEventKind `json:"kind"`
	ListingId string          `json:"listing_id,omitempty"`
	TierId    string          `json:"tier_id,omitempty"`
	Wallet    string          `json:"wallet,omitempty"`
	TxHash    string          `json:"tx_hash,omitempty"`
	PriceUSDC float64         `json:"price_usdc,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func (self *MarketEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
