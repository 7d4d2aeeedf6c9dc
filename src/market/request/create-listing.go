package request

import "encoding/json"

type CreateListing struct {
	ItemId           string          `json:"item_id"`
	ItemType         string          `json:"item_type"`
	ItemData         json.RawMessage `json:"item_data"`
	SellerWallet     string          `json:"seller_wallet"`
	SellerUsername   string          `json:"seller_username"`
	PriceUSDC        float64         `json:"price_usdc"`
	ExpiresInSeconds int64           `json:"expires_in_seconds"`
	Tags             []string        `json:"tags"`
}
