package response

import (
	"encoding/json"
	"time"

	"github.com/gemtrade/marketplace/src/utils/model"
)

type Listing struct {
	Id             string          `json:"id"`
	ItemId         string          `json:"item_id"`
	ItemType       string          `json:"item_type"`
	ItemData       json.RawMessage `json:"item_data,omitempty"`
	SellerWallet   string          `json:"seller_wallet"`
	SellerUsername string          `json:"seller_username,omitempty"`
	PriceUSDC      float64         `json:"price_usdc"`
	Status         string          `json:"status"`
	Tags           []string        `json:"tags,omitempty"`
	BuyerWallet    string          `json:"buyer_wallet,omitempty"`
	BuyerUsername  string          `json:"buyer_username,omitempty"`
	TxHash         string          `json:"tx_hash,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	SoldAt         *time.Time      `json:"sold_at,omitempty"`
}

type GetListings struct {
	Listings []Listing `json:"listings"`
}

func ListingToResponse(listing *model.Listing) *Listing {
	out := &Listing{
		Id:             listing.ID,
		ItemId:         listing.ItemId,
		ItemType:       listing.ItemType,
		ItemData:       listing.ItemDataBytes(),
		SellerWallet:   listing.SellerWallet,
		SellerUsername: listing.SellerUsername,
		PriceUSDC:      listing.PriceUSDC,
		Status:         string(listing.Status),
		Tags:           listing.Tags,
		BuyerWallet:    listing.BuyerWallet,
		BuyerUsername:  listing.BuyerUsername,
		TxHash:         listing.TxHash,
		CreatedAt:      listing.CreatedAt,
	}
	if listing.ExpiresAt.Valid {
		expiresAt := listing.ExpiresAt.Time
		out.ExpiresAt = &expiresAt
	}
	if listing.SoldAt.Valid {
		soldAt := listing.SoldAt.Time
		out.SoldAt = &soldAt
	}
	return out
}

func ListingsToResponse(listings []*model.Listing) *GetListings {
	out := make([]Listing, len(listings))
	for i, listing := range listings {
		out[i] = *ListingToResponse(listing)
	}
	return &GetListings{Listings: out}
}
