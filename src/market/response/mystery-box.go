package response

import (
	"github.com/gemtrade/marketplace/src/utils/item"
	"github.com/gemtrade/marketplace/src/utils/model"
)

type MysteryBoxTier struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	PriceUSDC   float64 `json:"price_usdc"`
	Description string  `json:"description,omitempty"`
}

type GetMysteryBoxTiers struct {
	Tiers []MysteryBoxTier `json:"tiers"`
}

func TiersToResponse(tiers []*model.MysteryBoxTier) *GetMysteryBoxTiers {
	out := make([]MysteryBoxTier, len(tiers))
	for i, tier := range tiers {
		out[i] = MysteryBoxTier{
			Id:          tier.ID,
			Name:        tier.Name,
			PriceUSDC:   tier.PriceUSDC,
			Description: tier.Description,
		}
	}
	return &GetMysteryBoxTiers{Tiers: out}
}

type PurchaseBox struct {
	TierId string     `json:"tier_id"`
	TxHash string     `json:"tx_hash"`
	Item   *item.Item `json:"item"`
}
