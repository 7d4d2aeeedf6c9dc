package model

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgtype"
)

const (
	TableMysteryBoxTier     = "mystery_box_tiers"
	TableMysteryBoxPurchase = "mystery_box_purchases"
)

// Immutable randomization configuration, seeded by migrations
type MysteryBoxTier struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	PriceUSDC   float64
	Description string

	// Mapping from rarity label to a non-negative integer weight
	RarityWeights pgtype.JSONB `gorm:"type:jsonb"`
}

func (MysteryBoxTier) TableName() string {
	return TableMysteryBoxTier
}

func (self *MysteryBoxTier) Weights() (out map[string]int64, err error) {
	err = json.Unmarshal(self.RarityWeights.Bytes, &out)
	return
}

func (self *MysteryBoxTier) SetWeights(weights map[string]int64) (err error) {
	data, err := json.Marshal(weights)
	if err != nil {
		return
	}
	return self.RarityWeights.Set(data)
}

// Audit record of one randomized purchase
type MysteryBoxPurchase struct {
	ID            string `gorm:"primaryKey"`
	TierId        string
	BuyerWallet   string
	BuyerUsername string

	// Amount actually charged, equals the tier price at the time of purchase
	PriceUSDC float64

	ItemGenerated pgtype.JSONB `gorm:"type:jsonb"`

	// Payment reference, globally unique across purchases
	TxHash string `gorm:"uniqueIndex"`

	Timestamp time.Time
}

func (MysteryBoxPurchase) TableName() string {
	return TableMysteryBoxPurchase
}
