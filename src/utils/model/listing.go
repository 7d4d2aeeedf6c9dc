package model

import (
	"database/sql"
	"time"

	"github.com/jackc/pgtype"
	"github.com/lib/pq"
)

const (
	TableListing = "listings"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"

	// Terminal state distinct from cancelled, so audit queries can
	// tell a seller cancellation from a timeout
	ListingStatusExpired ListingStatus = "expired"
)

func (self ListingStatus) IsTerminal() bool {
	return self != ListingStatusActive
}

type Listing struct {
	ID             string `gorm:"primaryKey"`
	ItemId         string
	ItemType       string
	ItemData       pgtype.JSONB `gorm:"type:jsonb"`
	SellerWallet   string
	SellerUsername string
	PriceUSDC      float64
	Status         ListingStatus
	Tags           pq.StringArray `gorm:"type:text[]"`

	// Filled in by a successful buy
	BuyerWallet   string
	BuyerUsername string
	TxHash        string

	CreatedAt time.Time
	ExpiresAt sql.NullTime
	SoldAt    sql.NullTime
}

func (Listing) TableName() string {
	return TableListing
}

func (self *Listing) SetItemData(data []byte) error {
	return self.ItemData.Set(data)
}

func (self *Listing) ItemDataBytes() []byte {
	if self.ItemData.Status != pgtype.Present {
		return nil
	}
	return self.ItemData.Bytes
}

func (self *Listing) IsExpired(now time.Time) bool {
	return self.ExpiresAt.Valid && self.ExpiresAt.Time.Before(now)
}
